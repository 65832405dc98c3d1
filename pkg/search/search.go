// Package search implements the per-worker search core, §4.H: iterative
// deepening over a negamax/PVS tree with transposition cutoffs, null-move
// and futility-family pruning, singular/recapture/check extensions, late
// move reductions and aspiration windows at the root, plus the history and
// killer tables that feed the move picker's quiet-move ordering.
//
// Grounded in the teacher's pkg/search: search.go/variation.go (PV,
// Options, Launcher/Handle shape), iterative.go/launcher.go (the
// goroutine-driven iterative-deepening harness with a cancellable Handle),
// pvs.go (the recursive principal-variation-search skeleton this package's
// negamax core generalizes), quiescence.go (stand-pat plus capture-only
// recursion), and transposition.go/exploration.go/movelist.go/selection.go
// for the move-ordering and TT concepts now owned by pkg/tt and
// pkg/picker instead.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/eval"
	"github.com/seekerror/stdlib/pkg/lang"
)

// ErrHalted indicates a search was stopped before completing its current
// depth. Nothing in this package returns it: Root and the per-depth
// searches report a stop through their results, and Root keeps the last
// completed iteration's PV.
var ErrHalted = errors.New("search halted")

// Line is one reported line of a MultiPV result.
type Line struct {
	Index int // 1-based, per UCI's multipv N
	Moves []board.Move
	Score eval.Score
}

// PV represents the principal variation(s) for some completed search depth.
type PV struct {
	Depth    int
	SelDepth int
	Nodes    uint64
	Time     time.Duration
	Hashfull int // permille, 0-1000
	Lines    []Line
}

func (p PV) String() string {
	var b strings.Builder
	for _, l := range p.Lines {
		fmt.Fprintf(&b, "depth=%v seldepth=%v multipv=%v score=%v nodes=%v time=%v hashfull=%v pv=%v\n",
			p.Depth, p.SelDepth, l.Index, l.Score, p.Nodes, p.Time, p.Hashfull, formatMoves(l.Moves))
	}
	return b.String()
}

func formatMoves(moves []board.Move) string {
	parts := make([]string, len(moves))
	for i, m := range moves {
		parts[i] = m.String()
	}
	return strings.Join(parts, " ")
}

// Best returns the first line's leading move, the safety-net move an
// iterative-deepening loop falls back on when no depth ever completed.
func (p PV) Best() (board.Move, bool) {
	if len(p.Lines) == 0 || len(p.Lines[0].Moves) == 0 {
		return board.NoMove, false
	}
	return p.Lines[0].Moves[0], true
}

// Options hold dynamic, per-search options the caller may change on every
// launch.
type Options struct {
	// DepthLimit, if set, limits the search to the given ply depth.
	DepthLimit lang.Optional[int]
	// MultiPV is the number of root lines to report; 0 or 1 means one line.
	MultiPV int
	// SearchMoves, if non-empty, restricts the root move loop to this set.
	SearchMoves []board.Move
	// Contempt is the draw score from White's perspective: positive avoids
	// draws for White, negative avoids them for Black, zero is neutral.
	Contempt eval.Score
	// StartDepth shifts the first iterative-deepening depth searched away
	// from 1; the worker pool (§4.I) uses this to give helper threads a
	// diversified search path (worker_id % 3), since Lazy-SMP workers
	// otherwise race through identical shallow depths in lockstep.
	StartDepth int
	// AspirationWidth overrides the root aspiration window's base half-width
	// (aspirationBaseWindow if zero); the engine's RiskTaking style slider
	// widens it to accept looser cutoffs in exchange for fewer re-searches.
	AspirationWidth int
}

func (o Options) String() string {
	var ret []string
	if v, ok := o.DepthLimit.V(); ok {
		ret = append(ret, fmt.Sprintf("depth=%v", v))
	}
	if o.MultiPV > 1 {
		ret = append(ret, fmt.Sprintf("multipv=%v", o.MultiPV))
	}
	return fmt.Sprintf("[%v]", strings.Join(ret, ", "))
}

// Launcher is a Search generator: given a board and options, it starts an
// iterative-deepening search in the background and streams one PV per
// completed depth (or per completed MultiPV line-set).
type Launcher interface {
	// Launch starts a new search from the given position. It expects an
	// exclusive (forked) thread and returns a PV channel for iteratively
	// deeper searches; the channel closes when the search is exhausted or
	// halted. The search can be stopped at any time via the Handle.
	Launch(ctx context.Context, th *Thread, opt Options) (Handle, <-chan PV)
}

// Handle is an interface for a caller to manage a running search. The
// caller spins off searches with forked boards/threads and closes/abandons
// them when no longer needed.
type Handle interface {
	// Halt halts the search, if running, and returns the best PV found so
	// far. Idempotent.
	Halt() PV
}
