// Package tb implements the tablebase probe collaborator, §4.J: a
// boolean availability check plus WDL/root probes, eligibility gating, and
// the statistics counters the spec calls for. No actual tablebase format
// (Syzygy or otherwise) is implemented -- None is the shipped
// implementation, matching original_source's own thin stub for this
// collaborator; a real backend would satisfy Tablebase and be wired in by
// the engine the same way None is.
//
// Grounded in hailam-chessplay's internal/tablebase/tablebase.go
// (other_examples/) for the WDL enum, Prober interface shape (Probe/
// ProbeRoot/MaxPieces/Available) and its NoopProber default, which this
// package's WDL/Tablebase/None generalize to match §4.J's naming
// (probe_wdl, probe_root) and add the eligibility rule and call/hit
// counters §4.J requires and hailam's version doesn't track.
package tb

import (
	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/eval"
	"go.uber.org/atomic"
)

// WDL is a tablebase result from the side-to-move's perspective.
type WDL int

const (
	Unknown WDL = iota
	Loss
	BlessedLoss // a loss, but the 50-move rule may save it
	Draw
	CursedWin // a win, but the 50-move rule may spoil it
	Win
)

func (w WDL) String() string {
	switch w {
	case Loss:
		return "loss"
	case BlessedLoss:
		return "blessed-loss"
	case Draw:
		return "draw"
	case CursedWin:
		return "cursed-win"
	case Win:
		return "win"
	default:
		return "unknown"
	}
}

// RootResult is probe_root's output, §4.J: the WDL/DTZ of the root
// position plus, when the tablebase can name one outright, the move to
// play -- letting the caller bypass search entirely.
type RootResult struct {
	WDL  WDL
	DTZ  int // distance to zeroing move (capture or pawn push); meaningless if WDL == Unknown
	Move board.Move
	Ok   bool
}

// Tablebase is the probe collaborator interface, §4.J.
type Tablebase interface {
	// Available reports whether any tablebase data is loaded.
	Available() bool
	// MaxPieces is the largest total piece count (both sides, kings
	// included) this tablebase covers.
	MaxPieces() int
	// ProbeWDL looks up pos's outcome with best play. ok is false if pos
	// is outside the tablebase's coverage.
	ProbeWDL(pos *board.Position) (wdl WDL, ok bool)
	// ProbeRoot looks up the root move the tablebase recommends, if any.
	ProbeRoot(pos *board.Position) RootResult
}

// None is the no-op Tablebase: always unavailable, every probe misses.
// The default when no tablebase is configured, per SPEC_FULL.md's
// supplemented-features note matching original_source's own stub.
type None struct{}

func (None) Available() bool                     { return false }
func (None) MaxPieces() int                       { return 0 }
func (None) ProbeWDL(*board.Position) (WDL, bool) { return Unknown, false }
func (None) ProbeRoot(*board.Position) RootResult { return RootResult{} }

// Eligible reports whether pos qualifies for a tablebase probe, per §4.J:
// total piece count within maxPieces, neither side retains castling
// rights, and both kings present (always true for a legally constructed
// Position, so not checked here).
func Eligible(pos *board.Position, maxPieces int) bool {
	if pos.Castling() != board.ZeroCastling {
		return false
	}
	return pos.Occupancy().PopCount() <= maxPieces
}

// Stats are the probe counters §4.J calls for: bumped once per call and
// again per hit, separately for interior-node WDL probes and root probes.
type Stats struct {
	WDLProbes  atomic.Uint64
	WDLHits    atomic.Uint64
	RootProbes atomic.Uint64
	RootHits   atomic.Uint64
}

// Adapter wraps a Tablebase as the search package's narrower
// TablebaseProber (a single Probe returning a side-to-move-relative
// eval.Score), gating on Eligible and bumping Stats along the way. The
// search core only ever needs a decisive WDL translated to a score; the
// richer WDL/DTZ/root-move surface stays in this package for the engine's
// own root-level bypass (§4.J: "if probe_root yields a move at the root,
// return it immediately").
type Adapter struct {
	TB    Tablebase
	Stats *Stats
}

// Probe implements search.TablebaseProber.
func (a *Adapter) Probe(pos *board.Position) (eval.Score, bool) {
	if a.TB == nil || !a.TB.Available() {
		return 0, false
	}
	if !Eligible(pos, a.TB.MaxPieces()) {
		return 0, false
	}

	a.Stats.WDLProbes.Inc()
	wdl, ok := a.TB.ProbeWDL(pos)
	if !ok {
		return 0, false
	}
	a.Stats.WDLHits.Inc()

	return WDLToScore(wdl, 0), true
}

// ProbeRoot probes the root position directly, bumping the root counters,
// for the engine's own "bypass search entirely" shortcut.
func (a *Adapter) ProbeRoot(pos *board.Position) (RootResult, bool) {
	if a.TB == nil || !a.TB.Available() || !Eligible(pos, a.TB.MaxPieces()) {
		return RootResult{}, false
	}
	a.Stats.RootProbes.Inc()
	res := a.TB.ProbeRoot(pos)
	if res.Ok {
		a.Stats.RootHits.Inc()
	}
	return res, res.Ok
}

// mateScore sits 1000cp below eval.MateScore: above any material score,
// yet below the range eval.Score.IsMate reports as mate, so eval.Propagate
// passes tablebase wins/losses through unchanged.
const mateScore = eval.MateScore - 1000

// WDLToScore converts a tablebase result to a side-to-move-relative score
// at the given ply, per §4.J: decisive results get near-mate scores
// (closer ply, i.e. shallower in the tree, scores higher, matching
// eval.MateIn's "prefer the faster mate" convention), cursed/blessed
// results are nudged toward a draw since the 50-move rule may yet
// intervene, and an undetermined WDL is a flat draw score.
func WDLToScore(wdl WDL, ply int) eval.Score {
	switch wdl {
	case Win:
		return mateScore - eval.Score(ply)
	case CursedWin:
		return eval.DrawScore + 200
	case Draw, Unknown:
		return eval.DrawScore
	case BlessedLoss:
		return eval.DrawScore - 200
	case Loss:
		return -mateScore + eval.Score(ply)
	default:
		return eval.DrawScore
	}
}
