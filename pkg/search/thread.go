package search

import (
	"time"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/eval"
	"github.com/kestrelchess/kestrel/pkg/tt"
	"go.uber.org/atomic"
)

// nodeCheckInterval is how often (in nodes) the search checks its stop
// flag / deadline away from quiescence leaves, per §4.H's failure model;
// quiescence leaves check every time since they're the tree's far edge and
// cheapest to abort from.
const nodeCheckInterval = 4096

// Thread holds one worker's search-local state: its own board (so it can
// push/pop moves without contending with other workers), its own history
// and killer tables (Lazy-SMP workers diverge in move ordering by design,
// per §4.I), and a reference to the transposition table and evaluator
// shared across the whole pool.
type Thread struct {
	ID    int
	Board *board.Board
	TT    *tt.Table
	Eval  eval.Evaluator

	// TB is the optional tablebase collaborator (§4.J); nil means none is
	// configured and the probe step in negamax is skipped entirely.
	TB TablebaseProber

	// contempt is the draw score from White's perspective (§4.H's
	// contempt-adjusted draw detection); 0 reproduces a neutral draw.
	contempt eval.Score

	nodes   atomic.Uint64
	stopped atomic.Bool

	deadline    time.Time
	hasDeadline bool

	killers         killerTable
	history         quietHistory
	counterMove     counterMoveTable
	counterHistory  continuationHistory
	followUpHistory continuationHistory
	captures        captureHistory

	moveAtPly  [eval.MaxPly]board.Move
	pieceAtPly [eval.MaxPly]board.Piece
	staticEval [eval.MaxPly]eval.Score

	selDepth int
}

// NewThread returns a fresh search thread over b, sharing table and ev with
// any sibling threads in the same pool.
func NewThread(id int, b *board.Board, table *tt.Table, ev eval.Evaluator) *Thread {
	return &Thread{ID: id, Board: b, TT: table, Eval: ev}
}

// Nodes returns the number of interior+leaf nodes visited so far.
func (t *Thread) Nodes() uint64 {
	return t.nodes.Load()
}

// Stop requests cooperative cancellation, checked at nodeCheckInterval
// granularity inside the main search and on every quiescence leaf.
func (t *Thread) Stop() {
	t.stopped.Store(true)
}

// SetDeadline arms a wall-clock deadline for this search; once armed, nodes
// visited at the check granularity above compare against it. A zero
// deadline (the Reset default) means no time limit -- only Stop or a depth
// limit ends the search.
func (t *Thread) SetDeadline(d time.Time) {
	t.deadline = d
	t.hasDeadline = !d.IsZero()
}

// SetContempt sets the draw score (from White's perspective) this thread
// uses for contempt-adjusted draw detection, per §4.H and Options.Contempt.
func (t *Thread) SetContempt(c eval.Score) {
	t.contempt = c
}

// Reset clears the stop flag, deadline and node counter for a fresh Search
// call, while leaving history/killer tables intact -- they carry useful
// ordering information across iterative-deepening depths and even across
// moves within the same game, the way the teacher's own engine keeps one
// long-lived search state rather than rebuilding it every move.
func (t *Thread) Reset() {
	t.stopped.Store(false)
	t.hasDeadline = false
	t.nodes.Store(0)
	t.selDepth = 0
}

func (t *Thread) timeUp() bool {
	if t.stopped.Load() {
		return true
	}
	return t.hasDeadline && !time.Now().Before(t.deadline)
}

// enterNode counts one interior/PV node visit and reports whether the
// search must stop now. The deadline itself is only re-checked every
// nodeCheckInterval nodes, per §4.H's failure model.
func (t *Thread) enterNode() bool {
	n := t.nodes.Inc()
	if n%nodeCheckInterval == 0 && t.timeUp() {
		t.stopped.Store(true)
	}
	return t.stopped.Load()
}

// enterQuiescenceNode counts one quiescence-leaf visit and always checks
// the deadline, since quiescence leaves are the cheapest and most frequent
// place a runaway capture sequence could overrun the clock.
func (t *Thread) enterQuiescenceNode() bool {
	t.nodes.Inc()
	if t.timeUp() {
		t.stopped.Store(true)
	}
	return t.stopped.Load()
}
