// Package engine is the orchestrator: it ties the board, the Lazy-SMP
// worker pool, the transposition table the pool owns, the opening book,
// the tablebase probe collaborator and the time manager into the single
// stateful object the UCI/console drivers call into.
//
// Grounded in the teacher's pkg/engine/engine.go (Engine/Options/Option
// shape, the mutex-guarded board+handle fields, Reset/Move/TakeBack/
// Analyze/Halt semantics), generalized from a single search.Launcher over
// one board to a pool.Pool over N workers, and from the teacher's
// Position.PseudoLegalMoves+Position.Move move-application pair (neither
// built in this module's pkg/board, per pkg/movegen's own grounding note)
// to movegen.GenerateLegal+board.Board.PushMove.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/board/fen"
	"github.com/kestrelchess/kestrel/pkg/book"
	"github.com/kestrelchess/kestrel/pkg/engine/style"
	"github.com/kestrelchess/kestrel/pkg/eval"
	"github.com/kestrelchess/kestrel/pkg/movegen"
	"github.com/kestrelchess/kestrel/pkg/pool"
	"github.com/kestrelchess/kestrel/pkg/search"
	"github.com/kestrelchess/kestrel/pkg/tb"
	"github.com/kestrelchess/kestrel/pkg/timectl"
	"github.com/seekerror/build"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
)

var version = build.NewVersion(0, 1, 0)

// Options are the engine-wide settings that come from UCI's Options list
// (§6): Hash/Threads/Depth/MoveOverhead/MultiPV/OwnBook plus the protocol
// toggles. SyzygyPath/BookFile/BookLearning/BookRandom/UseNNUE/EvalFile are
// accepted (so `setoption` never errors on an unknown-but-spec'd name) but
// have no effect: tablebase/book/NNUE file formats are out of scope
// (spec "Deliberately OUT of scope") and this module's only book/tablebase
// sources are the programmatic book.New and tb.None.
type Options struct {
	Hash         int // MB
	Threads      int
	Depth        int // ply limit; 0 = unlimited
	MoveOverhead time.Duration
	Contempt     eval.Score // cp, from White's perspective
	MultiPV      int
	OwnBook      bool
	UCIChess960  bool
	UCIShowWDL   bool
	Assertions   bool
}

func (o Options) String() string {
	return fmt.Sprintf("{hash=%vMB threads=%v depth=%v contempt=%v multipv=%v ownbook=%v}",
		o.Hash, o.Threads, o.Depth, o.Contempt, o.MultiPV, o.OwnBook)
}

// DefaultOptions are the engine's out-of-the-box settings.
func DefaultOptions() Options {
	return Options{Hash: 16, Threads: 1, MultiPV: 1, MoveOverhead: 30 * time.Millisecond}
}

// Option is an engine construction option.
type Option func(*Engine)

// WithOptions sets the engine's initial runtime options.
func WithOptions(opts Options) Option {
	return func(e *Engine) { e.opts = opts }
}

// WithZobrist configures the engine to use the given random seed instead
// of the default.
func WithZobrist(seed int64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithBook configures the engine's opening book.
func WithBook(b book.Book) Option {
	return func(e *Engine) { e.book = b }
}

// WithTablebase configures the engine's tablebase backend. tb.None{} (the
// default if never called) always misses.
func WithTablebase(t tb.Tablebase) Option {
	return func(e *Engine) { e.tb = &tb.Adapter{TB: t, Stats: &tb.Stats{}} }
}

// Engine encapsulates game-playing logic: board state, search, evaluation,
// the opening book and the tablebase probe.
type Engine struct {
	name, author string

	seed int64
	zt   *board.ZobristTable

	mu        sync.Mutex
	opts      Options
	style     style.Sliders
	b         *board.Board
	p         *pool.Pool
	poolHash  int
	poolN     int
	ev        *eval.MaterialPST
	book      book.Book
	tb        *tb.Adapter
	active    *handle
	lastScore eval.Score
}

func New(ctx context.Context, name, author string, opts ...Option) *Engine {
	e := &Engine{
		name:   name,
		author: author,
		opts:   DefaultOptions(),
		book:   book.None,
		tb:     &tb.Adapter{TB: tb.None{}, Stats: &tb.Stats{}},
	}
	for _, fn := range opts {
		fn(e)
	}
	e.zt = board.NewZobristTable(e.seed)

	_ = e.Reset(ctx, fen.Initial)

	logw.Infof(ctx, "Initialized engine: %v, options=%v", e.Name(), e.opts)
	return e
}

// Name returns the engine name and version.
func (e *Engine) Name() string {
	return fmt.Sprintf("%v %v", e.name, version)
}

// Author returns the author.
func (e *Engine) Author() string {
	return e.author
}

func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

func (e *Engine) Style() style.Sliders {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.style
}

func (e *Engine) SetStyle(s style.Sliders) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.style = s.Clamp()
	e.rebuildEvaluatorLocked()
	if e.p != nil {
		e.poolN = 0 // force a rebuild so the pool's threads get the new evaluator
		e.rebuildPoolLocked()
	}
}

// SetHash resizes the shared transposition table immediately (losing its
// contents), matching UCI's "Hash" option taking effect as soon as it's
// set rather than waiting for the next search.
func (e *Engine) SetHash(mb int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.Hash = mb
	if e.p != nil {
		e.rebuildPoolLocked()
	}
}

// SetThreads resizes the worker pool immediately, matching UCI's "Threads"
// option.
func (e *Engine) SetThreads(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.Threads = n
	if e.p != nil {
		e.rebuildPoolLocked()
	}
}

func (e *Engine) SetDepth(ply int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.Depth = ply
}

func (e *Engine) SetMultiPV(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.MultiPV = n
}

func (e *Engine) SetContempt(cp int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.Contempt = eval.Score(cp)
}

func (e *Engine) SetOwnBook(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.OwnBook = on
}

func (e *Engine) SetMoveOverhead(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.MoveOverhead = d
}

// Book reports whether OwnBook is enabled and, if so, looks up the current
// position. Used by drivers deciding whether to bypass search entirely.
func (e *Engine) Book(ctx context.Context) ([]board.Move, error) {
	e.mu.Lock()
	useBook, b, position := e.opts.OwnBook, e.book, fen.Encode(e.b.Position())
	e.mu.Unlock()

	if !useBook || b == nil {
		return nil, nil
	}
	return b.Find(ctx, position)
}

// Board returns a cloned snapshot of the current board, safe for the
// caller to push/pop moves on without racing the engine's own state.
func (e *Engine) Board() *board.Board {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.b.Clone()
}

// Position returns the current position in FEN, convenience function.
func (e *Engine) Position() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fen.Encode(e.b.Position())
}

// Reset resets the engine to a new starting position given in FEN, also
// resizing the worker pool if Hash/Threads changed since it was last
// built, per the teacher's "Reset recreates the TT" pattern generalized to
// the whole pool.
func (e *Engine) Reset(ctx context.Context, position string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	logw.Infof(ctx, "Reset %v, opts=%v", position, e.opts)

	e.haltSearchIfActiveLocked(ctx)

	pos, err := fen.Decode(e.zt, position)
	if err != nil {
		return err
	}
	e.b = board.NewBoard(pos)
	e.lastScore = 0

	e.rebuildEvaluatorLocked()
	e.rebuildPoolLocked()

	logw.Infof(ctx, "New board: %v", e.b)
	return nil
}

func (e *Engine) rebuildEvaluatorLocked() {
	e.ev = eval.NewMaterialPST(e.style.Aggression, e.style.Positional, 0, e.seed)
}

func (e *Engine) rebuildPoolLocked() {
	hash := e.opts.Hash
	if hash <= 0 {
		hash = 1
	}
	n := e.opts.Threads
	if n <= 0 {
		n = 1
	}
	if e.p != nil && hash == e.poolHash && n == e.poolN {
		return
	}
	if e.p != nil {
		e.p.Close()
	}
	e.p = pool.New(n, hash, e.ev)
	e.poolHash, e.poolN = hash, n
}

// Move applies the given move, usually an opponent's, in long algebraic
// notation.
func (e *Engine) Move(ctx context.Context, move string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	candidate, err := board.ParseMove(move)
	if err != nil {
		return fmt.Errorf("invalid move: %w", err)
	}

	e.haltSearchIfActiveLocked(ctx)

	for _, m := range movegen.GenerateLegal(e.b.Position()) {
		if !candidate.Equals(m) {
			continue
		}
		if !e.b.PushMove(m) {
			return fmt.Errorf("illegal move: %v", m)
		}
		logw.Infof(ctx, "Move %v: %v", m, e.b)
		return nil
	}
	return fmt.Errorf("illegal move: %v", candidate)
}

// TakeBack undoes the latest move.
func (e *Engine) TakeBack(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltSearchIfActiveLocked(ctx)

	m, ok := e.b.PopMove()
	if !ok {
		return fmt.Errorf("no move to take back")
	}
	logw.Infof(ctx, "Takeback %v", m)
	return nil
}

// Analyze starts a search of the current position under the given clock
// limits, returning a channel of completed-depth PVs. If the tablebase
// names a root move outright, search is bypassed entirely and a single
// synthetic PV carrying that move is delivered instead, per §4.J.
func (e *Engine) Analyze(ctx context.Context, opt search.Options, limits timectl.Limits) (<-chan search.PV, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		return nil, fmt.Errorf("search already active")
	}

	if res, ok := e.tb.ProbeRoot(e.b.Position()); ok && res.Move != board.NoMove {
		out := make(chan search.PV, 1)
		pv := search.PV{Lines: []search.Line{{Index: 1, Moves: []board.Move{res.Move}, Score: tb.WDLToScore(res.WDL, 0)}}}
		out <- pv
		close(out)
		e.lastScore = pv.Lines[0].Score
		return out, nil
	}

	if _, ok := opt.DepthLimit.V(); !ok && e.opts.Depth > 0 {
		opt.DepthLimit = lang.Some(e.opts.Depth)
	}
	if opt.MultiPV == 0 {
		opt.MultiPV = e.opts.MultiPV
	}
	opt.Contempt = e.opts.Contempt + eval.Score(e.style.DrawAcceptance)
	opt.AspirationWidth = e.style.AspirationWidth()

	phase := e.ev.Phase(e.b.Position())
	alloc := timectl.Compute(limits, phase, e.lastScore)
	numer, denom := e.style.TimeScale()
	alloc.Max = alloc.Max * time.Duration(numer) / time.Duration(denom)
	alloc.Panic = alloc.Max * 80 / 100

	logw.Infof(ctx, "Analyze %v, opt=%v, alloc=%+v", e.b, opt, alloc)

	start := time.Now()
	deadline := alloc.Deadline(start)

	out := make(chan search.PV, 64)
	h := &handle{pool: e.p, done: make(chan struct{})}
	e.active = h

	root := e.b.Clone()
	go func() {
		defer close(out)
		defer close(h.done)

		res := e.p.StartSearch(ctx, root, opt, deadline, func(p search.PV) {
			h.mu.Lock()
			h.last = p
			h.mu.Unlock()
			select {
			case out <- p:
			default:
			}
		})
		h.mu.Lock()
		h.last = res.PV
		h.mu.Unlock()
	}()

	return out, nil
}

// Halt halts the active search and returns the principal variation found
// so far, if any.
func (e *Engine) Halt(ctx context.Context) (search.PV, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pv, ok := e.haltSearchIfActiveLocked(ctx)
	if !ok {
		return search.PV{}, fmt.Errorf("no active search")
	}
	return pv, nil
}

func (e *Engine) haltSearchIfActiveLocked(ctx context.Context) (search.PV, bool) {
	if e.active == nil {
		return search.PV{}, false
	}
	pv := e.active.Halt()
	if len(pv.Lines) > 0 {
		e.lastScore = pv.Lines[0].Score
	}
	logw.Infof(ctx, "Search %v halted: %v", e.b, pv)
	e.active = nil
	return pv, true
}

// ShowWDL reports the tablebase's WDL verdict for the current position, if
// the tablebase is available and the position is within its coverage.
// Used by the UCI driver's UCI_ShowWDL option (§6 Supplemented features).
func (e *Engine) ShowWDL() (tb.WDL, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tb.TB == nil || !e.tb.TB.Available() || !tb.Eligible(e.b.Position(), e.tb.TB.MaxPieces()) {
		return tb.Unknown, false
	}
	return e.tb.TB.ProbeWDL(e.b.Position())
}

// handle lets a caller stop an in-flight pool search and retrieve its most
// recent completed-depth PV, mirroring search.Handle's contract over a
// pool.Pool's blocking StartSearch instead of a single search.Thread.
type handle struct {
	pool *pool.Pool

	mu   sync.Mutex
	last search.PV
	done chan struct{}
}

func (h *handle) Halt() search.PV {
	h.pool.Stop()
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}
