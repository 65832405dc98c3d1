// Package pool implements the Lazy-SMP worker pool, §4.I: a fixed number
// of workers sharing one transposition table by reference, synchronizing
// only through it -- no work stealing, no split points. One worker is
// main and runs on the caller's own goroutine; the rest are background
// helpers that idle on a condition variable between searches, woken by
// init/start_search's lifecycle rather than spun up fresh every move.
//
// Grounded in the teacher's pkg/search/searchctl (Iterative's single
// goroutine-per-launch shape, generalized here to N), hailam-chessplay's
// internal/engine/worker.go + engine.go (other_examples/) for the
// Worker/Engine split, shared stop flag, and per-worker depth staggering
// this package adapts into persistent, condition-variable-woken workers,
// and §5's concurrency model for the synchronization contract: per-worker
// private state, shared TT only, cooperative stop.
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/eval"
	"github.com/kestrelchess/kestrel/pkg/search"
	"github.com/kestrelchess/kestrel/pkg/tt"
	"github.com/seekerror/stdlib/pkg/util/iox"
)

// helperDepthCycle is the modulus helper threads use to diversify their
// iterative-deepening start depth from the main thread's and from each
// other, per §4.I's "advance their target depth by worker_id % 3".
const helperDepthCycle = 3

// voteMargin is how much better, in centipawns, a helper's root move must
// score than the main worker's before the pool prefers it over main's,
// per §4.I's vote rule.
const voteMargin = 50

// Result is one worker's contribution to a pool search.
type Result struct {
	ThreadID int
	PV       search.PV
}

// Pool is a fixed-size set of search.Thread workers sharing one
// transposition table and evaluator. Not safe for concurrent calls to
// StartSearch -- like a single UCI engine instance, one search runs at a
// time.
type Pool struct {
	iox.AsyncCloser

	TT *tt.Table

	threads []*search.Thread

	mu    sync.Mutex
	cond  *sync.Cond
	round uint64

	root     *board.Board
	opt      search.Options
	deadline time.Time
	ctx      context.Context

	resultsMu sync.Mutex
	results   []Result

	wg sync.WaitGroup
}

// New builds a pool of n workers (n-1 background helpers, started
// immediately and idling until the first StartSearch) sharing one
// tt_mb-sized transposition table and the evaluator ev. n < 1 is treated
// as 1 (main only, no helpers -- a degenerate but valid single-threaded
// pool).
func New(n, ttMB int, ev eval.Evaluator) *Pool {
	if n < 1 {
		n = 1
	}

	p := &Pool{AsyncCloser: iox.NewAsyncCloser(), TT: tt.New(ttMB)}
	p.cond = sync.NewCond(&p.mu)
	p.threads = make([]*search.Thread, n)
	for i := range p.threads {
		p.threads[i] = search.NewThread(i, nil, p.TT, ev)
	}
	for i := 1; i < n; i++ {
		go p.runHelper(i)
	}
	return p
}

// Size returns the number of workers, main included.
func (p *Pool) Size() int {
	return len(p.threads)
}

// Close stops every idling helper for good and signals Closed(), so a
// caller composing pool shutdown with its own (e.g. a UCI driver's
// iox.AsyncCloser) can select on both. The pool must not be used
// afterward.
func (p *Pool) Close() {
	p.mu.Lock()
	p.AsyncCloser.Close()
	p.cond.Broadcast()
	p.mu.Unlock()
}

// runHelper is a background worker's whole lifetime: wait on the
// condition variable for a new round, search it with a diversified start
// depth, report the result, and go back to idling. Exits only when the
// pool is closed.
func (p *Pool) runHelper(id int) {
	var seen uint64
	for {
		p.mu.Lock()
		for p.round == seen && !p.IsClosed() {
			p.cond.Wait()
		}
		if p.IsClosed() {
			p.mu.Unlock()
			return
		}
		seen = p.round
		root, opt, deadline, ctx := p.root, p.opt, p.deadline, p.ctx
		p.mu.Unlock()

		th := p.threads[id]
		th.Board = root.Clone()
		th.Reset()
		if !deadline.IsZero() {
			th.SetDeadline(deadline)
		}

		opt.StartDepth = 1 + id%helperDepthCycle
		pv := search.Root(ctx, th, opt, nil)

		p.resultsMu.Lock()
		p.results = append(p.results, Result{ThreadID: id, PV: pv})
		p.resultsMu.Unlock()
		p.wg.Done()
	}
}

// StartSearch copies root into every worker, wakes the helpers, and runs
// the main worker's own iterative-deepening search on the calling
// goroutine -- exactly the "main worker also executes the search on the
// calling thread" lifecycle from §4.I. Once the main worker finishes (by
// reaching opt's depth limit, deadline, or an external Stop), every
// helper is told to stop too and joined before StartSearch returns, per
// §4.I's "after completion or deadline the pool signals all workers to
// stop and joins them". report, if non-nil, is invoked with the main
// worker's PV after every completed depth, for UCI's "info" lines.
func (p *Pool) StartSearch(ctx context.Context, root *board.Board, opt search.Options, deadline time.Time, report func(search.PV)) Result {
	n := len(p.threads)

	p.mu.Lock()
	p.root = root
	p.opt = opt
	p.deadline = deadline
	p.ctx = ctx
	p.round++
	p.mu.Unlock()

	p.resultsMu.Lock()
	p.results = p.results[:0]
	p.resultsMu.Unlock()

	if n > 1 {
		p.wg.Add(n - 1)
		p.cond.Broadcast()
	}

	main := p.threads[0]
	main.Board = root.Clone()
	main.Reset()
	if !deadline.IsZero() {
		main.SetDeadline(deadline)
	}
	mainPV := search.Root(ctx, main, opt, report)

	for i := 1; i < n; i++ {
		p.threads[i].Stop()
	}
	if n > 1 {
		p.wg.Wait()
	}

	best := Result{ThreadID: 0, PV: mainPV}
	mainScore, mainHasMove := bestScore(mainPV)

	p.resultsMu.Lock()
	for _, r := range p.results {
		score, ok := bestScore(r.PV)
		if !ok || !mainHasMove {
			continue
		}
		if int(score)-int(mainScore) >= voteMargin {
			best = r
			mainScore = score
		}
	}
	p.resultsMu.Unlock()

	return best
}

// Stop requests cooperative cancellation of an in-flight StartSearch
// across every worker, main included.
func (p *Pool) Stop() {
	for _, th := range p.threads {
		th.Stop()
	}
}

// Nodes returns the total node count across every worker for the most
// recent (or in-flight) search.
func (p *Pool) Nodes() uint64 {
	var total uint64
	for _, th := range p.threads {
		total += th.Nodes()
	}
	return total
}

func bestScore(pv search.PV) (eval.Score, bool) {
	if len(pv.Lines) == 0 {
		return 0, false
	}
	return pv.Lines[0].Score, true
}
