package search

import (
	"context"
	"sort"
	"time"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/eval"
	"github.com/kestrelchess/kestrel/pkg/movegen"
	"github.com/kestrelchess/kestrel/pkg/tt"
)

// aspirationBaseWindow is the initial half-width of the aspiration window
// around the previous iteration's score, before volatility/failure
// widening, per §4.H.
const aspirationBaseWindow = 25

// rootMove is one candidate move at the root, carrying the score from its
// most recently completed search so later iterations can order by it.
type rootMove struct {
	move  board.Move
	score eval.Score
}

// Root runs iterative deepening from the current position of t.Board,
// returning the best PV found by the time opt's depth limit is reached or
// the thread is stopped/times out. Every completed depth is also reported
// on the optional report callback, so a caller streaming intermediate PVs
// (see Launch) doesn't have to duplicate the iteration logic.
func Root(ctx context.Context, t *Thread, opt Options, report func(PV)) PV {
	start := time.Now()
	t.SetContempt(opt.Contempt)
	t.TT.NewSearch()

	pos := t.Board.Position()
	candidates := movegen.GenerateLegal(pos)
	if len(opt.SearchMoves) > 0 {
		candidates = restrictTo(candidates, opt.SearchMoves)
	}

	var last PV
	if len(candidates) == 0 {
		return last
	}

	moves := make([]rootMove, len(candidates))
	for i, m := range candidates {
		moves[i] = rootMove{move: m}
	}

	multiPV := opt.MultiPV
	if multiPV < 1 {
		multiPV = 1
	}
	if multiPV > len(moves) {
		multiPV = len(moves)
	}

	maxDepth := eval.MaxPly - 2
	if d, ok := opt.DepthLimit.V(); ok && d < maxDepth {
		maxDepth = d
	}

	startDepth := 1
	if opt.StartDepth > startDepth {
		startDepth = opt.StartDepth
	}
	if startDepth > maxDepth {
		startDepth = maxDepth
	}

	var scoreHistory []eval.Score

	for depth := startDepth; depth <= maxDepth; depth++ {
		var pv PV
		var ok bool
		if multiPV == 1 {
			pv, ok = searchSinglePV(ctx, t, moves, depth, scoreHistory, opt.AspirationWidth)
		} else {
			pv, ok = searchMultiPV(ctx, t, moves, depth, multiPV)
		}
		if !ok {
			break // stopped before depth completed; keep the prior iteration's PV
		}

		pv.Time = time.Since(start)
		pv.Nodes = t.Nodes()
		pv.SelDepth = t.selDepth
		pv.Hashfull = t.TT.Hashfull()
		last = pv

		if len(pv.Lines) > 0 {
			scoreHistory = append(scoreHistory, pv.Lines[0].Score)
			if len(scoreHistory) > 4 {
				scoreHistory = scoreHistory[len(scoreHistory)-4:]
			}
		}

		if report != nil {
			report(last)
		}

		if t.stopped.Load() {
			break
		}
	}

	if len(last.Lines) == 0 {
		// No depth ever completed: fall back on the first legal move, per
		// §4.H's safety net.
		last = PV{Depth: 0, Lines: []Line{{Index: 1, Moves: []board.Move{moves[0].move}, Score: eval.DrawScore}}}
	}
	return last
}

func restrictTo(candidates, allowed []board.Move) []board.Move {
	set := make(map[board.Move]bool, len(allowed))
	for _, m := range allowed {
		set[m] = true
	}
	var out []board.Move
	for _, m := range candidates {
		if set[m] {
			out = append(out, m)
		}
	}
	return out
}

// searchSinglePV runs the PVS root move loop for the best line only: moves
// sorted by their previous-iteration scores (so the previous best comes
// first; the TT move is not consulted), the first with a full window, every
// other move with a null window plus research on fail-high, with an
// aspiration window around the previous score once depth allows it.
func searchSinglePV(ctx context.Context, t *Thread, moves []rootMove, depth int, history []eval.Score, aspirationWidth int) (PV, bool) {
	sort.SliceStable(moves, func(i, j int) bool { return moves[i].score > moves[j].score })

	aspirating := depth >= 5 && len(history) > 0
	windowAlpha, windowBeta := -eval.MateScore, eval.MateScore
	if aspirating {
		windowAlpha, windowBeta = aspirationWindow(history, aspirationWidth)
	}
	failures := 0

	var best rootMove

	for {
		alpha, beta := windowAlpha, windowBeta
		var bestSet bool

		for i := range moves {
			m := moves[i].move
			if !t.Board.PushMove(m) {
				continue
			}

			var score eval.Score
			if !bestSet {
				score = eval.Propagate(-t.negamax(ctx, depth-1, 1, -beta, -alpha, board.NoMove))
			} else {
				score = eval.Propagate(-t.negamax(ctx, depth-1, 1, -alpha-1, -alpha, board.NoMove))
				if int(score) > int(alpha) && int(score) < int(beta) {
					score = eval.Propagate(-t.negamax(ctx, depth-1, 1, -beta, -alpha, board.NoMove))
				}
			}
			t.Board.PopMove()
			moves[i].score = score

			if t.stopped.Load() && depth > 1 {
				return PV{}, false
			}

			if !bestSet || int(score) > int(alpha) {
				alpha = score
				best = rootMove{move: m, score: score}
				bestSet = true
			}
		}

		if !bestSet {
			return PV{}, false
		}
		if !aspirating {
			break
		}

		failedHigh := int(best.score) >= int(windowBeta)
		failedLow := int(best.score) <= int(windowAlpha)
		if !failedHigh && !failedLow {
			break
		}

		failures++
		if failures >= 2 {
			// Two consecutive failures: drop to a full window for one more
			// (guaranteed-exact) pass, per §4.H.
			windowAlpha, windowBeta = -eval.MateScore, eval.MateScore
			aspirating = false
			continue
		}
		if failedHigh {
			windowBeta = widen(windowBeta, eval.MateScore)
		}
		if failedLow {
			windowAlpha = widen(windowAlpha, -eval.MateScore)
		}
	}

	pvMoves := extractPV(t, best.move, depth)
	return PV{Depth: depth, Lines: []Line{{Index: 1, Moves: pvMoves, Score: best.score}}}, true
}

func widen(bound, limit eval.Score) eval.Score {
	delta := eval.Score(aspirationBaseWindow * 2)
	if bound+delta > limit && bound < limit {
		return limit
	}
	if limit > bound {
		return bound + delta
	}
	return bound - delta
}

// aspirationWindow centers on the previous iteration's score, widened by
// recent volatility (the largest swing across the last few iterations),
// per §4.H. base overrides aspirationBaseWindow when positive (the
// engine's RiskTaking style slider, §6 Options).
func aspirationWindow(history []eval.Score, base int) (eval.Score, eval.Score) {
	if base <= 0 {
		base = aspirationBaseWindow
	}

	prev := history[len(history)-1]
	volatility := 0
	for i := 1; i < len(history); i++ {
		swing := int(history[i]) - int(history[i-1])
		if swing < 0 {
			swing = -swing
		}
		if swing > volatility {
			volatility = swing
		}
	}
	half := eval.Score(base + volatility)
	return prev - half, prev + half
}

// searchMultiPV searches every candidate move with a full window at this
// depth and reports the top n by score. Simpler and less efficient than
// the single-PV path (it forgoes alpha-beta pruning across root moves) but
// exact for every reported line, which MultiPV callers (UCI's "multipv"
// option) need.
func searchMultiPV(ctx context.Context, t *Thread, moves []rootMove, depth, n int) (PV, bool) {
	for i := range moves {
		m := moves[i].move
		if !t.Board.PushMove(m) {
			continue
		}
		score := eval.Propagate(-t.negamax(ctx, depth-1, 1, -eval.MateScore, eval.MateScore, board.NoMove))
		t.Board.PopMove()
		moves[i].score = score

		if t.stopped.Load() && depth > 1 {
			return PV{}, false
		}
	}

	sort.SliceStable(moves, func(i, j int) bool { return moves[i].score > moves[j].score })

	lines := make([]Line, 0, n)
	for i := 0; i < n; i++ {
		lines = append(lines, Line{
			Index: i + 1,
			Moves: extractPV(t, moves[i].move, depth),
			Score: moves[i].score,
		})
	}
	return PV{Depth: depth, Lines: lines}, true
}

// extractPV walks the TT from root along first, then each subsequent
// entry's stored best move, up to maxLen plies. negamax doesn't thread PV
// lines through every node (that would cost an allocation per node); this
// reconstructs the line after the fact from what the search already wrote
// to the table.
func extractPV(t *Thread, first board.Move, maxLen int) []board.Move {
	pv := []board.Move{first}
	if !t.Board.PushMove(first) {
		return pv
	}
	defer t.Board.PopMove()

	seen := map[board.ZobristHash]bool{t.Board.Position().Hash(): true}
	for len(pv) < maxLen {
		res, ok := t.TT.Probe(t.Board.Position().Hash(), 0)
		if !ok || res.Move == board.NoMove {
			break
		}
		if !t.Board.PushMove(res.Move) {
			break
		}
		h := t.Board.Position().Hash()
		if seen[h] {
			t.Board.PopMove()
			break
		}
		seen[h] = true
		pv = append(pv, res.Move)
	}
	for i := len(pv) - 2; i >= 0; i-- {
		t.Board.PopMove()
	}
	return pv
}
