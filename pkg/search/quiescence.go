package search

import (
	"context"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/eval"
	"github.com/kestrelchess/kestrel/pkg/picker"
	"github.com/kestrelchess/kestrel/pkg/see"
	"github.com/kestrelchess/kestrel/pkg/tt"
)

// deltaMargin is quiescence's delta-pruning cushion: a queen's worth of
// material, per §4.H, past which even the largest plausible capture
// couldn't recover alpha.
const deltaMargin = 900

// quiescence extends the search along captures only, until the position is
// "quiet" (no good captures remain), per §4.H. It returns a score in
// [alpha, beta] from the side-to-move's perspective.
func (t *Thread) quiescence(ctx context.Context, ply int, alpha, beta eval.Score) eval.Score {
	if t.enterQuiescenceNode() {
		return alpha
	}
	if ply >= eval.MaxPly-1 {
		return t.Eval.Evaluate(t.Board.Position())
	}
	if ply > t.selDepth {
		t.selDepth = ply
	}

	pos := t.Board.Position()

	var ttMove board.Move
	if res, found := t.TT.Probe(pos.Hash(), 0); found && res.HasScore {
		switch res.Flag {
		case tt.Exact:
			return res.Score
		case tt.Lower:
			if res.Score >= beta {
				return res.Score
			}
		case tt.Upper:
			if res.Score <= alpha {
				return res.Score
			}
		}
		if res.Move.IsCapture() {
			ttMove = res.Move
		}
	}

	standPat := t.Eval.Evaluate(pos)
	if standPat >= beta {
		return standPat
	}
	if int(standPat)+deltaMargin < int(alpha) {
		return standPat
	}
	if standPat > alpha {
		alpha = standPat
	}

	bestMove := board.NoMove
	pk := picker.NewQuiescence(pos, ttMove)

	for {
		m, ok := pk.Next()
		if !ok {
			break
		}
		if !see.GreaterEqual(pos, m, 0) {
			continue
		}
		if !t.Board.PushMove(m) {
			continue
		}
		score := eval.Propagate(-t.quiescence(ctx, ply+1, -beta, -alpha))
		t.Board.PopMove()

		if t.stopped.Load() {
			return alpha
		}

		if int(score) > int(alpha) {
			alpha = score
			bestMove = m
			if int(alpha) >= int(beta) {
				break
			}
		}
	}

	flag := tt.Upper
	if bestMove != board.NoMove {
		flag = tt.Exact
	}
	if int(alpha) >= int(beta) {
		flag = tt.Lower
	}
	t.TT.Store(pos.Hash(), alpha, bestMove, 0, flag)
	return alpha
}
