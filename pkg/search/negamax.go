package search

import (
	"context"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/eval"
	"github.com/kestrelchess/kestrel/pkg/picker"
	"github.com/kestrelchess/kestrel/pkg/see"
	"github.com/kestrelchess/kestrel/pkg/tt"
)

// TablebaseProber is the optional tablebase collaborator, §4.J: a non-root
// probe that maps a position within the tablebase's coverage to a
// side-to-move-relative score. A nil TablebaseProber (the default) means
// no tablebase is configured.
type TablebaseProber interface {
	Probe(pos *board.Position) (score eval.Score, ok bool)
}

func isExtreme(s eval.Score) bool {
	return s.IsMate()
}

// futilityMargin grows with depth and widens in the endgame (phase near 0)
// relative to the opening (phase near 256), per §4.H's futility pruning.
func futilityMargin(depth, phase int) int {
	base := 80 + 60*depth
	return base + (256-phase)*base/512
}

func isPawnPushToSeventh(turn board.Color, piece board.Piece, to board.Square) bool {
	if piece != board.Pawn {
		return false
	}
	if turn == board.White {
		return to.Rank() == 6
	}
	return to.Rank() == 1
}

// quietSEE evaluates the exchange on m.To() as if m were a capture there,
// even when the square is currently empty -- the "is this square safe to
// move onto" test §4.H's SEE pruning needs for quiet moves.
func quietSEE(pos *board.Position, m board.Move) int {
	probe := board.NewMove(m.From(), m.To(), m.Promotion(), board.Capture)
	return see.Evaluate(pos, probe)
}

// drawScore returns the contempt-adjusted value of a draw from turn's
// perspective; contempt itself is stored from White's perspective.
func (t *Thread) drawScore(turn board.Color) eval.Score {
	if turn == board.White {
		return -t.contempt
	}
	return t.contempt
}

// isDrawAtNode implements §4.H's draw-detection checklist, evaluated
// before any other work at a non-root node.
func (t *Thread) isDrawAtNode() bool {
	pos := t.Board.Position()
	if pos.HalfMoveClock() >= 100 {
		return true
	}
	if t.Board.IsRepeated() {
		return true
	}
	if pos.HasInsufficientMaterial() {
		return true
	}
	return false
}

// negamax searches depth plies from the current board position and returns
// a score in [alpha, beta] from the side-to-move's perspective, per §4.H's
// negamax invariant. excluded, when not board.NoMove, is skipped in the
// move loop -- used by the singular-extension test to search as though the
// TT move didn't exist.
func (t *Thread) negamax(ctx context.Context, depth, ply int, alpha, beta eval.Score, excluded board.Move) eval.Score {
	if t.enterNode() {
		return alpha
	}
	if ply >= eval.MaxPly-1 {
		return t.Eval.Evaluate(t.Board.Position())
	}
	if ply > t.selDepth {
		t.selDepth = ply
	}

	pv := int(beta)-int(alpha) > 1

	if ply > 0 && excluded == board.NoMove {
		if t.isDrawAtNode() {
			return t.drawScore(t.Board.Turn())
		}
	}

	if depth <= 0 {
		return t.quiescence(ctx, ply, alpha, beta)
	}

	pos := t.Board.Position()
	turn := pos.Turn()

	var ttMove board.Move
	res, found := t.TT.Probe(pos.Hash(), depth)
	if found {
		ttMove = res.Move
		if !pv && excluded == board.NoMove && res.HasScore {
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
		}
	}

	if ply > 0 && excluded == board.NoMove && t.TB != nil {
		if score, ok := t.TB.Probe(pos); ok {
			if score > 2000 || score < -2000 { // decisive: far from a drawish WDL
				t.TT.Store(pos.Hash(), score, board.NoMove, depth+6, tt.Exact)
				return score
			}
		}
	}

	inCheck := pos.IsChecked(turn)
	var staticEval eval.Score
	if !inCheck {
		staticEval = t.Eval.Evaluate(pos)
	}
	t.staticEval[ply] = staticEval

	// Internal iterative deepening: populate a TT move when none is known,
	// so the move loop below still gets a trusted first move to try.
	if ttMove == board.NoMove && excluded == board.NoMove {
		if (pv && depth >= 6) || (!pv && depth >= 8) {
			t.negamax(ctx, depth-2, ply, alpha, beta, board.NoMove)
			if res2, ok2 := t.TT.Probe(pos.Hash(), 0); ok2 {
				ttMove = res2.Move
			}
		}
	}

	if !pv && !inCheck && excluded == board.NoMove {
		// Reverse futility pruning.
		if depth <= 4 && !isExtreme(beta) {
			if int(staticEval)-70*depth >= int(beta) {
				return staticEval
			}
		}

		// Razoring.
		if depth <= 3 && int(staticEval)+300+100*depth < int(alpha) {
			score := t.quiescence(ctx, ply, alpha, alpha+1)
			if score <= alpha {
				return score
			}
		}

		// ProbCut.
		if depth >= 5 && !isExtreme(beta) {
			probBeta := beta + 200
			for _, m := range pickerCaptures(pos) {
				if see.Evaluate(pos, m) < int(probBeta)-int(staticEval) {
					continue
				}
				if !t.Board.PushMove(m) {
					continue
				}
				verify := eval.Propagate(-t.negamax(ctx, depth-4, ply+1, -probBeta, -probBeta+1, board.NoMove))
				t.Board.PopMove()
				if t.stopped.Load() {
					return alpha
				}
				if verify >= probBeta {
					return verify
				}
			}
		}

		// Null move pruning.
		if depth >= 3 && int(staticEval) >= int(beta) && hasNonPawnMaterial(pos, turn) {
			r := 3 + depth/6
			if margin := int(staticEval) - int(beta); margin >= 200 {
				r += margin / 200
			}
			if t.Eval.Phase(pos) < 64 {
				r--
			}
			if r < 1 {
				r = 1
			}
			rdepth := depth - r - 1
			if rdepth < 0 {
				rdepth = 0
			}

			t.Board.PushNullMove()
			score := eval.Propagate(-t.negamax(ctx, rdepth, ply+1, -beta, -beta+1, board.NoMove))
			t.Board.PopNullMove()

			if !t.stopped.Load() && score >= beta {
				if depth > 8 {
					verify := t.negamax(ctx, rdepth, ply, beta-1, beta, board.NoMove)
					if verify >= beta {
						return beta
					}
				} else {
					return beta
				}
			}
		}
	}

	origAlpha := alpha
	bestMove := board.NoMove
	legalMoveCount := 0
	moveIndex := 0

	killers := t.killers.get(ply)
	var counter board.Move
	if prev, ok := t.Board.LastMove(); ok {
		counter = t.counterMove.get(turn, prev)
	}

	quietScore := func(m board.Move) int {
		h := t.history.get(turn, m)
		var ch, fh int
		if ply >= 1 && t.pieceAtPly[ply-1] != board.NoPiece {
			ch = t.counterHistory.get(t.pieceAtPly[ply-1], t.moveAtPly[ply-1].To(), pieceAt(pos, m), m.To())
		}
		if ply >= 2 && t.pieceAtPly[ply-2] != board.NoPiece {
			fh = t.followUpHistory.get(t.pieceAtPly[ply-2], t.moveAtPly[ply-2].To(), pieceAt(pos, m), m.To())
		}
		return h + ch/3 + fh/3
	}

	pk := picker.New(pos, ttMove, killers, counter, quietScore)

	var triedQuiets []board.Move
	type triedCapture struct {
		attacker, victim board.Piece
		to               board.Square
	}
	var triedCaptures []triedCapture

	bound := tt.Exact

	for {
		m, ok := pk.Next()
		if !ok {
			break
		}
		if m == excluded {
			continue
		}
		moveIndex++

		isCapture := m.IsCapture()
		isPromo := m.IsPromotion()
		_, movingPiece, _ := pos.PieceAt(m.From())

		if !pv && !inCheck {
			if depth <= 3 && moveIndex > 1 && !isCapture && !isPromo {
				if int(staticEval)+futilityMargin(depth, t.Eval.Phase(pos)) <= int(alpha) {
					continue
				}
			}
			if depth <= 7 && !isCapture && !isPromo && moveIndex > 3+2*depth*depth {
				continue
			}
			if depth <= 4 && !isCapture && quietSEE(pos, m) < -50*depth {
				continue
			}
		}

		extension := 0
		if inCheck {
			extension = 1
		}
		if m == ttMove && excluded == board.NoMove && found && res.HasScore && depth >= 8 &&
			(res.Flag == tt.Lower || res.Flag == tt.Exact) {
			margin := res.Score - eval.Score(2*depth)
			rdepth := (depth - 1) / 2
			if depth > 10 {
				rdepth = depth - 3
			}
			sScore := t.negamax(ctx, rdepth, ply, margin-1, margin, m)
			if sScore < margin {
				extension = 2
			}
		}
		if extension == 0 && depth < 8 && isCapture {
			if prev, ok := t.Board.LastMove(); ok && prev.To() == m.To() {
				extension = 1
			}
		}
		if isPawnPushToSeventh(turn, movingPiece, m.To()) {
			if extension < 1 {
				extension = 1
			}
		}
		if extension > 2 {
			extension = 2
		}

		if !t.Board.PushMove(m) {
			continue
		}
		legalMoveCount++

		t.moveAtPly[ply] = m
		t.pieceAtPly[ply] = movingPiece

		givesCheck := t.Board.Position().IsChecked(t.Board.Turn())
		newDepth := depth - 1 + extension

		var score eval.Score
		if legalMoveCount == 1 {
			score = eval.Propagate(-t.negamax(ctx, newDepth, ply+1, -beta, -alpha, board.NoMove))
		} else {
			r := 0
			if !isCapture && !isPromo && !givesCheck {
				r = baseReduction(depth, moveIndex)
				hist := quietScore(m)
				r -= hist / 4096
				if pv {
					r--
				}
			}
			if r < 0 {
				r = 0
			}
			if cap := newDepth - 2; r > cap {
				if cap < 0 {
					cap = 0
				}
				r = cap
			}

			score = eval.Propagate(-t.negamax(ctx, newDepth-r, ply+1, -alpha-1, -alpha, board.NoMove))
			if int(score) > int(alpha) && r > 0 {
				score = eval.Propagate(-t.negamax(ctx, newDepth, ply+1, -alpha-1, -alpha, board.NoMove))
			}
			if pv && int(score) > int(alpha) && int(score) < int(beta) {
				score = eval.Propagate(-t.negamax(ctx, newDepth, ply+1, -beta, -alpha, board.NoMove))
			}
		}

		t.Board.PopMove()

		if isCapture {
			_, victim, _ := pos.PieceAt(m.To())
			if m.IsEnPassant() {
				victim = board.Pawn
			}
			triedCaptures = append(triedCaptures, triedCapture{movingPiece, victim, m.To()})
		} else {
			triedQuiets = append(triedQuiets, m)
		}

		if t.stopped.Load() {
			return alpha
		}

		if int(score) > int(alpha) {
			alpha = score
			bestMove = m
		}

		if int(alpha) >= int(beta) {
			bound = tt.Lower
			bonus := depth * depth
			if !isCapture {
				t.killers.add(ply, m)
				t.counterMove.set(turn, t.lastMoveBefore(ply), m)
				t.history.add(turn, m, bonus)
				if ply >= 1 {
					t.counterHistory.add(t.pieceAtPly[ply-1], t.moveAtPly[ply-1].To(), movingPiece, m.To(), bonus)
				}
				if ply >= 2 {
					t.followUpHistory.add(t.pieceAtPly[ply-2], t.moveAtPly[ply-2].To(), movingPiece, m.To(), bonus)
				}
				for _, q := range triedQuiets[:len(triedQuiets)-1] {
					t.history.add(turn, q, -bonus)
				}
			} else {
				_, victim, _ := pos.PieceAt(m.To())
				if m.IsEnPassant() {
					victim = board.Pawn
				}
				t.captures.add(movingPiece, m.To(), victim, bonus)
				for _, c := range triedCaptures[:len(triedCaptures)-1] {
					t.captures.add(c.attacker, c.to, c.victim, -bonus)
				}
			}
			break
		}
	}

	if legalMoveCount == 0 {
		if excluded != board.NoMove {
			// Every move was the excluded one: the singular test's reduced
			// search has nothing left to try, so it simply can't beat the
			// margin -- treat as a fail-low at this window.
			return alpha
		}
		if inCheck {
			return eval.MatedIn(ply)
		}
		return eval.DrawScore
	}

	if bound == tt.Exact {
		if alpha <= origAlpha {
			bound = tt.Upper
		}
	}
	if excluded == board.NoMove {
		t.TT.Store(pos.Hash(), alpha, bestMove, depth, bound)
	}
	return alpha
}

// lastMoveBefore returns the move made immediately before ply's node, i.e.
// the opponent's last move -- the key the counter-move table is indexed by.
func (t *Thread) lastMoveBefore(ply int) board.Move {
	if m, ok := t.Board.LastMove(); ok {
		return m
	}
	return board.NoMove
}

func pieceAt(pos *board.Position, m board.Move) board.Piece {
	_, p, _ := pos.PieceAt(m.From())
	return p
}

func hasNonPawnMaterial(pos *board.Position, c board.Color) bool {
	count := pos.Pieces(c, board.Knight).PopCount() +
		pos.Pieces(c, board.Bishop).PopCount() +
		pos.Pieces(c, board.Rook).PopCount() +
		pos.Pieces(c, board.Queen).PopCount()
	return count >= 2
}

// pickerCaptures returns pos's legal captures for ProbCut's shallow scan;
// ProbCut doesn't need the picker's full staging, just the capture set.
func pickerCaptures(pos *board.Position) []board.Move {
	qp := picker.NewQuiescence(pos, board.NoMove)
	var moves []board.Move
	for {
		m, ok := qp.Next()
		if !ok {
			break
		}
		moves = append(moves, m)
	}
	return moves
}
