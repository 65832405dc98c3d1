package eval

import "github.com/kestrelchess/kestrel/pkg/board"

// NominalValue returns the centipawn material value of a piece, per spec
// §4.D's fixed table (pawn=100 .. queen=900); the king has no material
// value since it is never captured.
func NominalValue(p board.Piece) int {
	switch p {
	case board.Pawn:
		return 100
	case board.Knight:
		return 320
	case board.Bishop:
		return 330
	case board.Rook:
		return 500
	case board.Queen:
		return 900
	default:
		return 0
	}
}

// NominalValueGain is the nominal material gain of playing m on pos (which
// must still be in its pre-move state, since the captured piece is looked
// up by square), used by move ordering (good/bad capture split, §4.C) ahead
// of a full SEE call.
func NominalValueGain(pos *board.Position, m board.Move) int {
	gain := 0
	switch {
	case m.IsEnPassant():
		gain = NominalValue(board.Pawn)
	case m.IsCapture():
		_, captured, _ := pos.PieceAt(m.To())
		gain = NominalValue(captured)
	}
	if m.IsPromotion() {
		gain += NominalValue(m.Promotion()) - NominalValue(board.Pawn)
	}
	return gain
}

// phaseWeight is the classic "material remaining" phase contribution per
// piece type: knight/bishop=1, rook=2, queen=4, summing to 24 at the game's
// start (4N/4B + 4R + 2Q = 4+4+8+8... computed per-side below).
func phaseWeight(p board.Piece) int {
	switch p {
	case board.Knight, board.Bishop:
		return 1
	case board.Rook:
		return 2
	case board.Queen:
		return 4
	default:
		return 0
	}
}

const totalPhaseWeight = 24 // 4*(1+1) + 4*2 + 2*4, summed over both sides

// Phase returns a value in [0,256] where 256 is the opening (full material)
// and 0 is a bare endgame, per spec §4.E. Used by search for phase-aware
// margins and by the evaluator to taper its piece-square tables.
func Phase(pos *board.Position) int {
	weight := 0
	for _, c := range []board.Color{board.White, board.Black} {
		for _, p := range []board.Piece{board.Knight, board.Bishop, board.Rook, board.Queen} {
			weight += pos.Pieces(c, p).PopCount() * phaseWeight(p)
		}
	}
	if weight > totalPhaseWeight {
		weight = totalPhaseWeight
	}
	return (weight*256 + totalPhaseWeight/2) / totalPhaseWeight
}
