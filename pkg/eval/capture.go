package eval

import (
	"sort"

	"github.com/kestrelchess/kestrel/pkg/board"
)

// FindCapture returns side's pieces that directly attack sq, used to
// evaluate who wins a square in a contested exchange. Grounded in the
// teacher's pkg/eval/capture.go, adapted from the generic
// board.Attackboard(pos.Rotated(), sq, piece) dispatch to this repo's
// per-piece attack functions (no rotated-bitboard representation here).
func FindCapture(pos *board.Position, side board.Color, sq board.Square) []board.Placement {
	var ret []board.Placement
	occ := pos.Occupancy()

	add := func(piece board.Piece, attackers board.Bitboard) {
		for _, from := range attackers.Squares() {
			ret = append(ret, board.Placement{Piece: piece, Color: side, Square: from})
		}
	}

	add(board.Knight, board.KnightAttackboard(sq)&pos.Pieces(side, board.Knight))
	add(board.King, board.KingAttackboard(sq)&pos.Pieces(side, board.King))
	add(board.Bishop, board.BishopAttackboard(occ, sq)&pos.Pieces(side, board.Bishop))
	add(board.Rook, board.RookAttackboard(occ, sq)&pos.Pieces(side, board.Rook))
	add(board.Queen, board.QueenAttackboard(occ, sq)&pos.Pieces(side, board.Queen))
	add(board.Pawn, board.PawnCaptureboard(side.Opponent(), board.BitMask(sq))&pos.Pieces(side, board.Pawn))

	return ret
}

// SortByNominalValue orders the placement list by nominal material value,
// low to high -- the cheapest attacker/defender first, per the standard
// least-valuable-piece capture heuristic.
func SortByNominalValue(pieces []board.Placement) []board.Placement {
	sort.SliceStable(pieces, func(i, j int) bool {
		return NominalValue(pieces[i].Piece) < NominalValue(pieces[j].Piece)
	})
	return pieces
}
