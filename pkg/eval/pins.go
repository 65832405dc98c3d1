package eval

import "github.com/kestrelchess/kestrel/pkg/board"

// Pin is a pinned piece: Pinned cannot move off the Attacker-Target line
// without exposing Target to Attacker.
type Pin struct {
	Attacker, Pinned, Target board.Square
}

// FindPins returns all pins targeting side's pieces of the given type (pass
// board.King to find pins against the king). Grounded in the teacher's
// pkg/eval/pins.go, adapted from the rotated-bitboard occupancy
// (pos.Rotated().Xor(pinned)) to this repo's plain occupancy bitboard
// (pos.Occupancy().Clear(pinned)) -- same "remove the candidate, see what
// new attacker the ray reveals" technique, just without the rotation.
func FindPins(pos *board.Position, side board.Color, piece board.Piece) []Pin {
	var ret []Pin

	occ := pos.Occupancy()
	own := pos.ColorOccupancy(side)
	enemy := side.Opponent()

	for _, target := range pos.Pieces(side, piece).Squares() {
		rookRay := board.RookAttackboard(occ, target)
		for _, pinned := range (rookRay & own).Squares() {
			attackers := pos.Pieces(enemy, board.Queen) | pos.Pieces(enemy, board.Rook)
			revealed := board.RookAttackboard(occ.Clear(pinned), target) &^ rookRay & attackers
			if !revealed.Empty() {
				ret = append(ret, Pin{Attacker: revealed.Lsb(), Pinned: pinned, Target: target})
			}
		}

		bishopRay := board.BishopAttackboard(occ, target)
		for _, pinned := range (bishopRay & own).Squares() {
			attackers := pos.Pieces(enemy, board.Queen) | pos.Pieces(enemy, board.Bishop)
			revealed := board.BishopAttackboard(occ.Clear(pinned), target) &^ bishopRay & attackers
			if !revealed.Empty() {
				ret = append(ret, Pin{Attacker: revealed.Lsb(), Pinned: pinned, Target: target})
			}
		}
	}

	return ret
}
