// Package see implements Static Exchange Evaluation: the minimax value of
// the sequence of captures on a single square, used by the move picker and
// quiescence search to prune losing captures without a search.
//
// Grounded on FrankyGo's internal/search/see.go: the gain[] array, the
// attacks-to/revealed-attacks (x-ray) bitboard reconstruction, and the
// backward min-propagation are the same algorithm, adapted to this
// package's board.Position/board.Move types.
package see

import "github.com/kestrelchess/kestrel/pkg/board"

// KingValue is a sentinel far larger than any real material value, per
// spec §4.D's "king=large sentinel" -- it never participates in an actual
// trade (a king is never the last attacker to move, since moving it into
// an attacked square would be illegal) but must still compare larger than
// every other piece for getLeastValuablePiece's ordering to behave.
const KingValue = 20000

// Value returns the centipawn value of a piece for exchange evaluation.
func Value(p board.Piece) int {
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
	case board.King:
		return KingValue
	default:
		return 0
	}
}

// Evaluate returns the static exchange evaluation of move m on pos: the net
// material gain (in centipawns, from the mover's perspective) of playing the
// capture and continuing the exchange on m.To() until no attacker remains.
// pos is read-only.
func Evaluate(pos *board.Position, m board.Move) int {
	if m.IsEnPassant() {
		return Value(board.Pawn)
	}
	if !m.IsCapture() {
		return 0
	}

	to := m.To()
	from := m.From()
	turn := pos.Turn()

	_, movedPiece, _ := pos.PieceAt(from)
	_, victim, _ := pos.PieceAt(to)

	var gain [32]int
	ply := 0
	gain[ply] = Value(victim)

	occupied := pos.Occupancy()
	attackers := attacksTo(pos, to, occupied, board.White) | attacksTo(pos, to, occupied, board.Black)

	side := turn.Opponent()
	for {
		ply++
		if m.IsPromotion() && ply == 1 {
			gain[ply] = Value(m.Promotion()) - Value(board.Pawn) - gain[ply-1]
		} else {
			gain[ply] = Value(movedPiece) - gain[ply-1]
		}

		if max(-gain[ply-1], gain[ply]) < 0 {
			break
		}

		attackers = attackers.Clear(from)
		occupied = occupied.Clear(from)
		attackers |= revealedAttacks(pos, to, occupied, board.White) | revealedAttacks(pos, to, occupied, board.Black)

		next, piece, ok := leastValuableAttacker(pos, attackers, side)
		if !ok {
			break
		}
		from = next
		movedPiece = piece
		side = side.Opponent()
	}

	ply--
	for ply > 0 {
		gain[ply-1] = -max(-gain[ply-1], gain[ply])
		ply--
	}
	return gain[0]
}

// GreaterEqual implements spec §4.D's see_ge(m, t) shortcut, equivalent to
// Evaluate(pos, m) >= threshold but named for call-site clarity.
func GreaterEqual(pos *board.Position, m board.Move, threshold int) bool {
	return Evaluate(pos, m) >= threshold
}

func attacksTo(pos *board.Position, sq board.Square, occupied board.Bitboard, by board.Color) board.Bitboard {
	return (board.PawnCaptureboard(by.Opponent(), board.BitMask(sq)) & pos.Pieces(by, board.Pawn)) |
		(board.KnightAttackboard(sq) & pos.Pieces(by, board.Knight)) |
		(board.KingAttackboard(sq) & pos.Pieces(by, board.King)) |
		(board.RookAttackboard(occupied, sq) & (pos.Pieces(by, board.Rook) | pos.Pieces(by, board.Queen))) |
		(board.BishopAttackboard(occupied, sq) & (pos.Pieces(by, board.Bishop) | pos.Pieces(by, board.Queen)))
}

// revealedAttacks recomputes only the sliding attacks (the sole attack type
// an occupancy change can newly reveal) against the reduced occupancy.
func revealedAttacks(pos *board.Position, sq board.Square, occupied board.Bitboard, by board.Color) board.Bitboard {
	return (board.RookAttackboard(occupied, sq) & (pos.Pieces(by, board.Rook) | pos.Pieces(by, board.Queen)) & occupied) |
		(board.BishopAttackboard(occupied, sq) & (pos.Pieces(by, board.Bishop) | pos.Pieces(by, board.Queen)) & occupied)
}

// leastValuableAttacker returns the square of the cheapest attacker of the
// given color among the candidate bitboard, breaking ties by the lowest
// square index (matching bitboard iteration order elsewhere in this repo).
func leastValuableAttacker(pos *board.Position, candidates board.Bitboard, by board.Color) (board.Square, board.Piece, bool) {
	for _, p := range []board.Piece{board.Pawn, board.Knight, board.Bishop, board.Rook, board.Queen, board.King} {
		if bb := candidates & pos.Pieces(by, p); !bb.Empty() {
			return bb.Lsb(), p, true
		}
	}
	return board.ZeroSquare, board.NoPiece, false
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
