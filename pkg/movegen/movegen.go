// Package movegen generates pseudo-legal and legal moves for a board.Position.
//
// The teacher's own pkg/board.Position.PseudoLegalMoves was never finished
// (a commented-out sketch returning nil), so this package's generation shape
// is grounded instead in the broader corpus: dragontoothmg and chego's
// per-piece bitboard loops and the UnderFlaw C engine's movegen.c, which all
// follow the same "attack set minus own occupancy, split by enemy occupancy"
// pattern this file implements.
package movegen

import "github.com/kestrelchess/kestrel/pkg/board"

// GenerateAll returns every pseudo-legal move for the side to move: quiet
// moves and captures, including castling and en passant. Legality (does the
// move leave the mover's own king in check) is not checked -- see IsLegal.
func GenerateAll(pos *board.Position) []board.Move {
	moves := make([]board.Move, 0, 48)
	moves = genPawnMoves(pos, moves, true)
	moves = genKnightMoves(pos, moves, true)
	moves = genBishopMoves(pos, moves, true)
	moves = genRookMoves(pos, moves, true)
	moves = genQueenMoves(pos, moves, true)
	moves = genKingMoves(pos, moves, true)
	moves = genCastling(pos, moves)
	return moves
}

// GenerateCaptures returns every pseudo-legal capturing move (including en
// passant and capture-promotions to every piece), used by quiescence
// search. Promotions that capture nothing are not included.
func GenerateCaptures(pos *board.Position) []board.Move {
	moves := make([]board.Move, 0, 16)
	moves = genPawnMoves(pos, moves, false)
	moves = genKnightMoves(pos, moves, false)
	moves = genBishopMoves(pos, moves, false)
	moves = genRookMoves(pos, moves, false)
	moves = genQueenMoves(pos, moves, false)
	moves = genKingMoves(pos, moves, false)
	return moves
}

// IsLegal reports whether the pseudo-legal move m may be played: applying it
// must not leave the mover's own king in check. This is the same
// apply-check-undo pattern the original engine's movegen_is_legal uses.
func IsLegal(pos *board.Position, m board.Move) bool {
	mover := pos.Turn()
	u := pos.Apply(m)
	legal := !pos.IsChecked(mover)
	pos.Undo(m, u)
	return legal
}

// GenerateLegal returns every legal move, filtering GenerateAll through IsLegal.
func GenerateLegal(pos *board.Position) []board.Move {
	all := GenerateAll(pos)
	legal := all[:0:0]
	for _, m := range all {
		if IsLegal(pos, m) {
			legal = append(legal, m)
		}
	}
	return legal
}

// HasLegalMove reports whether the side to move has at least one legal move,
// without building the full move list -- used to detect checkmate/stalemate
// cheaply.
func HasLegalMove(pos *board.Position) bool {
	for _, m := range GenerateAll(pos) {
		if IsLegal(pos, m) {
			return true
		}
	}
	return false
}

var promotionPieces = [4]board.Piece{board.Queen, board.Rook, board.Bishop, board.Knight}

func addPawnMove(moves []board.Move, from, to board.Square, flag board.MoveFlag, promotionRank board.Rank) []board.Move {
	if to.Rank() == promotionRank {
		for _, p := range promotionPieces {
			moves = append(moves, board.NewMove(from, to, p, flag))
		}
		return moves
	}
	return append(moves, board.NewMove(from, to, board.NoPiece, flag))
}

func genPawnMoves(pos *board.Position, moves []board.Move, withQuiets bool) []board.Move {
	turn := pos.Turn()
	pawns := pos.Pieces(turn, board.Pawn)
	occ := pos.Occupancy()
	empty := ^occ
	enemies := pos.ColorOccupancy(turn.Opponent())
	promotionRank := board.PawnPromotionRank(turn)

	if withQuiets {
		singleTargets := board.PawnMoveboard(turn, pawns) & empty
		for _, to := range singleTargets.Squares() {
			from := backOneRank(turn, to)
			moves = addPawnMove(moves, from, to, board.Quiet, promotionRank)
		}

		jumpers := pawns & board.BitRank(board.PawnJumpRank(turn))
		singleFromJumpers := board.PawnMoveboard(turn, jumpers) & empty
		doubleTargets := board.PawnMoveboard(turn, singleFromJumpers) & empty
		for _, to := range doubleTargets.Squares() {
			from := backOneRank(turn, backOneRank(turn, to))
			moves = append(moves, board.NewMove(from, to, board.NoPiece, board.Quiet))
		}
	}

	for _, from := range pawns.Squares() {
		targets := board.PawnCaptureboard(turn, board.BitMask(from)) & enemies
		for _, to := range targets.Squares() {
			moves = addPawnMove(moves, from, to, board.Capture, promotionRank)
		}
	}

	if ep, ok := pos.EnPassant(); ok {
		attackers := board.PawnCaptureboard(turn.Opponent(), board.BitMask(ep)) & pawns
		for _, from := range attackers.Squares() {
			moves = append(moves, board.NewMove(from, ep, board.NoPiece, board.EnPassant))
		}
	}

	return moves
}

func backOneRank(c board.Color, sq board.Square) board.Square {
	if c == board.White {
		s, _ := sq.Add(0, -1)
		return s
	}
	s, _ := sq.Add(0, 1)
	return s
}

func addTargets(moves []board.Move, from board.Square, targets, enemies board.Bitboard, withQuiets bool) []board.Move {
	for _, to := range targets.Squares() {
		if enemies.Has(to) {
			moves = append(moves, board.NewMove(from, to, board.NoPiece, board.Capture))
		} else if withQuiets {
			moves = append(moves, board.NewMove(from, to, board.NoPiece, board.Quiet))
		}
	}
	return moves
}

func genKnightMoves(pos *board.Position, moves []board.Move, withQuiets bool) []board.Move {
	turn := pos.Turn()
	own := pos.ColorOccupancy(turn)
	enemies := pos.ColorOccupancy(turn.Opponent())
	for _, from := range pos.Pieces(turn, board.Knight).Squares() {
		targets := board.KnightAttackboard(from) &^ own
		moves = addTargets(moves, from, targets, enemies, withQuiets)
	}
	return moves
}

func genBishopMoves(pos *board.Position, moves []board.Move, withQuiets bool) []board.Move {
	turn := pos.Turn()
	own := pos.ColorOccupancy(turn)
	enemies := pos.ColorOccupancy(turn.Opponent())
	occ := pos.Occupancy()
	for _, from := range pos.Pieces(turn, board.Bishop).Squares() {
		targets := board.BishopAttackboard(occ, from) &^ own
		moves = addTargets(moves, from, targets, enemies, withQuiets)
	}
	return moves
}

func genRookMoves(pos *board.Position, moves []board.Move, withQuiets bool) []board.Move {
	turn := pos.Turn()
	own := pos.ColorOccupancy(turn)
	enemies := pos.ColorOccupancy(turn.Opponent())
	occ := pos.Occupancy()
	for _, from := range pos.Pieces(turn, board.Rook).Squares() {
		targets := board.RookAttackboard(occ, from) &^ own
		moves = addTargets(moves, from, targets, enemies, withQuiets)
	}
	return moves
}

func genQueenMoves(pos *board.Position, moves []board.Move, withQuiets bool) []board.Move {
	turn := pos.Turn()
	own := pos.ColorOccupancy(turn)
	enemies := pos.ColorOccupancy(turn.Opponent())
	occ := pos.Occupancy()
	for _, from := range pos.Pieces(turn, board.Queen).Squares() {
		targets := board.QueenAttackboard(occ, from) &^ own
		moves = addTargets(moves, from, targets, enemies, withQuiets)
	}
	return moves
}

func genKingMoves(pos *board.Position, moves []board.Move, withQuiets bool) []board.Move {
	turn := pos.Turn()
	kings := pos.Pieces(turn, board.King)
	if kings.Empty() {
		return moves
	}
	from := kings.Lsb()
	own := pos.ColorOccupancy(turn)
	enemies := pos.ColorOccupancy(turn.Opponent())
	targets := board.KingAttackboard(from) &^ own
	return addTargets(moves, from, targets, enemies, withQuiets)
}

// genCastling appends the castling moves currently available for the side to
// move. The recorded rook origin square for each right is used directly
// (Chess960-safe); legality follows the original engine's three conditions:
// the travel squares (king and rook, excluding their own origins) must be
// empty, the king must not be in check, and it must not cross or land on an
// attacked square.
func genCastling(pos *board.Position, moves []board.Move) []board.Move {
	turn := pos.Turn()
	kings := pos.Pieces(turn, board.King)
	if kings.Empty() {
		return moves
	}
	kingFrom := kings.Lsb()

	var rights [2]board.Castling
	if turn == board.White {
		rights = [2]board.Castling{board.WhiteKingSideCastle, board.WhiteQueenSideCastle}
	} else {
		rights = [2]board.Castling{board.BlackKingSideCastle, board.BlackQueenSideCastle}
	}

	for _, right := range rights {
		if !pos.Castling().IsAllowed(right) {
			continue
		}
		rookFrom := pos.CastleRookSquare(right)
		if _, piece, ok := pos.PieceAt(rookFrom); !ok || piece != board.Rook {
			continue
		}

		kingTo, rookTo := castleDestinations(kingFrom, rookFrom)
		if !castlePathClear(pos, kingFrom, kingTo, rookFrom, rookTo) {
			continue
		}
		if !castleKingPathSafe(pos, turn, kingFrom, kingTo) {
			continue
		}

		moves = append(moves, board.NewMove(kingFrom, rookFrom, board.NoPiece, board.Castle))
	}
	return moves
}

func castleDestinations(kingFrom, rookFrom board.Square) (kingTo, rookTo board.Square) {
	rank := kingFrom.Rank()
	if rookFrom.File() > kingFrom.File() {
		return board.NewSquare(board.FileG, rank), board.NewSquare(board.FileF, rank)
	}
	return board.NewSquare(board.FileC, rank), board.NewSquare(board.FileD, rank)
}

// squareRangeMask returns the bitboard of all squares on a's rank between a
// and b, inclusive.
func squareRangeMask(a, b board.Square) board.Bitboard {
	rank := a.Rank()
	lo, hi := a.File(), b.File()
	if lo > hi {
		lo, hi = hi, lo
	}
	var bb board.Bitboard
	for f := lo; f <= hi; f++ {
		bb = bb.Set(board.NewSquare(f, rank))
	}
	return bb
}

func castlePathClear(pos *board.Position, kingFrom, kingTo, rookFrom, rookTo board.Square) bool {
	path := squareRangeMask(kingFrom, kingTo) | squareRangeMask(rookFrom, rookTo)
	path = path.Clear(kingFrom).Clear(rookFrom)
	return pos.Occupancy()&path == 0
}

// castleKingPathSafe verifies the king is not in check, does not pass
// through an attacked square, and does not land on one. Uses the current
// occupancy (king still on its origin square) to probe each transit square,
// the same simplification the reference engine's inline attack check makes.
func castleKingPathSafe(pos *board.Position, turn board.Color, kingFrom, kingTo board.Square) bool {
	enemy := turn.Opponent()
	step := 1
	if kingTo.File() < kingFrom.File() {
		step = -1
	}
	for f := int(kingFrom.File()); ; f += step {
		sq := board.NewSquare(board.File(f), kingFrom.Rank())
		if pos.IsSquareAttacked(sq, enemy) {
			return false
		}
		if f == int(kingTo.File()) {
			break
		}
	}
	return true
}
