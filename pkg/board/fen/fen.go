// Package fen contains utilities for reading and writing positions in FEN
// notation, including the Shredder-FEN file-letter castling variant used by
// Chess960 setups.
package fen

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/kestrelchess/kestrel/pkg/board"
)

const (
	Initial = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
)

// Decode returns a new position from a FEN description.
//
// Example:
//
//	"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
func Decode(zt *board.ZobristTable, fen string) (*board.Position, error) {
	parts := strings.Split(strings.TrimSpace(fen), " ")
	if len(parts) != 6 {
		return nil, fmt.Errorf("invalid number of sections in FEN: '%v'", fen)
	}

	// (1) Piece placement (from white's perspective). Each rank is described,
	// starting with rank 8 and ending with rank 1; within each rank, the
	// contents of each square are described from file a through file h.

	var placements []board.Placement

	rank, file := board.Rank8, board.FileA
	ranks := 1
	for _, r := range []rune(parts[0]) {
		switch {
		case r == '/':
			if file != board.NumFiles {
				return nil, fmt.Errorf("invalid rank length in FEN: '%v'", fen)
			}
			rank--
			file = board.FileA
			ranks++

		case unicode.IsDigit(r):
			file += board.File(r - '0')

		case unicode.IsLetter(r):
			if file >= board.NumFiles {
				return nil, fmt.Errorf("rank overflow in FEN: '%v'", fen)
			}
			color, piece, ok := parsePiece(r)
			if !ok {
				return nil, fmt.Errorf("invalid piece '%v' in FEN: '%v'", r, fen)
			}
			placements = append(placements, board.Placement{Square: board.NewSquare(file, rank), Color: color, Piece: piece})
			file++

		default:
			return nil, fmt.Errorf("invalid character in FEN: '%v'", fen)
		}
	}
	if ranks != int(board.NumRanks) || file != board.NumFiles {
		return nil, fmt.Errorf("invalid number of squares in FEN: '%v'", fen)
	}

	// (2) Active color. "w" means white moves next, "b" means black.

	active, ok := parseColor(parts[1])
	if !ok {
		return nil, fmt.Errorf("invalid active color in FEN: '%v'", fen)
	}

	// (3) Castling availability: "-", or one or more of "KQkq" (standard) or
	// Shredder-FEN file letters (960), normalised to rights + rook squares
	// using the parsed king positions.

	castling, castleRook, err := parseCastling(parts[2], placements)
	if err != nil {
		return nil, fmt.Errorf("invalid castling in FEN '%v': %w", fen, err)
	}

	// (4) En passant target square. "-" if none.

	var ep board.Square
	hasEP := false
	if parts[3] != "-" {
		sq, err := board.ParseSquareStr(parts[3])
		if err != nil {
			return nil, fmt.Errorf("invalid en passant in FEN: '%v'", fen)
		}
		ep = sq
		hasEP = true
	}

	// (5) Halfmove clock.

	hm, err := strconv.Atoi(parts[4])
	if err != nil || hm < 0 {
		return nil, fmt.Errorf("invalid halfmove in FEN: '%v'", fen)
	}

	// (6) Fullmove number.

	fm, err := strconv.Atoi(parts[5])
	if err != nil || fm < 0 {
		return nil, fmt.Errorf("invalid full moves in FEN: '%v'", fen)
	}

	return board.NewPosition(zt, placements, active, castling, castleRook, ep, hasEP, hm, fm)
}

// Encode encodes the position in FEN notation.
func Encode(pos *board.Position) string {
	var sb strings.Builder
	for r := board.Rank8; ; r-- {
		blanks := 0
		for f := board.ZeroFile; f < board.NumFiles; f++ {
			color, piece, ok := pos.PieceAt(board.NewSquare(f, r))
			if !ok {
				blanks++
				continue
			}
			if blanks > 0 {
				sb.WriteString(strconv.Itoa(blanks))
				blanks = 0
			}
			sb.WriteRune(printPiece(color, piece))
		}
		if blanks > 0 {
			sb.WriteString(strconv.Itoa(blanks))
		}
		if r == board.Rank1 {
			break
		}
		sb.WriteString("/")
	}

	turn := printColor(pos.Turn())
	castling := printCastling(pos.Castling())

	ep := "-"
	if sq, ok := pos.EnPassant(); ok {
		ep = sq.String()
	}

	return fmt.Sprintf("%v %v %v %v %v %v", sb.String(), turn, castling, ep, pos.HalfMoveClock(), pos.FullMoveNumber())
}

func kingSquare(placements []board.Placement, c board.Color) (board.Square, bool) {
	for _, pl := range placements {
		if pl.Color == c && pl.Piece == board.King {
			return pl.Square, true
		}
	}
	return board.ZeroSquare, false
}

func parseCastling(str string, placements []board.Placement) (board.Castling, [4]board.Square, error) {
	var rights board.Castling
	var rook [4]board.Square

	if str == "-" {
		return rights, rook, nil
	}

	set := func(right board.Castling, sq board.Square) {
		rights |= right
		rook[board.CastlingRightIndex(right)] = sq
	}

	for _, r := range []rune(str) {
		switch r {
		case 'K':
			set(board.WhiteKingSideCastle, board.H1)
		case 'Q':
			set(board.WhiteQueenSideCastle, board.A1)
		case 'k':
			set(board.BlackKingSideCastle, board.H8)
		case 'q':
			set(board.BlackQueenSideCastle, board.A8)
		default:
			// Shredder-FEN file letter: uppercase is White (rank 1), lowercase Black (rank 8).
			f, ok := board.ParseFile(r)
			if !ok {
				return 0, rook, fmt.Errorf("invalid castling char '%v'", r)
			}
			isWhite := unicode.IsUpper(r)
			c := board.Black
			rank := board.Rank8
			if isWhite {
				c = board.White
				rank = board.Rank1
			}
			king, ok := kingSquare(placements, c)
			if !ok {
				return 0, rook, fmt.Errorf("castling right for %v with no king on board", c)
			}
			sq := board.NewSquare(f, rank)
			if f > king.File() {
				if c == board.White {
					set(board.WhiteKingSideCastle, sq)
				} else {
					set(board.BlackKingSideCastle, sq)
				}
			} else {
				if c == board.White {
					set(board.WhiteQueenSideCastle, sq)
				} else {
					set(board.BlackQueenSideCastle, sq)
				}
			}
		}
	}
	return rights, rook, nil
}

func printCastling(c board.Castling) string {
	if c == 0 {
		return "-"
	}
	ret := ""
	if c.IsAllowed(board.WhiteKingSideCastle) {
		ret += "K"
	}
	if c.IsAllowed(board.WhiteQueenSideCastle) {
		ret += "Q"
	}
	if c.IsAllowed(board.BlackKingSideCastle) {
		ret += "k"
	}
	if c.IsAllowed(board.BlackQueenSideCastle) {
		ret += "q"
	}
	return ret
}

func parseColor(str string) (board.Color, bool) {
	switch str {
	case "w", "W":
		return board.White, true
	case "b", "B":
		return board.Black, true
	default:
		return 0, false
	}
}

func printColor(c board.Color) string {
	if c == board.White {
		return "w"
	}
	return "b"
}

func parsePiece(r rune) (board.Color, board.Piece, bool) {
	switch r {
	case 'P':
		return board.White, board.Pawn, true
	case 'B':
		return board.White, board.Bishop, true
	case 'N':
		return board.White, board.Knight, true
	case 'R':
		return board.White, board.Rook, true
	case 'Q':
		return board.White, board.Queen, true
	case 'K':
		return board.White, board.King, true

	case 'p':
		return board.Black, board.Pawn, true
	case 'b':
		return board.Black, board.Bishop, true
	case 'n':
		return board.Black, board.Knight, true
	case 'r':
		return board.Black, board.Rook, true
	case 'q':
		return board.Black, board.Queen, true
	case 'k':
		return board.Black, board.King, true

	default:
		return 0, 0, false
	}
}

func printPiece(c board.Color, p board.Piece) rune {
	if c == board.White {
		switch p {
		case board.Pawn:
			return 'P'
		case board.Bishop:
			return 'B'
		case board.Knight:
			return 'N'
		case board.Rook:
			return 'R'
		case board.Queen:
			return 'Q'
		case board.King:
			return 'K'
		default:
			return '?'
		}
	}

	switch p {
	case board.Pawn:
		return 'p'
	case board.Bishop:
		return 'b'
	case board.Knight:
		return 'n'
	case board.Rook:
		return 'r'
	case board.Queen:
		return 'q'
	case board.King:
		return 'k'
	default:
		return '?'
	}
}
