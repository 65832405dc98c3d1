package board_test

import (
	"testing"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/stretchr/testify/require"
)

func newTestZobrist() *board.ZobristTable {
	return board.NewZobristTable(board.DefaultZobristSeed)
}

func startPosition(t *testing.T) *board.Position {
	t.Helper()
	zt := newTestZobrist()

	var placements []board.Placement
	backrank := []board.Piece{board.Rook, board.Knight, board.Bishop, board.Queen, board.King, board.Bishop, board.Knight, board.Rook}
	for f := board.ZeroFile; f < board.NumFiles; f++ {
		placements = append(placements,
			board.Placement{Square: board.NewSquare(f, board.Rank1), Color: board.White, Piece: backrank[f]},
			board.Placement{Square: board.NewSquare(f, board.Rank2), Color: board.White, Piece: board.Pawn},
			board.Placement{Square: board.NewSquare(f, board.Rank7), Color: board.Black, Piece: board.Pawn},
			board.Placement{Square: board.NewSquare(f, board.Rank8), Color: board.Black, Piece: backrank[f]},
		)
	}
	castleRook := [4]board.Square{board.H1, board.A1, board.H8, board.A8}
	pos, err := board.NewPosition(zt, placements, board.White, board.FullCastingRights, castleRook, board.ZeroSquare, false, 0, 1)
	require.NoError(t, err)
	return pos
}

func TestApplyUndoRoundTrip(t *testing.T) {
	pos := startPosition(t)
	before := pos.Hash()

	moves := []board.Move{
		board.NewMove(board.E2, board.E4, board.NoPiece, board.Quiet),
		board.NewMove(board.E7, board.E5, board.NoPiece, board.Quiet),
		board.NewMove(board.G1, board.F3, board.NoPiece, board.Quiet),
		board.NewMove(board.B8, board.C6, board.NoPiece, board.Quiet),
	}

	var undos []board.UndoRecord
	for _, m := range moves {
		undos = append(undos, pos.Apply(m))
	}
	require.NotEqual(t, before, pos.Hash())

	for i := len(moves) - 1; i >= 0; i-- {
		pos.Undo(moves[i], undos[i])
	}
	require.Equal(t, before, pos.Hash())
}

func TestApplyCapture(t *testing.T) {
	zt := newTestZobrist()
	pos, err := board.NewPosition(zt, []board.Placement{
		{Square: board.A1, Color: board.White, Piece: board.King},
		{Square: board.H8, Color: board.Black, Piece: board.King},
		{Square: board.D4, Color: board.White, Piece: board.Rook},
		{Square: board.D7, Color: board.Black, Piece: board.Pawn},
	}, board.White, board.ZeroCastling, [4]board.Square{}, board.ZeroSquare, false, 0, 1)
	require.NoError(t, err)

	before := pos.Hash()
	m := board.NewMove(board.D4, board.D7, board.NoPiece, board.Capture)
	u := pos.Apply(m)
	require.Equal(t, board.Pawn, u.CapturedPiece)
	_, p, ok := pos.PieceAt(board.D7)
	require.True(t, ok)
	require.Equal(t, board.Rook, p)
	_, _, ok = pos.PieceAt(board.D4)
	require.False(t, ok)

	pos.Undo(m, u)
	require.Equal(t, before, pos.Hash())
	_, p, ok = pos.PieceAt(board.D7)
	require.True(t, ok)
	require.Equal(t, board.Pawn, p)
}

func TestApplyEnPassant(t *testing.T) {
	zt := newTestZobrist()
	pos, err := board.NewPosition(zt, []board.Placement{
		{Square: board.A1, Color: board.White, Piece: board.King},
		{Square: board.H8, Color: board.Black, Piece: board.King},
		{Square: board.E5, Color: board.White, Piece: board.Pawn},
		{Square: board.D5, Color: board.Black, Piece: board.Pawn},
	}, board.White, board.ZeroCastling, [4]board.Square{}, board.D6, true, 0, 1)
	require.NoError(t, err)

	before := pos.Hash()
	m := board.NewMove(board.E5, board.D6, board.NoPiece, board.EnPassant)
	u := pos.Apply(m)
	require.Equal(t, board.Pawn, u.CapturedPiece)
	_, _, ok := pos.PieceAt(board.D5)
	require.False(t, ok, "captured pawn removed from its actual square, not the EP target")
	_, _, ok = pos.PieceAt(board.D6)
	require.True(t, ok)

	pos.Undo(m, u)
	require.Equal(t, before, pos.Hash())
	_, p, ok := pos.PieceAt(board.D5)
	require.True(t, ok)
	require.Equal(t, board.Pawn, p)
}

func TestApplyCastleKingSide(t *testing.T) {
	zt := newTestZobrist()
	pos, err := board.NewPosition(zt, []board.Placement{
		{Square: board.E1, Color: board.White, Piece: board.King},
		{Square: board.H1, Color: board.White, Piece: board.Rook},
		{Square: board.E8, Color: board.Black, Piece: board.King},
	}, board.White, board.WhiteKingSideCastle, [4]board.Square{board.H1, board.ZeroSquare, board.ZeroSquare, board.ZeroSquare}, board.ZeroSquare, false, 0, 1)
	require.NoError(t, err)

	before := pos.Hash()
	m := board.NewMove(board.E1, board.H1, board.NoPiece, board.Castle)
	u := pos.Apply(m)

	_, p, ok := pos.PieceAt(board.G1)
	require.True(t, ok)
	require.Equal(t, board.King, p)
	_, p, ok = pos.PieceAt(board.F1)
	require.True(t, ok)
	require.Equal(t, board.Rook, p)
	require.False(t, pos.Castling().IsAllowed(board.WhiteKingSideCastle))

	pos.Undo(m, u)
	require.Equal(t, before, pos.Hash())
	_, p, ok = pos.PieceAt(board.E1)
	require.True(t, ok)
	require.Equal(t, board.King, p)
	require.True(t, pos.Castling().IsAllowed(board.WhiteKingSideCastle))
}

func TestApplyPromotion(t *testing.T) {
	zt := newTestZobrist()
	pos, err := board.NewPosition(zt, []board.Placement{
		{Square: board.A1, Color: board.White, Piece: board.King},
		{Square: board.H8, Color: board.Black, Piece: board.King},
		{Square: board.D7, Color: board.White, Piece: board.Pawn},
	}, board.White, board.ZeroCastling, [4]board.Square{}, board.ZeroSquare, false, 0, 1)
	require.NoError(t, err)

	before := pos.Hash()
	m := board.NewMove(board.D7, board.D8, board.Queen, board.Quiet)
	u := pos.Apply(m)
	_, p, ok := pos.PieceAt(board.D8)
	require.True(t, ok)
	require.Equal(t, board.Queen, p)

	pos.Undo(m, u)
	require.Equal(t, before, pos.Hash())
	_, p, ok = pos.PieceAt(board.D7)
	require.True(t, ok)
	require.Equal(t, board.Pawn, p)
}

func TestIsChecked(t *testing.T) {
	zt := newTestZobrist()
	pos, err := board.NewPosition(zt, []board.Placement{
		{Square: board.E1, Color: board.White, Piece: board.King},
		{Square: board.E8, Color: board.Black, Piece: board.Rook},
	}, board.White, board.ZeroCastling, [4]board.Square{}, board.ZeroSquare, false, 0, 1)
	require.NoError(t, err)
	require.True(t, pos.IsChecked(board.White))
	require.False(t, pos.IsChecked(board.Black))
}

func TestHasInsufficientMaterial(t *testing.T) {
	zt := newTestZobrist()
	pos, err := board.NewPosition(zt, []board.Placement{
		{Square: board.A1, Color: board.White, Piece: board.King},
		{Square: board.H8, Color: board.Black, Piece: board.King},
		{Square: board.B1, Color: board.White, Piece: board.Knight},
	}, board.White, board.ZeroCastling, [4]board.Square{}, board.ZeroSquare, false, 0, 1)
	require.NoError(t, err)
	require.True(t, pos.HasInsufficientMaterial())

	pos2, err := board.NewPosition(zt, []board.Placement{
		{Square: board.A1, Color: board.White, Piece: board.King},
		{Square: board.H8, Color: board.Black, Piece: board.King},
		{Square: board.D4, Color: board.White, Piece: board.Rook},
	}, board.White, board.ZeroCastling, [4]board.Square{}, board.ZeroSquare, false, 0, 1)
	require.NoError(t, err)
	require.False(t, pos2.HasInsufficientMaterial())
}
