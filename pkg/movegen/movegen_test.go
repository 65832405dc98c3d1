package movegen_test

import (
	"testing"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/board/fen"
	"github.com/kestrelchess/kestrel/pkg/movegen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, f string) *board.Position {
	t.Helper()
	zt := board.NewZobristTable(board.DefaultZobristSeed)
	pos, err := fen.Decode(zt, f)
	require.NoError(t, err)
	return pos
}

func TestGenerateAllCountOnKnownPosition(t *testing.T) {
	// http://www.talkchess.com/forum3/viewtopic.php?t=48616
	pos := decode(t, "r4rk1/1pp1qppp/p1np1n2/2b1p1B1/1PB1P1b1/P1NP1N2/2P1QPPP/R4RK1 b - b3 0 10")
	moves := movegen.GenerateAll(pos)
	assert.Len(t, moves, 45)
}

func TestPerftStartingPosition(t *testing.T) {
	pos := decode(t, fen.Initial)

	assert.Equal(t, uint64(20), movegen.Perft(pos, 1))
	assert.Equal(t, uint64(400), movegen.Perft(pos, 2))
	assert.Equal(t, uint64(8902), movegen.Perft(pos, 3))
}

func TestPerftKiwipete(t *testing.T) {
	// The canonical "Kiwipete" perft-stress position: exercises castling,
	// promotions and en passant all at once.
	pos := decode(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")

	assert.Equal(t, uint64(48), movegen.Perft(pos, 1))
	assert.Equal(t, uint64(2039), movegen.Perft(pos, 2))
}

func TestGenerateAllIncludesCastling(t *testing.T) {
	pos := decode(t, fen.Initial)
	pos.Apply(board.NewMove(board.E2, board.E4, board.NoPiece, board.Quiet))
	pos.Apply(board.NewMove(board.E7, board.E5, board.NoPiece, board.Quiet))
	pos.Apply(board.NewMove(board.G1, board.F3, board.NoPiece, board.Quiet))
	pos.Apply(board.NewMove(board.B8, board.C6, board.NoPiece, board.Quiet))
	pos.Apply(board.NewMove(board.F1, board.C4, board.NoPiece, board.Quiet))
	pos.Apply(board.NewMove(board.G8, board.F6, board.NoPiece, board.Quiet))

	var found bool
	for _, m := range movegen.GenerateAll(pos) {
		if m.IsCastle() {
			found = true
		}
	}
	assert.True(t, found, "expected a castling move to be generated after clearing f1/g1")
}

func TestGenerateAllIncludesEnPassant(t *testing.T) {
	pos := decode(t, "rnbqkbnr/ppp1pppp/8/8/3pP3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 3")
	var found bool
	for _, m := range movegen.GenerateAll(pos) {
		if m.IsEnPassant() {
			require.Equal(t, board.D4, m.From())
			require.Equal(t, board.E3, m.To())
			found = true
		}
	}
	assert.True(t, found, "expected an en passant capture")
}

func TestGenerateAllExpandsPromotions(t *testing.T) {
	pos := decode(t, "8/P7/8/8/8/8/8/k6K w - - 0 1")
	moves := movegen.GenerateAll(pos)

	promos := map[board.Piece]bool{}
	for _, m := range moves {
		if m.From() == board.A7 && m.To() == board.A8 {
			promos[m.Promotion()] = true
		}
	}
	assert.Len(t, promos, 4)
	assert.True(t, promos[board.Queen])
	assert.True(t, promos[board.Rook])
	assert.True(t, promos[board.Bishop])
	assert.True(t, promos[board.Knight])
}

func TestIsLegalAcceptsMovesThatKeepKingShielded(t *testing.T) {
	zt := board.NewZobristTable(board.DefaultZobristSeed)
	pos, err := board.NewPosition(zt, []board.Placement{
		{Square: board.E1, Color: board.White, Piece: board.King},
		{Square: board.E2, Color: board.White, Piece: board.Pawn},
		{Square: board.E8, Color: board.Black, Piece: board.Rook},
	}, board.White, board.ZeroCastling, [4]board.Square{}, board.ZeroSquare, false, 0, 1)
	require.NoError(t, err)

	pinned := board.NewMove(board.E2, board.E3, board.NoPiece, board.Quiet)
	assert.True(t, movegen.IsLegal(pos, pinned)) // still blocks the file

	sideStep := board.NewMove(board.E1, board.D1, board.NoPiece, board.Quiet)
	assert.True(t, movegen.IsLegal(pos, sideStep))
}

func TestGenerateCapturesOmitsQuiets(t *testing.T) {
	pos := decode(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	for _, m := range movegen.GenerateCaptures(pos) {
		assert.True(t, m.IsCapture())
	}
	assert.NotEmpty(t, movegen.GenerateCaptures(pos))
}

func TestHasLegalMoveDetectsCheckmate(t *testing.T) {
	// Fool's mate final position: white to move, checkmated.
	pos := decode(t, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	assert.False(t, movegen.HasLegalMove(pos))
}

func TestHasLegalMoveStalemate(t *testing.T) {
	pos := decode(t, "k7/8/1Q6/8/8/8/8/7K b - - 0 1")
	assert.False(t, pos.IsChecked(board.Black))
	assert.False(t, movegen.HasLegalMove(pos))
}
