package fen_test

import (
	"testing"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/board/fen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	zt := board.NewZobristTable(board.DefaultZobristSeed)

	tests := []string{
		fen.Initial,
		"4k3/2pppp2/8/4P1K1/4PP2/3P4/8/8 w - - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/5P2/PPPPP1PP/RNBQKBNR w KQkq - 0 1",
		"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/1PB1P1b1/P1NP1N2/2P1QPPP/R4RK1 b - b3 0 10",
	}

	for _, tt := range tests {
		p, err := fen.Decode(zt, tt)
		require.NoError(t, err)
		assert.Equal(t, tt, fen.Encode(p))
	}
}

func TestDecodeInitialPosition(t *testing.T) {
	zt := board.NewZobristTable(board.DefaultZobristSeed)
	p, err := fen.Decode(zt, fen.Initial)
	require.NoError(t, err)

	assert.Equal(t, board.White, p.Turn())
	assert.Equal(t, board.FullCastingRights, p.Castling())
	assert.Equal(t, board.A1, p.CastleRookSquare(board.WhiteQueenSideCastle))
	assert.Equal(t, board.H1, p.CastleRookSquare(board.WhiteKingSideCastle))

	_, ep := p.EnPassant()
	assert.False(t, ep)

	_, piece, ok := p.PieceAt(board.E1)
	require.True(t, ok)
	assert.Equal(t, board.King, piece)

	_, piece, ok = p.PieceAt(board.E8)
	require.True(t, ok)
	assert.Equal(t, board.King, piece)
}

func TestDecodeRejectsMalformedFEN(t *testing.T) {
	zt := board.NewZobristTable(board.DefaultZobristSeed)

	_, err := fen.Decode(zt, "not a fen")
	assert.Error(t, err)

	_, err = fen.Decode(zt, "8/8/8/8/8/8/8/8 w - - 0 1") // no kings
	assert.Error(t, err)
}
