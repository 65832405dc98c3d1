package eval_test

import (
	"testing"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/eval"
	"github.com/stretchr/testify/assert"
)

func TestFindCaptureCollectsAllAttackerTypes(t *testing.T) {
	pos := newPosition(t, []board.Placement{
		{Square: board.H1, Color: board.White, Piece: board.King},
		{Square: board.H8, Color: board.Black, Piece: board.King},
		{Square: board.D1, Color: board.White, Piece: board.Rook},
		{Square: board.A4, Color: board.White, Piece: board.Bishop},
		{Square: board.D3, Color: board.White, Piece: board.Pawn},
		{Square: board.C5, Color: board.White, Piece: board.Knight},
	})
	attackers := eval.FindCapture(pos, board.White, board.D4)

	var pieces []board.Piece
	for _, pl := range attackers {
		pieces = append(pieces, pl.Piece)
	}
	assert.ElementsMatch(t, []board.Piece{board.Rook, board.Bishop, board.Pawn, board.Knight}, pieces)
}

func TestFindCaptureEmptyWhenUndefended(t *testing.T) {
	pos := newPosition(t, []board.Placement{
		{Square: board.H1, Color: board.White, Piece: board.King},
		{Square: board.H8, Color: board.Black, Piece: board.King},
		{Square: board.A1, Color: board.White, Piece: board.Rook},
	})
	attackers := eval.FindCapture(pos, board.White, board.D4)
	assert.Empty(t, attackers)
}

func TestSortByNominalValueOrdersLowToHigh(t *testing.T) {
	pieces := []board.Placement{
		{Piece: board.Queen},
		{Piece: board.Pawn},
		{Piece: board.Rook},
	}
	sorted := eval.SortByNominalValue(pieces)
	assert.Equal(t, []board.Piece{board.Pawn, board.Rook, board.Queen}, []board.Piece{
		sorted[0].Piece, sorted[1].Piece, sorted[2].Piece,
	})
}
