package eval_test

import (
	"testing"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/eval"
	"github.com/stretchr/testify/assert"
)

func TestMaterialPSTIsZeroOnSymmetricPosition(t *testing.T) {
	pos := newPosition(t, []board.Placement{
		{Square: board.E1, Color: board.White, Piece: board.King},
		{Square: board.E8, Color: board.Black, Piece: board.King},
		{Square: board.A1, Color: board.White, Piece: board.Rook},
		{Square: board.A8, Color: board.Black, Piece: board.Rook},
	})
	e := eval.NewMaterialPST(0, 0, 0, 1)
	assert.Equal(t, eval.Score(0), e.Evaluate(pos))
}

func TestMaterialPSTFavorsMaterialUp(t *testing.T) {
	pos := newPosition(t, []board.Placement{
		{Square: board.E1, Color: board.White, Piece: board.King},
		{Square: board.E8, Color: board.Black, Piece: board.King},
		{Square: board.A1, Color: board.White, Piece: board.Rook},
		{Square: board.H1, Color: board.White, Piece: board.Rook},
	})
	e := eval.NewMaterialPST(0, 0, 0, 1)
	assert.Greater(t, e.Evaluate(pos), eval.Score(0))
}

func TestMaterialPSTPositionalSliderScalesPSTOnly(t *testing.T) {
	pos := newPosition(t, []board.Placement{
		{Square: board.E1, Color: board.White, Piece: board.King},
		{Square: board.E8, Color: board.Black, Piece: board.King},
		{Square: board.D4, Color: board.White, Piece: board.Knight},
	})
	flat := eval.NewMaterialPST(0, 0, 0, 1)
	boosted := eval.NewMaterialPST(0, 100, 0, 1)
	assert.Greater(t, boosted.Evaluate(pos), flat.Evaluate(pos))
}

func TestMaterialPSTPhaseMatchesMaterialPhase(t *testing.T) {
	pos := newPosition(t, []board.Placement{
		{Square: board.E1, Color: board.White, Piece: board.King},
		{Square: board.E8, Color: board.Black, Piece: board.King},
	})
	e := eval.NewMaterialPST(0, 0, 0, 1)
	assert.Equal(t, eval.Phase(pos), e.Phase(pos))
}
