package pool_test

import (
	"context"
	"testing"
	"time"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/eval"
	"github.com/kestrelchess/kestrel/pkg/pool"
	"github.com/kestrelchess/kestrel/pkg/search"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRootBoard(t *testing.T, placements []board.Placement, turn board.Color) *board.Board {
	t.Helper()
	zt := board.NewZobristTable(board.DefaultZobristSeed)
	pos, err := board.NewPosition(zt, placements, turn, board.ZeroCastling, [4]board.Square{}, board.ZeroSquare, false, 0, 1)
	require.NoError(t, err)
	return board.NewBoard(pos)
}

func TestPoolStartSearchFindsMateInOne(t *testing.T) {
	root := newRootBoard(t, []board.Placement{
		{Square: board.H1, Color: board.White, Piece: board.King},
		{Square: board.A1, Color: board.White, Piece: board.Rook},
		{Square: board.H8, Color: board.Black, Piece: board.King},
		{Square: board.G7, Color: board.Black, Piece: board.Pawn},
		{Square: board.H7, Color: board.Black, Piece: board.Pawn},
	}, board.White)

	ev := eval.NewMaterialPST(0, 0, 0, 1)
	p := pool.New(3, 1, ev)
	defer p.Close()

	deadline := time.Now().Add(5 * time.Second)
	opt := search.Options{DepthLimit: lang.Some(3)}

	res := p.StartSearch(context.Background(), root, opt, deadline, nil)
	best, ok := res.PV.Best()
	require.True(t, ok)
	assert.Equal(t, board.A8, best.To())
	require.True(t, res.PV.Lines[0].Score.IsMate())
}

func TestPoolStartSearchStopsHelpersAfterMainFinishes(t *testing.T) {
	root := newRootBoard(t, []board.Placement{
		{Square: board.E1, Color: board.White, Piece: board.King},
		{Square: board.E8, Color: board.Black, Piece: board.King},
		{Square: board.D1, Color: board.White, Piece: board.Queen},
		{Square: board.A8, Color: board.Black, Piece: board.Rook},
	}, board.White)

	ev := eval.NewMaterialPST(0, 0, 0, 1)
	p := pool.New(4, 1, ev)
	defer p.Close()

	opt := search.Options{DepthLimit: lang.Some(2)}
	res := p.StartSearch(context.Background(), root, opt, time.Time{}, nil)

	_, ok := res.PV.Best()
	require.True(t, ok)
	assert.Greater(t, p.Nodes(), uint64(0))
}
