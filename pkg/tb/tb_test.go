package tb_test

import (
	"testing"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/tb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kvkPosition(t *testing.T) *board.Position {
	t.Helper()
	zt := board.NewZobristTable(board.DefaultZobristSeed)
	pos, err := board.NewPosition(zt, []board.Placement{
		{Square: board.E1, Color: board.White, Piece: board.King},
		{Square: board.E8, Color: board.Black, Piece: board.King},
		{Square: board.A1, Color: board.White, Piece: board.Rook},
	}, board.White, board.ZeroCastling, [4]board.Square{}, board.ZeroSquare, false, 0, 1)
	require.NoError(t, err)
	return pos
}

func TestNoneIsAlwaysUnavailable(t *testing.T) {
	var n tb.None
	assert.False(t, n.Available())
	assert.Equal(t, 0, n.MaxPieces())
	_, ok := n.ProbeWDL(kvkPosition(t))
	assert.False(t, ok)
}

func TestEligibleChecksPieceCount(t *testing.T) {
	pos := kvkPosition(t)
	assert.True(t, tb.Eligible(pos, 5))
	assert.False(t, tb.Eligible(pos, 2))
}

type stubTB struct {
	wdl       tb.WDL
	available bool
}

func (s stubTB) Available() bool    { return s.available }
func (s stubTB) MaxPieces() int     { return 5 }
func (s stubTB) ProbeWDL(*board.Position) (tb.WDL, bool) {
	return s.wdl, true
}
func (s stubTB) ProbeRoot(*board.Position) tb.RootResult {
	return tb.RootResult{WDL: s.wdl, Ok: true}
}

func TestAdapterBumpsStatsOnHit(t *testing.T) {
	stats := &tb.Stats{}
	a := &tb.Adapter{TB: stubTB{wdl: tb.Win, available: true}, Stats: stats}

	score, ok := a.Probe(kvkPosition(t))
	require.True(t, ok)
	assert.Greater(t, int(score), 2000)
	assert.Equal(t, uint64(1), stats.WDLProbes.Load())
	assert.Equal(t, uint64(1), stats.WDLHits.Load())
}

func TestAdapterSkipsIneligiblePosition(t *testing.T) {
	stats := &tb.Stats{}
	// stubTB.MaxPieces() defaults to 5 (kvkPosition has 3 pieces, so that
	// alone would be eligible) -- zeroMaxPiecesTB shrinks coverage to 0 to
	// force ineligibility instead.
	a := &tb.Adapter{TB: zeroMaxPiecesTB{stubTB{wdl: tb.Win, available: true}}, Stats: stats}
	_, ok := a.Probe(kvkPosition(t))
	assert.False(t, ok)
	assert.Equal(t, uint64(0), stats.WDLProbes.Load())
}

type zeroMaxPiecesTB struct{ stubTB }

func (zeroMaxPiecesTB) MaxPieces() int { return 0 }

func TestWDLToScoreOrdering(t *testing.T) {
	assert.Greater(t, int(tb.WDLToScore(tb.Win, 0)), int(tb.WDLToScore(tb.CursedWin, 0)))
	assert.Greater(t, int(tb.WDLToScore(tb.CursedWin, 0)), int(tb.WDLToScore(tb.Draw, 0)))
	assert.Greater(t, int(tb.WDLToScore(tb.Draw, 0)), int(tb.WDLToScore(tb.BlessedLoss, 0)))
	assert.Greater(t, int(tb.WDLToScore(tb.BlessedLoss, 0)), int(tb.WDLToScore(tb.Loss, 0)))
}
