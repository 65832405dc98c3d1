package board_test

import (
	"testing"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/stretchr/testify/assert"
)

func TestBitMaskAndPopCount(t *testing.T) {
	bb := board.BitMask(board.A1) | board.BitMask(board.H8)
	assert.Equal(t, 2, bb.PopCount())
	assert.True(t, bb.Has(board.A1))
	assert.True(t, bb.Has(board.H8))
	assert.False(t, bb.Has(board.D4))
}

func TestBitRankAndBitFile(t *testing.T) {
	assert.Equal(t, 8, board.BitRank(board.Rank1).PopCount())
	assert.Equal(t, 8, board.BitFile(board.FileA).PopCount())
	assert.True(t, board.BitRank(board.Rank1).Has(board.A1))
	assert.True(t, board.BitRank(board.Rank1).Has(board.H1))
	assert.False(t, board.BitRank(board.Rank1).Has(board.A2))
	assert.True(t, board.BitFile(board.FileA).Has(board.A1))
	assert.True(t, board.BitFile(board.FileA).Has(board.A8))
	assert.False(t, board.BitFile(board.FileA).Has(board.B1))
}

func TestPopLsb(t *testing.T) {
	bb := board.BitMask(board.C2) | board.BitMask(board.F6)
	s, rest := bb.PopLsb()
	assert.Equal(t, board.C2, s)
	assert.Equal(t, 1, rest.PopCount())
	assert.True(t, rest.Has(board.F6))
}

func TestKingAttackboardCorner(t *testing.T) {
	attacks := board.KingAttackboard(board.A1)
	assert.Equal(t, 3, attacks.PopCount())
	assert.True(t, attacks.Has(board.B1))
	assert.True(t, attacks.Has(board.A2))
	assert.True(t, attacks.Has(board.B2))
}

func TestKingAttackboardCenter(t *testing.T) {
	attacks := board.KingAttackboard(board.D4)
	assert.Equal(t, 8, attacks.PopCount())
	for _, s := range []board.Square{board.C3, board.C4, board.C5, board.D3, board.D5, board.E3, board.E4, board.E5} {
		assert.True(t, attacks.Has(s), "expected D4 king attack to include %v", s)
	}
}

func TestKnightAttackboardCorner(t *testing.T) {
	attacks := board.KnightAttackboard(board.A1)
	assert.Equal(t, 2, attacks.PopCount())
	assert.True(t, attacks.Has(board.B3))
	assert.True(t, attacks.Has(board.C2))
}

func TestKnightAttackboardCenter(t *testing.T) {
	attacks := board.KnightAttackboard(board.D4)
	assert.Equal(t, 8, attacks.PopCount())
	for _, s := range []board.Square{board.B3, board.B5, board.C2, board.C6, board.E2, board.E6, board.F3, board.F5} {
		assert.True(t, attacks.Has(s), "expected D4 knight attack to include %v", s)
	}
}

func TestRookAttackboardEmptyBoardCorner(t *testing.T) {
	attacks := board.RookAttackboard(board.ZeroBitboard, board.A1)
	assert.Equal(t, 14, attacks.PopCount())
	assert.True(t, attacks.Has(board.A8))
	assert.True(t, attacks.Has(board.H1))
	assert.False(t, attacks.Has(board.B2))
}

func TestRookAttackboardStopsAtBlockerInclusive(t *testing.T) {
	occ := board.BitMask(board.A1) | board.BitMask(board.D1)
	attacks := board.RookAttackboard(occ, board.A1)
	assert.True(t, attacks.Has(board.B1))
	assert.True(t, attacks.Has(board.C1))
	assert.True(t, attacks.Has(board.D1), "blocker itself is included (capturable)")
	assert.False(t, attacks.Has(board.E1), "beyond the blocker is excluded")
}

func TestBishopAttackboardEmptyBoardCenter(t *testing.T) {
	attacks := board.BishopAttackboard(board.ZeroBitboard, board.D4)
	assert.True(t, attacks.Has(board.A1))
	assert.True(t, attacks.Has(board.G7))
	assert.True(t, attacks.Has(board.A7))
	assert.True(t, attacks.Has(board.F2))
	assert.False(t, attacks.Has(board.D5))
}

func TestBishopAttackboardStopsAtBlockerInclusive(t *testing.T) {
	occ := board.BitMask(board.D4) | board.BitMask(board.F6)
	attacks := board.BishopAttackboard(occ, board.D4)
	assert.True(t, attacks.Has(board.E5))
	assert.True(t, attacks.Has(board.F6))
	assert.False(t, attacks.Has(board.G7))
}

func TestQueenAttackboardCombinesRookAndBishop(t *testing.T) {
	attacks := board.QueenAttackboard(board.ZeroBitboard, board.D4)
	assert.True(t, attacks.Has(board.D8))
	assert.True(t, attacks.Has(board.H4))
	assert.True(t, attacks.Has(board.A1))
	assert.True(t, attacks.Has(board.G7))
}

func TestPawnCaptureboardWhite(t *testing.T) {
	attacks := board.PawnCaptureboard(board.White, board.BitMask(board.D4))
	assert.Equal(t, 2, attacks.PopCount())
	assert.True(t, attacks.Has(board.C5))
	assert.True(t, attacks.Has(board.E5))
}

func TestPawnCaptureboardBlack(t *testing.T) {
	attacks := board.PawnCaptureboard(board.Black, board.BitMask(board.D4))
	assert.Equal(t, 2, attacks.PopCount())
	assert.True(t, attacks.Has(board.C3))
	assert.True(t, attacks.Has(board.E3))
}

func TestPawnCaptureboardFileEdges(t *testing.T) {
	white := board.PawnCaptureboard(board.White, board.BitMask(board.A4))
	assert.Equal(t, 1, white.PopCount())
	assert.True(t, white.Has(board.B5))

	black := board.PawnCaptureboard(board.Black, board.BitMask(board.H4))
	assert.Equal(t, 1, black.PopCount())
	assert.True(t, black.Has(board.G3))
}

func TestPawnMoveboard(t *testing.T) {
	assert.True(t, board.PawnMoveboard(board.White, board.BitMask(board.D2)).Has(board.D3))
	assert.True(t, board.PawnMoveboard(board.Black, board.BitMask(board.D7)).Has(board.D6))
}

func TestPawnRanks(t *testing.T) {
	assert.Equal(t, board.Rank2, board.PawnJumpRank(board.White))
	assert.Equal(t, board.Rank7, board.PawnJumpRank(board.Black))
	assert.Equal(t, board.Rank8, board.PawnPromotionRank(board.White))
	assert.Equal(t, board.Rank1, board.PawnPromotionRank(board.Black))
}

func TestBitboardString(t *testing.T) {
	bb := board.BitMask(board.A8) | board.BitMask(board.H1)
	s := bb.String()
	lines := make([]rune, 0)
	for _, r := range s {
		lines = append(lines, r)
	}
	assert.Equal(t, byte('X'), s[0], "a8 is the first char of the top rank")
	assert.Equal(t, byte('X'), s[len(s)-1], "h1 is the last char of the bottom rank")
	_ = lines
}
