package eval_test

import (
	"testing"

	"github.com/kestrelchess/kestrel/pkg/eval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMateInIsRecognizedAsMate(t *testing.T) {
	s := eval.MateIn(3)
	assert.True(t, s.IsMate())
	ply, ok := s.MateIn()
	require.True(t, ok)
	assert.Equal(t, 2, ply) // (3+1)/2 == 2 full moves
}

func TestMatedInIsNegativeMate(t *testing.T) {
	s := eval.MatedIn(4)
	assert.True(t, s.IsMate())
	ply, ok := s.MateIn()
	assert.True(t, ok)
	assert.Less(t, ply, 0)
}

func TestDrawScoreIsNotMate(t *testing.T) {
	assert.False(t, eval.DrawScore.IsMate())
	_, ok := eval.DrawScore.MateIn()
	assert.False(t, ok)
}

func TestPropagateShrinksMateTowardZero(t *testing.T) {
	mate := eval.MateIn(0)
	shrunk := eval.Propagate(mate)
	assert.Equal(t, mate-1, shrunk)

	mated := eval.MatedIn(0)
	grown := eval.Propagate(mated)
	assert.Equal(t, mated+1, grown)
}

func TestPropagateLeavesNonMateScoresUnchanged(t *testing.T) {
	assert.Equal(t, eval.Score(42), eval.Propagate(eval.Score(42)))
	assert.Equal(t, eval.Score(0), eval.Propagate(eval.Score(0)))
}

func TestCropClampsToRange(t *testing.T) {
	assert.Equal(t, eval.MaxScore, eval.Crop(eval.Score(32767)))
	assert.Equal(t, eval.MinScore, eval.Crop(eval.Score(-32768)))
	assert.Equal(t, eval.Score(17), eval.Crop(eval.Score(17)))
}
