package eval_test

import (
	"testing"

	"github.com/kestrelchess/kestrel/pkg/eval"
	"github.com/stretchr/testify/assert"
)

func TestRandomZeroValueIsAlwaysZero(t *testing.T) {
	var r eval.Random
	for i := 0; i < 10; i++ {
		assert.Equal(t, eval.Score(0), r.Evaluate())
	}
}

func TestRandomStaysWithinLimit(t *testing.T) {
	r := eval.NewRandom(40, 1)
	for i := 0; i < 200; i++ {
		v := r.Evaluate()
		assert.GreaterOrEqual(t, int(v), -20)
		assert.Less(t, int(v), 20)
	}
}

func TestRandomIsDeterministicForSeed(t *testing.T) {
	a := eval.NewRandom(100, 42)
	b := eval.NewRandom(100, 42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Evaluate(), b.Evaluate())
	}
}
