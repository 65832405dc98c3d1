package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/kestrelchess/kestrel/pkg/engine"
	"github.com/kestrelchess/kestrel/pkg/search"
	"github.com/kestrelchess/kestrel/pkg/tb"
	"github.com/kestrelchess/kestrel/pkg/timectl"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(ctx context.Context) *engine.Engine {
	opts := engine.DefaultOptions()
	opts.Threads = 2
	opts.Hash = 1
	return engine.New(ctx, "test", "testify",
		engine.WithOptions(opts),
		engine.WithZobrist(1),
		engine.WithTablebase(tb.None{}),
	)
}

func TestEngineResetMoveTakeBack(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(ctx)

	require.NoError(t, e.Move(ctx, "e2e4"))
	assert.Contains(t, e.Position(), "rnbqkbnr/pppppppp")
	require.Error(t, e.Move(ctx, "e2e4"), "e2 is now empty")

	require.NoError(t, e.TakeBack(ctx))
	require.NoError(t, e.Move(ctx, "e2e4"))
}

func TestEngineAnalyzeFindsMateInOne(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(ctx)

	require.NoError(t, e.Reset(ctx, "7k/6pp/8/8/8/8/8/R6K w - - 0 1"))

	opt := search.Options{DepthLimit: lang.Some(3)}
	out, err := e.Analyze(ctx, opt, timectl.Limits{Infinite: true})
	require.NoError(t, err)

	var last search.PV
	for pv := range out {
		last = pv
	}

	best, ok := last.Best()
	require.True(t, ok)
	require.True(t, last.Lines[0].Score.IsMate())
	assert.Equal(t, "a8", best.To().String())
}

func TestEngineHaltWithNoActiveSearchErrors(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(ctx)

	_, err := e.Halt(ctx)
	require.Error(t, err)
}

func TestEngineAnalyzeRejectsConcurrentSearches(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(ctx)

	_, err := e.Analyze(ctx, search.Options{}, timectl.Limits{MoveTime: 200 * time.Millisecond})
	require.NoError(t, err)

	_, err = e.Analyze(ctx, search.Options{}, timectl.Limits{MoveTime: 200 * time.Millisecond})
	require.Error(t, err)

	_, _ = e.Halt(ctx)
}

func TestEngineSetHashAndThreadsRebuildsPool(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(ctx)

	e.SetHash(2)
	e.SetThreads(3)

	require.NoError(t, e.Move(ctx, "e2e4"))
}
