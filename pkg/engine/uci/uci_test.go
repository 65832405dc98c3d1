package uci_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kestrelchess/kestrel/pkg/engine"
	"github.com/kestrelchess/kestrel/pkg/engine/uci"
	"github.com/kestrelchess/kestrel/pkg/tb"
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

func drainUntil(t *testing.T, out <-chan string, prefix string, timeout time.Duration) string {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case line, ok := <-out:
			if !ok {
				t.Fatalf("driver closed before seeing a line starting with %q", prefix)
			}
			for _, l := range strings.Split(line, "\n") {
				if strings.HasPrefix(l, prefix) {
					return l
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for a line starting with %q", prefix)
		}
	}
}

func TestUCIHandshake(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(ctx)
	in := make(chan string, 10)

	driver, out := uci.NewDriver(ctx, e, in, uci.WithBookSeed(1))
	defer func() { in <- "quit"; <-driver.Closed() }()

	drainUntil(t, out, "id name", time.Second)
	drainUntil(t, out, "uciok", time.Second)

	in <- "isready"
	drainUntil(t, out, "readyok", time.Second)
}

func TestUCIGoDepthReturnsBestMove(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(ctx)
	in := make(chan string, 10)

	driver, out := uci.NewDriver(ctx, e, in, uci.WithBookSeed(1))
	defer func() { in <- "quit"; <-driver.Closed() }()

	drainUntil(t, out, "uciok", time.Second)

	in <- "position fen 7k/6pp/8/8/8/8/8/R6K w - - 0 1"
	in <- "go depth 3"

	best := drainUntil(t, out, "bestmove", 5*time.Second)
	require.Equal(t, "bestmove a1a8", best)
}

func TestUCISetOptionAdjustsThreadsAndHash(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(ctx)
	in := make(chan string, 10)

	driver, out := uci.NewDriver(ctx, e, in)
	defer func() { in <- "quit"; <-driver.Closed() }()

	drainUntil(t, out, "uciok", time.Second)

	in <- "setoption name Threads value 3"
	in <- "setoption name Hash value 4"
	in <- "isready"
	drainUntil(t, out, "readyok", time.Second)

	require.Equal(t, 3, e.Options().Threads)
	require.Equal(t, 4, e.Options().Hash)
}

func TestUCIStopHaltsActiveSearch(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(ctx)
	in := make(chan string, 10)

	driver, out := uci.NewDriver(ctx, e, in)
	defer func() { in <- "quit"; <-driver.Closed() }()

	drainUntil(t, out, "uciok", time.Second)

	in <- "position startpos"
	in <- "go infinite"
	in <- "stop"

	drainUntil(t, out, "bestmove", 5*time.Second)
}
