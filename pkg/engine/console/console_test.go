package console_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kestrelchess/kestrel/pkg/engine"
	"github.com/kestrelchess/kestrel/pkg/engine/console"
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
			if strings.HasPrefix(line, prefix) {
				return line
			}
		case <-deadline:
			t.Fatalf("timed out waiting for a line starting with %q", prefix)
		}
	}
}

func TestConsolePrintsBoardOnStartup(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(ctx)
	in := make(chan string, 10)

	driver, out := console.NewDriver(ctx, e, in)
	defer func() { in <- "quit"; <-driver.Closed() }()

	drainUntil(t, out, "engine test", time.Second)
	drainUntil(t, out, "fen:", time.Second)
}

func TestConsoleMoveAndUndo(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(ctx)
	in := make(chan string, 10)

	driver, out := console.NewDriver(ctx, e, in)
	defer func() { in <- "quit"; <-driver.Closed() }()

	drainUntil(t, out, "fen:", time.Second)

	in <- "e2e4"
	line := drainUntil(t, out, "fen:", time.Second)
	require.Contains(t, line, "rnbqkbnr/pppppppp")

	in <- "undo"
	line = drainUntil(t, out, "fen:", time.Second)
	require.Contains(t, line, "RNBQKBNR")
}

func TestConsoleInvalidMoveReported(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(ctx)
	in := make(chan string, 10)

	driver, out := console.NewDriver(ctx, e, in)
	defer func() { in <- "quit"; <-driver.Closed() }()

	drainUntil(t, out, "fen:", time.Second)

	in <- "e2e5"
	drainUntil(t, out, "invalid move", time.Second)
}

func TestConsoleAnalyzeReportsBestMove(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(ctx)
	in := make(chan string, 10)

	driver, out := console.NewDriver(ctx, e, in)
	defer func() { in <- "quit"; <-driver.Closed() }()

	drainUntil(t, out, "fen:", time.Second)

	in <- "reset 7k/6pp/8/8/8/8/8/R6K w - - 0 1"
	drainUntil(t, out, "fen:", time.Second)

	in <- "analyze 3"
	drainUntil(t, out, "bestmove a1a8", 5*time.Second)
}

func TestConsoleThreadsAndWDLCommands(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(ctx)
	in := make(chan string, 10)

	driver, out := console.NewDriver(ctx, e, in)
	defer func() { in <- "quit"; <-driver.Closed() }()

	drainUntil(t, out, "fen:", time.Second)

	in <- "threads 3"
	in <- "wdl"
	line := drainUntil(t, out, "wdl", time.Second)
	require.Equal(t, "wdl unknown", line)
	require.Equal(t, 3, e.Options().Threads)
}
