package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kestrelchess/kestrel/pkg/book"
	"github.com/kestrelchess/kestrel/pkg/engine"
	"github.com/kestrelchess/kestrel/pkg/engine/console"
	"github.com/kestrelchess/kestrel/pkg/engine/uci"
	"github.com/kestrelchess/kestrel/pkg/tb"
	"github.com/seekerror/logw"
)

var (
	hash    = flag.Int("hash", 16, "Transposition table size in MB")
	threads = flag.Int("threads", 1, "Number of search workers")
	depth   = flag.Int("depth", 0, "Fixed ply limit (0 = unlimited)")
	multipv = flag.Int("multipv", 1, "Number of ranked lines to report")
	ownbook = flag.Bool("ownbook", false, "Play moves from the built-in opening book")
	seed    = flag.Int64("seed", 1, "Zobrist hashing and book tie-break seed")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: kestrel [options]

KESTREL is a UCI chess engine.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	b, err := book.New(defaultBook)
	if err != nil {
		logw.Exitf(ctx, "Invalid built-in book: %v", err)
	}

	opts := engine.DefaultOptions()
	opts.Hash = *hash
	opts.Threads = *threads
	opts.Depth = *depth
	opts.MultiPV = *multipv
	opts.OwnBook = *ownbook

	e := engine.New(ctx, "kestrel", "kestrelchess",
		engine.WithOptions(opts),
		engine.WithZobrist(*seed),
		engine.WithBook(b),
		engine.WithTablebase(tb.None{}),
	)

	in := readStdin(ctx)
	switch <-in {
	case uci.ProtocolName:
		// Use UCI protocol.

		driver, out := uci.NewDriver(ctx, e, in, uci.WithBookSeed(*seed))
		go writeStdout(ctx, out)

		<-driver.Closed()

	case console.ProtocolName:
		driver, out := console.NewDriver(ctx, e, in)
		go writeStdout(ctx, out)

		<-driver.Closed()

	default:
		flag.Usage()
		logw.Exitf(ctx, "Protocol not supported")
	}
}

// readStdin streams stdin lines to the chosen driver, one command per line.
func readStdin(ctx context.Context) <-chan string {
	ret := make(chan string, 1)
	go func() {
		defer close(ret)

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			logw.Debugf(ctx, "<< %v", scanner.Text())
			ret <- scanner.Text()
		}
	}()
	return ret
}

// writeStdout drains a driver's output chan to stdout until it's closed.
func writeStdout(ctx context.Context, out <-chan string) {
	for line := range out {
		logw.Debugf(ctx, ">> %v", line)
		_, _ = fmt.Fprintln(os.Stdout, line)
	}
}

// defaultBook is a short, hardcoded opening repertoire -- matching
// original_source's own book being a small fixed set of replies rather
// than a Polyglot file (out of spec's core scope).
var defaultBook = []book.Line{
	{"e2e4", "c7c5"},
	{"e2e4", "e7e5"},
	{"e2e4", "e7e6"},
	{"d2d4", "d7d5"},
	{"d2d4", "g8f6"},
	{"c2c4", "e7e5"},
	{"g1f3", "d7d5"},
}
