// Package uci contains a driver for using the engine under the UCI protocol.
//
// See: http://wbec-ridderkerk.nl/html/UCIProtocol.html
// See: https://en.wikipedia.org/wiki/Universal_Chess_Interface
package uci

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/board/fen"
	"github.com/kestrelchess/kestrel/pkg/engine"
	"github.com/kestrelchess/kestrel/pkg/search"
	"github.com/kestrelchess/kestrel/pkg/timectl"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/seekerror/stdlib/pkg/util/iox"
	"go.uber.org/atomic"
)

const ProtocolName = "uci"

// Option is a UCI driver option.
type Option func(*options)

type options struct {
	seed int64
}

// WithBookSeed seeds the random choice among several equally-weighted book
// moves. Defaults to a time-derived seed if never set.
func WithBookSeed(seed int64) Option {
	return func(opt *options) { opt.seed = seed }
}

// Driver implements a UCI driver for an engine. It is activated if sent "uci".
type Driver struct {
	iox.AsyncCloser

	e   *engine.Engine
	opt options
	rnd *rand.Rand

	out chan<- string

	active       atomic.Bool    // user is waiting for engine to move
	ponder       chan search.PV // chan for intermediate search information
	lastPosition string         // last position line (empty if no last position)
}

func NewDriver(ctx context.Context, e *engine.Engine, in <-chan string, opts ...Option) (*Driver, <-chan string) {
	var opt options
	for _, fn := range opts {
		fn(&opt)
	}
	if opt.seed == 0 {
		opt.seed = time.Now().UnixNano()
	}

	out := make(chan string, 100)
	d := &Driver{
		AsyncCloser: iox.NewAsyncCloser(),
		e:           e,
		opt:         opt,
		rnd:         rand.New(rand.NewSource(opt.seed)),
		out:         out,
		ponder:      make(chan search.PV, 400),
	}
	go d.process(ctx, in)

	return d, out
}

func (d *Driver) process(ctx context.Context, in <-chan string) {
	defer d.Close()
	defer close(d.out)

	logw.Infof(ctx, "UCI protocol initialized")

	d.out <- fmt.Sprintf("id name %v", d.e.Name())
	d.out <- fmt.Sprintf("id author %v", d.e.Author())

	d.out <- "option name Hash type spin default 16 min 1 max 1024"
	d.out <- "option name Threads type spin default 1 min 1 max 64"
	d.out <- "option name MoveOverhead type spin default 30 min 0 max 5000"
	d.out <- "option name Contempt type spin default 0 min -100 max 100"
	d.out <- "option name MultiPV type spin default 1 min 1 max 10"
	d.out <- "option name OwnBook type check default false"
	d.out <- "option name BookFile type string default <empty>"
	d.out <- "option name BookLearning type check default false"
	d.out <- "option name BookRandom type check default true"
	d.out <- "option name SyzygyPath type string default <empty>"
	d.out <- "option name UseNNUE type check default false"
	d.out <- "option name EvalFile type string default <empty>"
	d.out <- "option name UCI_Chess960 type check default false"
	d.out <- "option name UCI_AnalyseMode type check default false"
	d.out <- "option name UCI_ShowWDL type check default false"
	d.out <- "option name Aggression type spin default 0 min -100 max 100"
	d.out <- "option name Positional type spin default 0 min -100 max 100"
	d.out <- "option name RiskTaking type spin default 0 min -100 max 100"
	d.out <- "option name DrawAcceptance type spin default 0 min -100 max 100"
	d.out <- "option name TimePressure type spin default 0 min -100 max 100"

	d.out <- "uciok"

	for {
		select {
		case line, ok := <-in:
			if !ok {
				logw.Infof(ctx, "Input stream broken. Exiting")
				return
			}

			parts := strings.Split(strings.TrimSpace(line), " ")
			if len(parts) == 0 {
				break
			}

			cmd := parts[0]
			args := parts[1:]

			switch strings.ToLower(cmd) {
			case "isready":
				d.out <- "readyok"

			case "debug":
				// handled via logw's own level configuration, not per-driver state

			case "setoption":
				name, value := parseSetOption(args)
				d.setOption(ctx, name, value)

			case "register":
				// no registration scheme

			case "ucinewgame":
				d.ensureInactive(ctx)
				d.lastPosition = ""

			case "position":
				d.ensureInactive(ctx)
				d.position(ctx, line, args)

			case "go":
				d.goCmd(ctx, args)

			case "stop":
				pv, err := d.e.Halt(ctx)
				if err == nil {
					d.searchCompleted(ctx, pv)
				}

			case "ponderhit":
				// pondering isn't distinguished from a normal search (§6 Non-goal
				// beyond accepting the "ponder" token); nothing to switch

			case "quit":
				return

			default:
				logw.Warningf(ctx, "Unknown command '%v': %v", cmd, args)
			}

		case pv := <-d.ponder:
			if d.active.Load() {
				d.out <- printPV(pv)
			}

		case <-d.Closed():
			d.ensureInactive(ctx)

			logw.Infof(ctx, "Driver closed")
			return
		}
	}
}

func (d *Driver) position(ctx context.Context, line string, args []string) {
	if d.lastPosition != "" && strings.HasPrefix(line, d.lastPosition) {
		// Continuation of game.

		moves := strings.TrimSpace(strings.TrimPrefix(line, d.lastPosition))
		for _, arg := range strings.Split(moves, " ") {
			if arg == "" || arg == "moves" {
				continue
			}
			if err := d.e.Move(ctx, arg); err != nil {
				logw.Errorf(ctx, "Invalid position move '%v': %v: %v", arg, line, err)
				return
			}
		}

		d.lastPosition = line
		return
	}

	// New position.

	position := fen.Initial
	if len(args) >= 7 && args[0] == "fen" {
		position = strings.Join(args[1:7], " ")
	}

	if err := d.e.Reset(ctx, position); err != nil {
		logw.Errorf(ctx, "Invalid position: %v", line)
		return
	}

	move := false
	for _, arg := range args {
		if arg == "moves" {
			move = true
			continue
		}
		if !move {
			continue
		}
		if err := d.e.Move(ctx, arg); err != nil {
			logw.Errorf(ctx, "Invalid position move '%v': %v: %v", arg, line, err)
			return
		}
	}
	d.lastPosition = line
}

func (d *Driver) goCmd(ctx context.Context, args []string) {
	d.ensureInactive(ctx)

	var opt search.Options
	var limits timectl.Limits

	turn := d.e.Board().Turn()

	for i := 0; i < len(args); i++ {
		cmd := args[i]
		switch cmd {
		case "wtime", "btime", "winc", "binc", "movestogo", "depth", "movetime":
			i++
			if i == len(args) {
				logw.Errorf(ctx, "No argument for %v", cmd)
				return
			}
			n, err := strconv.Atoi(args[i])
			if err != nil {
				logw.Errorf(ctx, "Invalid argument for %v: %v", cmd, err)
				return
			}

			switch cmd {
			case "depth":
				opt.DepthLimit = lang.Some(n)
			case "wtime":
				if turn == board.White {
					limits.Remaining = time.Millisecond * time.Duration(n)
				}
			case "btime":
				if turn == board.Black {
					limits.Remaining = time.Millisecond * time.Duration(n)
				}
			case "winc":
				if turn == board.White {
					limits.Increment = time.Millisecond * time.Duration(n)
				}
			case "binc":
				if turn == board.Black {
					limits.Increment = time.Millisecond * time.Duration(n)
				}
			case "movestogo":
				limits.MovesToGo = n
			case "movetime":
				limits.MoveTime = time.Millisecond * time.Duration(n)
			}

		case "infinite":
			limits.Infinite = true

		case "searchmoves":
			for i+1 < len(args) {
				m, err := board.ParseMove(args[i+1])
				if err != nil {
					break
				}
				opt.SearchMoves = append(opt.SearchMoves, m)
				i++
			}

		case "ponder":
			// pondering is not distinguished from a normal search; the GUI's
			// "ponderhit"/"stop" pair still drives when the move is played

		default:
			// silently ignore anything not handled (currmove/mate/nodes, etc.)
		}
	}

	if limits.Remaining == 0 && limits.MoveTime == 0 && !limits.Infinite {
		// A bare "go" with no time control at all: search until stopped
		// rather than let timectl.Compute treat a zero clock as an
		// almost-expired sudden-death budget.
		limits.Infinite = true
	}

	if moves, err := d.e.Book(ctx); err != nil {
		logw.Errorf(ctx, "Book lookup failed: %v", err)
	} else if len(moves) > 0 {
		winner := moves[d.rnd.Intn(len(moves))]
		pv := search.PV{Lines: []search.Line{{Index: 1, Moves: []board.Move{winner}}}}

		d.active.Store(true)
		d.searchCompleted(ctx, pv)
		return
	}

	out, err := d.e.Analyze(ctx, opt, limits)
	if err != nil {
		logw.Errorf(ctx, "Analyze failed: %v", err)
		return
	}
	d.active.Store(true)

	// Forward ponder info. Complete search when it ends.

	go func() {
		var last search.PV
		for pv := range out {
			last = pv
			d.ponder <- pv
		}
		d.searchCompleted(ctx, last)
	}()
}

// parseSetOption splits a "setoption name <id> [value <x>]" argument list;
// every option this engine supports has a single-token name, so unlike
// some UCI implementations this doesn't need to handle multi-word ids.
func parseSetOption(args []string) (name, value string) {
	var nameParts, valueParts []string
	mode := ""
	for _, a := range args {
		switch a {
		case "name":
			mode = "name"
			continue
		case "value":
			mode = "value"
			continue
		}
		switch mode {
		case "name":
			nameParts = append(nameParts, a)
		case "value":
			valueParts = append(valueParts, a)
		}
	}
	return strings.Join(nameParts, " "), strings.Join(valueParts, " ")
}

func (d *Driver) setOption(ctx context.Context, name, value string) {
	s := d.e.Style()

	switch name {
	case "Hash":
		if n, err := strconv.Atoi(value); err == nil {
			d.e.SetHash(n)
		}
	case "Threads":
		if n, err := strconv.Atoi(value); err == nil {
			d.e.SetThreads(n)
		}
	case "MoveOverhead":
		if n, err := strconv.Atoi(value); err == nil {
			d.e.SetMoveOverhead(time.Millisecond * time.Duration(n))
		}
	case "Contempt":
		if n, err := strconv.Atoi(value); err == nil {
			d.e.SetContempt(n)
		}
	case "MultiPV":
		if n, err := strconv.Atoi(value); err == nil {
			d.e.SetMultiPV(n)
		}
	case "OwnBook":
		if b, err := strconv.ParseBool(value); err == nil {
			d.e.SetOwnBook(b)
		}
	case "Aggression":
		if n, err := strconv.Atoi(value); err == nil {
			s.Aggression = n
			d.e.SetStyle(s)
		}
	case "Positional":
		if n, err := strconv.Atoi(value); err == nil {
			s.Positional = n
			d.e.SetStyle(s)
		}
	case "RiskTaking":
		if n, err := strconv.Atoi(value); err == nil {
			s.RiskTaking = n
			d.e.SetStyle(s)
		}
	case "DrawAcceptance":
		if n, err := strconv.Atoi(value); err == nil {
			s.DrawAcceptance = n
			d.e.SetStyle(s)
		}
	case "TimePressure":
		if n, err := strconv.Atoi(value); err == nil {
			s.TimePressure = n
			d.e.SetStyle(s)
		}
	case "BookFile", "BookLearning", "BookRandom", "SyzygyPath", "UseNNUE", "EvalFile",
		"UCI_Chess960", "UCI_AnalyseMode", "UCI_ShowWDL":
		// accepted, no effect: Polyglot/Syzygy files, NNUE and Chess960
		// castling notation are outside spec's core scope; UCI_ShowWDL is
		// surfaced instead via Engine.ShowWDL and the "wdl" info token.
		logw.Debugf(ctx, "setoption %v has no effect", name)
	default:
		logw.Warningf(ctx, "Unknown option %v", name)
	}
}

func (d *Driver) ensureInactive(ctx context.Context) {
	d.active.Store(false)
	_, _ = d.e.Halt(ctx)
}

func (d *Driver) searchCompleted(ctx context.Context, pv search.PV) {
	if d.active.CAS(true, false) {
		if len(pv.Lines) > 0 {
			d.out <- printPV(pv)
		}

		if m, ok := pv.Best(); ok {
			d.out <- fmt.Sprintf("bestmove %v", m)
		} else {
			d.out <- "bestmove 0000"
		}
	} // else: stale or duplicate result
}

// printPV emits one "info ... multipv N ..." line per reported line, per
// §6's MultiPV requirement; single-PV searches report exactly one line
// with "multipv 1".
func printPV(pv search.PV) string {
	var lines []string
	for _, l := range pv.Lines {
		parts := []string{"info"}
		parts = append(parts, fmt.Sprintf("depth %v", pv.Depth))
		if pv.SelDepth > 0 {
			parts = append(parts, fmt.Sprintf("seldepth %v", pv.SelDepth))
		}
		parts = append(parts, fmt.Sprintf("multipv %v", l.Index))
		parts = append(parts, "score", l.Score.String())
		if pv.Nodes > 0 {
			parts = append(parts, fmt.Sprintf("nodes %v", pv.Nodes))
		}
		if pv.Time > 0 {
			parts = append(parts, fmt.Sprintf("time %v", pv.Time.Milliseconds()))
		}
		if pv.Nodes > 0 && pv.Time > 0 {
			parts = append(parts, fmt.Sprintf("nps %v", uint64(time.Second)*pv.Nodes/uint64(pv.Time)))
		}
		if pv.Hashfull > 0 {
			parts = append(parts, fmt.Sprintf("hashfull %v", pv.Hashfull))
		}
		if len(l.Moves) > 0 {
			parts = append(parts, "pv", formatMoves(l.Moves))
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n")
}

func formatMoves(moves []board.Move) string {
	parts := make([]string, len(moves))
	for i, m := range moves {
		parts[i] = m.String()
	}
	return strings.Join(parts, " ")
}
