// Package uci implements the UCI command interpreter: one persistent
// position, a state history for repetition detection, the option registry
// and the hand-off of search requests to the engine dispatcher.
package uci

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/skiffchess/skiff/internal/board"
	"github.com/skiffchess/skiff/internal/book"
	"github.com/skiffchess/skiff/internal/engine"
	"github.com/skiffchess/skiff/internal/tablebase"
)

// Engine identification, reported on "uci".
const (
	Name    = "Skiff"
	Version = "1.0"
	Author  = "the Skiff developers"
)

// UCI is the protocol handler. One control thread calls Dispatch one line at
// a time; no handler blocks on a running search.
type UCI struct {
	pos     *board.Position
	states  *board.StateStack
	d       *engine.Dispatcher
	options *Options
	out     *Printer

	bk *book.Book
	tb *tablebase.Prober
}

// New creates a protocol handler writing responses to w. The dispatcher's
// output is routed through the same synchronized writer.
func New(d *engine.Dispatcher, w io.Writer) *UCI {
	u := &UCI{
		pos:     board.NewPosition(),
		states:  board.NewStateStack(),
		d:       d,
		options: NewOptions(),
		out:     NewPrinter(w),
	}
	d.OnLine = func(line string) { u.out.Println(line) }
	u.registerOptions()
	return u
}

// Options exposes the option registry, for startup configuration.
func (u *UCI) Options() *Options {
	return u.options
}

func (u *UCI) registerOptions() {
	u.options.Register("Hash", &Option{
		Type: SpinOption, Default: "64", Min: 1, Max: 4096,
		OnChange: func(o *Option) {
			if mb, err := strconv.Atoi(o.Value()); err == nil {
				u.d.ResizeHash(mb)
			}
		},
	})
	u.options.Register("Clear Hash", &Option{
		Type:     ButtonOption,
		OnChange: func(*Option) { u.d.Clear() },
	})
	u.options.Register("Ponder", &Option{Type: CheckOption, Default: "false"})
	u.options.Register("Move Overhead", &Option{Type: SpinOption, Default: "30", Min: 0, Max: 5000})
	u.options.Register("Nodes Time", &Option{Type: SpinOption, Default: "0", Min: 0, Max: 10000})
	u.options.Register("OwnBook", &Option{
		Type: CheckOption, Default: "false",
		OnChange: func(o *Option) { u.d.SetUseBook(o.Value() == "true") },
	})
	u.options.Register("Book Path", &Option{
		Type:     StringOption,
		OnChange: func(o *Option) { u.openBook(o.Value()) },
	})
	u.options.Register("UseOnlineTablebase", &Option{
		Type: CheckOption, Default: "false",
		OnChange: func(o *Option) {
			use := o.Value() == "true"
			if use && u.tb == nil {
				u.tb = tablebase.New()
				u.d.SetTablebase(u.tb)
			}
			u.d.SetUseTablebase(use)
		},
	})
	for _, vo := range board.Variants() {
		u.options.Register(vo.Name, &Option{Type: CheckOption, Default: "false"})
	}
}

func (u *UCI) openBook(path string) {
	if u.bk != nil {
		u.bk.Close()
		u.bk = nil
		u.d.SetBook(nil)
	}
	if path == "" || path == "<empty>" {
		return
	}
	bk, err := book.Open(path)
	if err != nil {
		u.out.Println("info string could not open book at " + path + ": " + err.Error())
		return
	}
	u.bk = bk
	u.d.SetBook(bk)
}

// Run reads commands line by line until "quit" or end of input.
func (u *UCI) Run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if !u.Dispatch(scanner.Text()) {
			break
		}
	}
	u.d.WaitForSearchFinished()
	if u.bk != nil {
		u.bk.Close()
	}
}

// Dispatch tokenizes one command line and routes it. It returns false once
// the loop should exit. Blank lines are ignored; this engine treats an empty
// command as a no-op rather than reporting it as unknown.
func (u *UCI) Dispatch(line string) bool {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return true
	}
	cmd, args := tokens[0], tokens[1:]

	switch cmd {
	case "quit", "stop":
		// The main worker could be parked; the nudge is idempotent.
		u.d.Signals.Stop.Store(true)
		u.d.Wake()
		return cmd != "quit"

	case "ponderhit":
		if u.d.Signals.StopOnPonderhit.Load() {
			u.d.Signals.Stop.Store(true)
			u.d.Wake()
		} else {
			u.d.PonderHit() // switch to normal search
		}

	case "uci":
		block := []string{fmt.Sprintf("id name %s %s", Name, Version), "id author " + Author, ""}
		block = append(block, u.options.Dump()...)
		block = append(block, "uciok")
		u.out.Println(block...)

	case "ucinewgame":
		u.d.Clear()

	case "isready":
		u.out.Println("readyok")

	case "go":
		limits := parseGo(u.pos, args)
		limits.MoveOverhead = time.Duration(u.options.GetInt("Move Overhead")) * time.Millisecond
		limits.NodesTime = u.options.GetInt("Nodes Time")
		u.d.StartThinking(u.pos, limits, u.states)

	case "position":
		u.parsePosition(args)

	case "setoption":
		u.setOption(args)

	case "flip":
		u.pos.Flip()

	case "d":
		u.out.Println(u.pos.String())

	case "eval":
		u.out.Println(engine.Trace(u.pos))

	default:
		u.out.Println("Unknown command: " + line)
	}
	return true
}

// parsePosition installs a new board state. Variant flags are rebuilt from
// the current option values on every call, never cached. An unrecognized
// first token leaves the position and the state history untouched. Move
// replay stops silently at the first token that is not a legal move.
func (u *UCI) parsePosition(args []string) {
	var flags board.Variant
	for _, vo := range board.Variants() {
		if u.options.GetBool(vo.Name) {
			flags |= vo.Flag
		}
	}

	if len(args) == 0 {
		return
	}

	var fen string
	i := 0
	switch args[0] {
	case "startpos":
		fen = board.StartingFEN(flags)
		i = 1
		if i < len(args) && args[i] == "moves" {
			i++
		}
	case "fen":
		i = 1
		for i < len(args) && args[i] != "moves" {
			i++
		}
		fen = strings.Join(args[1:i], " ")
		if i < len(args) {
			i++ // consume "moves"
		}
	default:
		return
	}

	if err := u.pos.Set(fen, flags); err != nil {
		u.out.Println("info string " + err.Error())
		return
	}

	// A fresh history; a previous stack still referenced by an in-flight
	// search stays alive through that reference.
	u.states = board.NewStateStack()

	for ; i < len(args); i++ {
		m := board.ParseMove(u.pos, args[i])
		if m == board.NoMove {
			break
		}
		var st board.StateInfo
		u.pos.DoMove(m, &st)
		u.states.Push(st)
	}
}

// parseGo translates "go" sub-tokens into search limits. The start time is
// captured before any token is consumed. "searchmoves" greedily takes every
// remaining token as an attempted move, so it cannot be followed by other
// keywords; unknown tokens elsewhere are skipped without error.
func parseGo(pos *board.Position, args []string) engine.Limits {
	var limits engine.Limits
	limits.StartTime = time.Now() // as early as possible

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "searchmoves":
			for i++; i < len(args); i++ {
				if m := board.ParseMove(pos, args[i]); m != board.NoMove {
					limits.SearchMoves = append(limits.SearchMoves, m)
				}
			}
		case "wtime":
			i++
			limits.Time[board.White] = goMillis(args, i)
		case "btime":
			i++
			limits.Time[board.Black] = goMillis(args, i)
		case "winc":
			i++
			limits.Inc[board.White] = goMillis(args, i)
		case "binc":
			i++
			limits.Inc[board.Black] = goMillis(args, i)
		case "movestogo":
			i++
			limits.MovesToGo = goInt(args, i)
		case "depth":
			i++
			limits.Depth = goInt(args, i)
		case "nodes":
			i++
			limits.Nodes = uint64(goInt(args, i))
		case "movetime":
			i++
			limits.MoveTime = goMillis(args, i)
		case "mate":
			i++
			limits.Mate = goInt(args, i)
		case "infinite":
			limits.Infinite = true
		case "ponder":
			limits.Ponder = true
		}
	}
	return limits
}

func goInt(args []string, i int) int {
	if i >= len(args) {
		return 0
	}
	v, _ := strconv.Atoi(args[i])
	return v
}

func goMillis(args []string, i int) time.Duration {
	return time.Duration(goInt(args, i)) * time.Millisecond
}

// setOption applies a "setoption" command: the literal "name" token, the
// space-joined option name up to an optional literal "value", and the
// space-joined value after it. An unregistered name is reported and never
// creates an entry.
func (u *UCI) setOption(args []string) {
	i := 0
	if i < len(args) {
		i++ // consume "name"
	}
	nameStart := i
	for i < len(args) && args[i] != "value" {
		i++
	}
	name := strings.Join(args[nameStart:i], " ")
	if i < len(args) {
		i++ // consume "value"
	}
	value := strings.Join(args[i:], " ")

	if !u.options.Set(name, value) {
		u.out.Println("No such option: " + name)
	}
}
