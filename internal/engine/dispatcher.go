package engine

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/skiffchess/skiff/internal/board"
)

// Signals are the process-wide search flags. Stop is observed cooperatively
// by the search loop; Ponder mirrors the ponder flag of the limits currently
// being searched; StopOnPonderhit arms when a pondering search has already
// exhausted its budget, so the next "ponderhit" acts as a stop.
type Signals struct {
	Stop            atomic.Bool
	Ponder          atomic.Bool
	StopOnPonderhit atomic.Bool
}

// Book is probed at the search root when enabled.
type Book interface {
	Probe(pos *board.Position) (board.Move, bool)
}

// Tablebase is probed at the search root when enabled, after the book.
type Tablebase interface {
	Best(pos *board.Position) (board.Move, bool)
}

// job is one queued search request. The position is the dispatcher's own
// copy; the state history is shared with the command loop, which may replace
// its reference while the search still reads this one.
type job struct {
	pos    *board.Position
	limits Limits
	states *board.StateStack
}

// Dispatcher owns the main worker goroutine and the long-lived search state:
// transposition table, move-ordering history and time manager. One command
// thread feeds it; StartThinking is fire-and-forget.
type Dispatcher struct {
	Signals Signals

	// OnLine receives every protocol line the search produces (info,
	// bestmove). The protocol layer points it at its synchronized writer.
	OnLine func(string)

	mu     sync.Mutex
	cond   *sync.Cond
	queued *job
	busy   bool
	closed bool

	tt  *TransTable
	ord *orderer
	tm  *TimeManager

	book    Book
	useBook atomic.Bool

	tb    Tablebase
	useTB atomic.Bool
}

// NewDispatcher creates the dispatcher and starts its main worker.
func NewDispatcher(hashMB int) *Dispatcher {
	d := &Dispatcher{
		tt:  NewTransTable(hashMB),
		ord: newOrderer(),
		tm:  NewTimeManager(),
	}
	d.cond = sync.NewCond(&d.mu)
	go d.mainWorker()
	return d
}

// StartThinking hands a search request to the main worker and returns as
// soon as it is enqueued. A still-running previous search is drained first;
// the protocol requires the controller to stop it before issuing a new "go".
func (d *Dispatcher) StartThinking(pos *board.Position, limits Limits, states *board.StateStack) {
	d.WaitForSearchFinished()

	d.mu.Lock()
	d.Signals.Stop.Store(false)
	d.Signals.StopOnPonderhit.Store(false)
	d.Signals.Ponder.Store(limits.Ponder)
	d.queued = &job{pos: pos.Copy(), limits: limits, states: states}
	d.cond.Broadcast()
	d.mu.Unlock()
}

// Wake forces a possibly parked main worker to re-check its condition. Safe
// to call unconditionally, searching or not.
func (d *Dispatcher) Wake() {
	d.mu.Lock()
	d.cond.Broadcast()
	d.mu.Unlock()
}

// PonderHit converts the in-flight pondering search into a normal-deadline
// search without restarting it.
func (d *Dispatcher) PonderHit() {
	d.Signals.Ponder.Store(false)
	d.Wake()
}

// WaitForSearchFinished blocks until no search is queued or running.
func (d *Dispatcher) WaitForSearchFinished() {
	d.mu.Lock()
	for d.busy || d.queued != nil {
		d.cond.Wait()
	}
	d.mu.Unlock()
}

// Close stops any search and shuts down the main worker.
func (d *Dispatcher) Close() {
	d.Signals.Stop.Store(true)
	d.mu.Lock()
	d.closed = true
	d.cond.Broadcast()
	d.mu.Unlock()
}

// Clear wipes the search caches and the accumulated node budget, for
// "ucinewgame".
func (d *Dispatcher) Clear() {
	d.tt.Clear()
	d.ord.Clear()
	d.tm.ResetNodes()
}

// ResizeHash reallocates the transposition table.
func (d *Dispatcher) ResizeHash(sizeMB int) {
	d.tt.Resize(sizeMB)
}

// SetBook installs an opening book.
func (d *Dispatcher) SetBook(b Book) {
	d.book = b
}

// SetUseBook toggles book probing at the root.
func (d *Dispatcher) SetUseBook(use bool) {
	d.useBook.Store(use)
}

// SetTablebase installs an endgame tablebase prober.
func (d *Dispatcher) SetTablebase(tb Tablebase) {
	d.tb = tb
}

// SetUseTablebase toggles tablebase probing at the root.
func (d *Dispatcher) SetUseTablebase(use bool) {
	d.useTB.Store(use)
}

func (d *Dispatcher) emit(line string) {
	if d.OnLine != nil {
		d.OnLine(line)
	}
}

func (d *Dispatcher) mainWorker() {
	for {
		d.mu.Lock()
		for d.queued == nil && !d.closed {
			d.cond.Wait()
		}
		if d.closed {
			d.mu.Unlock()
			return
		}
		j := d.queued
		d.queued = nil
		d.busy = true
		d.mu.Unlock()

		d.think(j)

		d.mu.Lock()
		d.busy = false
		d.cond.Broadcast()
		d.mu.Unlock()
	}
}

// think runs one search request to completion and emits its bestmove.
func (d *Dispatcher) think(j *job) {
	stm := j.pos.SideToMove()
	ply := (j.pos.FullMove()-1)*2 + int(stm)
	d.tm.Init(&j.limits, stm, ply)
	d.tt.NewSearch()

	if !j.limits.Infinite && !j.limits.Ponder && len(j.limits.SearchMoves) == 0 {
		if d.useBook.Load() && d.book != nil {
			if m, ok := d.book.Probe(j.pos); ok {
				d.emit("info string book move")
				d.emit("bestmove " + board.MoveString(m))
				return
			}
		}
		if d.useTB.Load() && d.tb != nil {
			if m, ok := d.tb.Best(j.pos); ok {
				d.emit("info string tablebase move")
				d.emit("bestmove " + board.MoveString(m))
				return
			}
		}
	}

	s := &searcher{
		pos:     j.pos,
		limits:  &j.limits,
		tt:      d.tt,
		ord:     d.ord,
		tm:      d.tm,
		signals: &d.Signals,
		keyHist: j.states.Keys(),
	}
	if n := len(s.keyHist); n == 0 || s.keyHist[n-1] != j.pos.Key() {
		s.keyHist = append(s.keyHist, j.pos.Key())
	}

	best, ponderMove := s.iterate(func(info SearchInfo) {
		d.emit(formatInfo(info))
	})
	d.tm.ConsumeNodes(s.nodes)

	// A search that exhausts its limits while pondering or in infinite mode
	// must not answer before the controller releases it.
	if !d.Signals.Stop.Load() && (d.Signals.Ponder.Load() || j.limits.Infinite) {
		if d.Signals.Ponder.Load() {
			d.Signals.StopOnPonderhit.Store(true)
		}
		d.mu.Lock()
		for !d.Signals.Stop.Load() && (d.Signals.Ponder.Load() || j.limits.Infinite) {
			d.cond.Wait()
		}
		d.mu.Unlock()
	}

	msg := "bestmove " + board.MoveString(best)
	if best != board.NoMove && ponderMove != board.NoMove {
		msg += " ponder " + board.MoveString(ponderMove)
	}
	d.emit(msg)
}

// formatInfo renders one iteration report as a UCI info line.
func formatInfo(info SearchInfo) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("info depth %d", info.Depth))

	if info.Score >= MateScore-MaxPly {
		parts = append(parts, fmt.Sprintf("score mate %d", (MateScore-info.Score+1)/2))
	} else if info.Score <= -MateScore+MaxPly {
		parts = append(parts, fmt.Sprintf("score mate %d", -(MateScore+info.Score+1)/2))
	} else {
		parts = append(parts, fmt.Sprintf("score cp %d", info.Score))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}
	if len(info.PV) > 0 {
		moves := make([]string, len(info.PV))
		for i, m := range info.PV {
			moves[i] = board.MoveString(m)
		}
		parts = append(parts, "pv "+strings.Join(moves, " "))
	}
	return strings.Join(parts, " ")
}
