package engine

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/skiffchess/skiff/internal/board"
)

// lineCollector gathers dispatcher output for inspection after the search
// has been drained.
type lineCollector struct {
	mu    sync.Mutex
	lines []string
}

func (c *lineCollector) add(line string) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
}

func (c *lineCollector) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func (c *lineCollector) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.lines) == 0 {
		return ""
	}
	return c.lines[len(c.lines)-1]
}

func searchPosition(t *testing.T, fen string, limits Limits) *lineCollector {
	t.Helper()
	d := NewDispatcher(1)
	t.Cleanup(d.Close)
	col := &lineCollector{}
	d.OnLine = col.add

	pos := board.NewPosition()
	if fen != board.StartFEN {
		if err := pos.Set(fen, board.Standard); err != nil {
			t.Fatal(err)
		}
	}
	d.StartThinking(pos, limits, board.NewStateStack())
	d.WaitForSearchFinished()
	return col
}

func TestSearchFindsMateInOne(t *testing.T) {
	col := searchPosition(t, "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1", Limits{Depth: 3})
	if got := col.last(); !strings.HasPrefix(got, "bestmove a1a8") {
		t.Errorf("expected back-rank mate, got %q", got)
	}
	var sawMateScore bool
	for _, l := range col.all() {
		if strings.Contains(l, "score mate 1") {
			sawMateScore = true
		}
	}
	if !sawMateScore {
		t.Error("iteration reports should announce mate 1")
	}
}

func TestSearchAvoidsIllegalBestmove(t *testing.T) {
	col := searchPosition(t, board.StartFEN, Limits{Depth: 2})
	last := col.last()
	if !strings.HasPrefix(last, "bestmove ") {
		t.Fatalf("no bestmove emitted, got %q", last)
	}
	token := strings.Fields(last)[1]
	pos := board.NewPosition()
	if board.ParseMove(pos, token) == board.NoMove {
		t.Errorf("bestmove %q is not legal in the searched position", token)
	}
}

func TestSearchHonorsSearchMoves(t *testing.T) {
	pos := board.NewPosition()
	only := board.ParseMove(pos, "a2a3")
	col := searchPosition(t, board.StartFEN, Limits{Depth: 2, SearchMoves: []board.Move{only}})
	if got := col.last(); got != "bestmove a2a3" && !strings.HasPrefix(got, "bestmove a2a3 ") {
		t.Errorf("search restricted to a2a3 answered %q", got)
	}
}

func TestSearchNodeLimit(t *testing.T) {
	col := searchPosition(t, board.StartFEN, Limits{Nodes: 2000})
	if !strings.HasPrefix(col.last(), "bestmove ") {
		t.Errorf("node-limited search must still answer, got %q", col.last())
	}
}

func TestStalematePosition(t *testing.T) {
	// Black to move, stalemated.
	col := searchPosition(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", Limits{Depth: 2})
	if got := col.last(); got != "bestmove 0000" {
		t.Errorf("no legal moves should answer the null move, got %q", got)
	}
}

func TestEvaluateStartposIsBalanced(t *testing.T) {
	pos := board.NewPosition()
	if v := Evaluate(pos); v != 0 {
		t.Errorf("the starting position should evaluate to 0, got %d", v)
	}
}

func TestEvaluateSymmetry(t *testing.T) {
	pos := board.NewPosition()
	if err := pos.Set("r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10", board.Standard); err != nil {
		t.Fatal(err)
	}
	v1 := Evaluate(pos)
	pos.Flip()
	v2 := Evaluate(pos)
	if v1 != v2 {
		t.Errorf("evaluation must be color-symmetric: %d vs %d", v1, v2)
	}
}

func TestTraceMentionsEvaluation(t *testing.T) {
	pos := board.NewPosition()
	out := Trace(pos)
	if !strings.Contains(out, "Evaluation:") {
		t.Errorf("trace output:\n%s", out)
	}
	if !strings.Contains(out, "white to move") {
		t.Errorf("trace should name the side to move:\n%s", out)
	}
}

func TestTransTableRoundTrip(t *testing.T) {
	tt := NewTransTable(1)
	pos := board.NewPosition()
	m := board.ParseMove(pos, "e2e4")

	tt.Store(pos.Key(), m, 42, 6, BoundExact)
	e, ok := tt.Probe(pos.Key())
	if !ok {
		t.Fatal("stored entry not found")
	}
	if e.move != m || e.score != 42 || e.depth != 6 || e.bound != BoundExact {
		t.Errorf("entry mangled: %+v", e)
	}

	if _, ok := tt.Probe(pos.Key() ^ 0xdeadbeef); ok {
		t.Error("probe of an unknown key should miss")
	}
}

func TestTransTableKeepsMoveOnDepthUpgrade(t *testing.T) {
	tt := NewTransTable(1)
	pos := board.NewPosition()
	m := board.ParseMove(pos, "d2d4")

	tt.Store(pos.Key(), m, 10, 4, BoundExact)
	tt.Store(pos.Key(), board.NoMove, 20, 8, BoundLower)

	e, ok := tt.Probe(pos.Key())
	if !ok {
		t.Fatal("entry lost")
	}
	if e.move != m {
		t.Error("a deeper store without a move should keep the old move")
	}
	if e.depth != 8 {
		t.Errorf("depth not upgraded: %d", e.depth)
	}
}

func TestTransTableClear(t *testing.T) {
	tt := NewTransTable(1)
	tt.Store(12345, board.NoMove, 1, 1, BoundUpper)
	tt.Clear()
	if _, ok := tt.Probe(12345); ok {
		t.Error("clear should drop all entries")
	}
}

func TestTimeManagerFixedMoveTime(t *testing.T) {
	tm := NewTimeManager()
	limits := Limits{MoveTime: 300 * time.Millisecond, StartTime: time.Now()}
	tm.Init(&limits, board.White, 0)
	if tm.OptimumTime() != 300*time.Millisecond || tm.MaximumTime() != 300*time.Millisecond {
		t.Errorf("movetime should fix both budgets: %v %v", tm.OptimumTime(), tm.MaximumTime())
	}
}

func TestTimeManagerUntimedSearch(t *testing.T) {
	tm := NewTimeManager()
	limits := Limits{Depth: 10, StartTime: time.Now()}
	tm.Init(&limits, board.White, 0)
	if tm.MaximumTime() < time.Minute {
		t.Errorf("a depth-limited search gets an effectively unlimited budget, got %v", tm.MaximumTime())
	}
}

func TestTimeManagerClockBudgets(t *testing.T) {
	tm := NewTimeManager()
	limits := Limits{StartTime: time.Now()}
	limits.Time[board.White] = time.Minute
	limits.Inc[board.White] = time.Second
	tm.Init(&limits, board.White, 20)

	if tm.OptimumTime() <= 0 {
		t.Fatal("no optimum budget computed")
	}
	if tm.MaximumTime() > time.Minute*8/10 {
		t.Errorf("hard budget must leave clock headroom, got %v", tm.MaximumTime())
	}
	if tm.MaximumTime() < tm.OptimumTime() {
		t.Errorf("maximum %v below optimum %v", tm.MaximumTime(), tm.OptimumTime())
	}
}

func TestTimeManagerNodeClock(t *testing.T) {
	tm := NewTimeManager()
	limits := Limits{NodesTime: 1000, StartTime: time.Now()}
	limits.Time[board.White] = 10 * time.Second
	tm.Init(&limits, board.White, 0)

	tm.ConsumeNodes(5000)
	tm.ResetNodes()

	// After a reset the next Init reconverts from the clock.
	limits.StartTime = time.Now()
	tm.Init(&limits, board.White, 0)
	if tm.OptimumTime() <= 0 {
		t.Error("node clock should still produce a budget after reset")
	}
}
