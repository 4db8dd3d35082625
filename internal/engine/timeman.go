package engine

import (
	"time"

	"github.com/skiffchess/skiff/internal/board"
)

// TimeManager turns the clock fields of a Limits into an optimum and a
// maximum budget for one search. When NodesTime is set the clock is measured
// in nodes instead of wall time; availableNodes then carries the unused node
// budget from move to move and is zeroed on "ucinewgame".
type TimeManager struct {
	optimumTime time.Duration
	maximumTime time.Duration
	startTime   time.Time

	availableNodes int64
}

// NewTimeManager creates a time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init computes the budgets for a new search. us is the side to move and ply
// the game ply, used to estimate the moves still to come in sudden death.
func (tm *TimeManager) Init(limits *Limits, us board.Color, ply int) {
	tm.startTime = limits.StartTime
	if tm.startTime.IsZero() {
		tm.startTime = time.Now()
	}

	if limits.MoveTime > 0 {
		tm.optimumTime = limits.MoveTime
		tm.maximumTime = limits.MoveTime
		return
	}

	if !limits.UseTimeManagement() {
		tm.optimumTime = time.Hour
		tm.maximumTime = time.Hour
		return
	}

	timeLeft := limits.Time[us]
	inc := limits.Inc[us]

	// With a node clock, convert the remaining time once and run on the
	// carried node budget from then on.
	if limits.NodesTime > 0 {
		if tm.availableNodes == 0 {
			tm.availableNodes = int64(timeLeft.Milliseconds()) * int64(limits.NodesTime)
		}
		timeLeft = time.Duration(tm.availableNodes/int64(limits.NodesTime)) * time.Millisecond
		inc = 0
	}

	timeLeft -= limits.MoveOverhead
	if timeLeft < time.Millisecond {
		timeLeft = time.Millisecond
	}

	mtg := limits.MovesToGo
	if mtg == 0 {
		// Sudden death: assume fewer moves remain as the game goes on.
		mtg = 50 - ply/4
		if mtg < 10 {
			mtg = 10
		}
	}

	baseTime := timeLeft/time.Duration(mtg) + inc*9/10
	tm.optimumTime = baseTime
	if ply < 8 {
		tm.optimumTime = baseTime * 85 / 100
	}

	tm.maximumTime = min(tm.optimumTime*5, timeLeft*8/10)
	if tm.maximumTime < tm.optimumTime {
		tm.optimumTime = tm.maximumTime
	}

	if tm.optimumTime < 10*time.Millisecond {
		tm.optimumTime = 10 * time.Millisecond
	}
	if tm.maximumTime < 50*time.Millisecond {
		tm.maximumTime = 50 * time.Millisecond
	}
}

// Elapsed returns the time since the "go" command arrived.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// OptimumTime returns the target budget for this move.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.optimumTime
}

// MaximumTime returns the hard budget for this move.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

// ShouldStop reports whether the hard budget is exhausted.
func (tm *TimeManager) ShouldStop() bool {
	return tm.Elapsed() >= tm.maximumTime
}

// PastOptimum reports whether the target budget is exhausted; checked between
// iterations so a new depth is not started that likely cannot finish.
func (tm *TimeManager) PastOptimum() bool {
	return tm.Elapsed() >= tm.optimumTime
}

// ConsumeNodes charges a finished search against the node clock.
func (tm *TimeManager) ConsumeNodes(searched uint64) {
	if tm.availableNodes > 0 {
		tm.availableNodes -= int64(searched)
		if tm.availableNodes < 1 {
			tm.availableNodes = 1
		}
	}
}

// ResetNodes zeroes the accumulated node budget for a new game.
func (tm *TimeManager) ResetNodes() {
	tm.availableNodes = 0
}
