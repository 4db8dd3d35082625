package engine

import (
	"time"

	"github.com/skiffchess/skiff/internal/board"
)

// Limits captures everything a "go" command says about when the search must
// stop. StartTime is recorded before any other token is parsed so that
// elapsed-time accounting is not skewed by parsing cost. Zero values mean
// "not requested".
type Limits struct {
	Time      [2]time.Duration // remaining clock per color
	Inc       [2]time.Duration // increment per color
	MovesToGo int
	Depth     int
	Nodes     uint64
	MoveTime  time.Duration
	Mate      int // stop once a mate in at most Mate moves is proven
	Infinite  bool
	Ponder    bool

	// SearchMoves restricts the root to this set when non-empty.
	SearchMoves []board.Move

	StartTime time.Time

	// Engine-side knobs attached at hand-off, read from the option registry.
	MoveOverhead time.Duration
	NodesTime    int // nodes per millisecond; >0 measures the clock in nodes
}

// UseTimeManagement reports whether the search runs on a clock rather than a
// fixed depth, node or time budget.
func (l *Limits) UseTimeManagement() bool {
	return l.Time[board.White] > 0 || l.Time[board.Black] > 0
}
