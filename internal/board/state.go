package board

// StateInfo is a snapshot recorded after each replayed setup move. The search
// consumes the zobrist keys for repetition detection and the rule-50 counters
// to bound how far back a repetition can reach.
type StateInfo struct {
	Move    Move
	Key     uint64 // zobrist key of the position after the move
	Rule50  int    // halfmove clock after the move
	InCheck bool   // whether the move gave check
}

// StateStack is the ordered history of StateInfo snapshots built during a
// "position" command. It is rebuilt from empty on every such command and then
// handed to the search by pointer; the garbage collector keeps a replaced
// stack alive for as long as an in-flight search still references it.
type StateStack struct {
	states []StateInfo
}

// NewStateStack returns an empty history.
func NewStateStack() *StateStack {
	return &StateStack{}
}

// Push appends a snapshot.
func (s *StateStack) Push(st StateInfo) {
	s.states = append(s.states, st)
}

// Len returns the number of snapshots.
func (s *StateStack) Len() int {
	return len(s.states)
}

// Top returns the most recent snapshot, or nil if the stack is empty.
func (s *StateStack) Top() *StateInfo {
	if len(s.states) == 0 {
		return nil
	}
	return &s.states[len(s.states)-1]
}

// At returns the i-th snapshot in push order.
func (s *StateStack) At(i int) StateInfo {
	return s.states[i]
}

// Keys returns the zobrist keys in push order. The slice is a copy; the
// search extends it freely with its own path.
func (s *StateStack) Keys() []uint64 {
	keys := make([]uint64, len(s.states))
	for i, st := range s.states {
		keys[i] = st.Key
	}
	return keys
}
