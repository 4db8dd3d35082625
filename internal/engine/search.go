package engine

import (
	"time"

	"github.com/skiffchess/skiff/internal/board"
)

// SearchInfo is one iteration's report, forwarded to the protocol layer.
type SearchInfo struct {
	Depth    int
	Score    int // centipawns, or a mate score near +-MateScore
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int
}

// pvTable is a triangular principal variation table.
type pvTable struct {
	length [MaxPly + 1]int
	moves  [MaxPly + 1][MaxPly + 1]board.Move
}

func (pv *pvTable) update(ply int, m board.Move) {
	pv.moves[ply][0] = m
	copy(pv.moves[ply][1:], pv.moves[ply+1][:pv.length[ply+1]])
	pv.length[ply] = pv.length[ply+1] + 1
}

func (pv *pvTable) line() []board.Move {
	return pv.moves[0][:pv.length[0]]
}

// searcher runs one search invocation on its own copy of the position. The
// transposition table, orderer and time manager are the dispatcher's
// long-lived state; signals are the process-wide stop flags.
type searcher struct {
	pos     *board.Position
	limits  *Limits
	tt      *TransTable
	ord     *orderer
	tm      *TimeManager
	signals *Signals

	nodes   uint64
	stopped bool
	pv      pvTable

	// keyHist holds the zobrist keys of every position from the setup
	// history through the current search path; the last entry is the
	// current position. Repetition detection walks it backwards.
	keyHist []uint64
}

const stopCheckInterval = 1024

// checkStop latches the stop condition. While pondering, running out of time
// does not stop the search; it arms the stop-on-ponderhit signal instead.
func (s *searcher) checkStop() {
	if s.stopped {
		return
	}
	if s.signals.Stop.Load() {
		s.stopped = true
		return
	}
	if s.nodes%stopCheckInterval != 0 {
		return
	}
	if s.limits.Nodes > 0 && s.nodes >= s.limits.Nodes {
		s.stopped = true
		return
	}
	timed := s.limits.MoveTime > 0 || s.limits.UseTimeManagement()
	if !timed {
		return
	}
	if s.signals.Ponder.Load() {
		if s.tm.ShouldStop() {
			s.signals.StopOnPonderhit.Store(true)
		}
		return
	}
	if !s.limits.Infinite && s.tm.ShouldStop() {
		s.stopped = true
	}
}

func (s *searcher) doMove(m board.Move) func() {
	undo := s.pos.Apply(m)
	s.keyHist = append(s.keyHist, s.pos.Key())
	return func() {
		s.keyHist = s.keyHist[:len(s.keyHist)-1]
		undo()
	}
}

// isRepetition reports whether the current position occurred before within
// the reach of the halfmove clock. A single recurrence counts as a draw
// inside the search.
func (s *searcher) isRepetition() bool {
	cur := len(s.keyHist) - 1
	key := s.keyHist[cur]
	limit := cur - s.pos.Rule50()
	if limit < 0 {
		limit = 0
	}
	for i := cur - 2; i >= limit; i -= 2 {
		if s.keyHist[i] == key {
			return true
		}
	}
	return false
}

// Mate scores are stored in the table relative to the node, not the root, so
// they stay valid at any depth.
func scoreToTT(score, ply int) int {
	if score >= MateScore-MaxPly {
		return score + ply
	}
	if score <= -MateScore+MaxPly {
		return score - ply
	}
	return score
}

func scoreFromTT(score, ply int) int {
	if score >= MateScore-MaxPly {
		return score - ply
	}
	if score <= -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// iterate runs iterative deepening and returns the best move and the reply
// to ponder on, either of which may be NoMove.
func (s *searcher) iterate(emit func(SearchInfo)) (best, ponder board.Move) {
	rootMoves := s.pos.LegalMoves()
	if len(s.limits.SearchMoves) > 0 {
		rootMoves = filterMoves(rootMoves, s.limits.SearchMoves)
	}
	if len(rootMoves) == 0 {
		return board.NoMove, board.NoMove
	}

	maxDepth := MaxPly - 1
	if s.limits.Depth > 0 && s.limits.Depth < maxDepth {
		maxDepth = s.limits.Depth
	}

	var bestScore int
	for depth := 1; depth <= maxDepth; depth++ {
		score := s.searchRoot(rootMoves, depth)
		if s.stopped && depth > 1 {
			break
		}
		bestScore = score
		if line := s.pv.line(); len(line) > 0 {
			best = line[0]
			if len(line) > 1 {
				ponder = line[1]
			} else {
				ponder = board.NoMove
			}
		}

		emit(SearchInfo{
			Depth:    depth,
			Score:    bestScore,
			Nodes:    s.nodes,
			Time:     s.tm.Elapsed(),
			PV:       s.pv.line(),
			HashFull: s.tt.HashFull(),
		})

		if s.stopped {
			break
		}
		if s.limits.Mate > 0 && bestScore >= MateScore-2*s.limits.Mate {
			break
		}
		if bestScore >= MateScore-MaxPly || bestScore <= -MateScore+MaxPly {
			break
		}
		ponderingOrInfinite := s.limits.Infinite || s.signals.Ponder.Load()
		if !ponderingOrInfinite && (s.limits.MoveTime > 0 || s.limits.UseTimeManagement()) && s.tm.PastOptimum() {
			break
		}
	}
	return best, ponder
}

func filterMoves(moves, allowed []board.Move) []board.Move {
	var out []board.Move
	for _, m := range moves {
		for _, a := range allowed {
			if m == a {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// searchRoot searches all root moves at the given depth and returns the best
// score. The PV table row 0 holds the best line afterwards.
func (s *searcher) searchRoot(rootMoves []board.Move, depth int) int {
	alpha, beta := -Infinity, Infinity
	hashMove := board.NoMove
	if e, ok := s.tt.Probe(s.pos.Key()); ok {
		hashMove = e.move
	}
	scored := s.ord.scoreMoves(s.pos, rootMoves, hashMove, 0)

	s.pv.length[0] = 0
	bestScore := -Infinity
	for i := range scored {
		m := pickNext(scored, i)
		undo := s.doMove(m)
		score := -s.negamax(depth-1, 1, -beta, -alpha)
		undo()
		if s.stopped && depth > 1 {
			return bestScore
		}
		if score > bestScore {
			bestScore = score
			if score > alpha {
				alpha = score
				s.pv.update(0, m)
			}
		}
	}
	s.tt.Store(s.pos.Key(), s.pv.moves[0][0], scoreToTT(bestScore, 0), depth, BoundExact)
	return bestScore
}

func (s *searcher) negamax(depth, ply, alpha, beta int) int {
	s.nodes++
	s.checkStop()
	if s.stopped {
		return 0
	}

	if s.pos.Rule50() >= 100 || s.isRepetition() {
		return DrawScore
	}
	if ply >= MaxPly {
		return Evaluate(s.pos)
	}

	inCheck := s.pos.InCheck()
	if inCheck {
		depth++ // check extension
	}
	if depth <= 0 {
		return s.quiescence(ply, alpha, beta)
	}

	key := s.pos.Key()
	hashMove := board.NoMove
	if e, ok := s.tt.Probe(key); ok {
		hashMove = e.move
		if int(e.depth) >= depth {
			score := scoreFromTT(int(e.score), ply)
			switch e.bound {
			case BoundExact:
				return score
			case BoundLower:
				if score >= beta {
					return score
				}
			case BoundUpper:
				if score <= alpha {
					return score
				}
			}
		}
	}

	moves := s.pos.LegalMoves()
	if len(moves) == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return DrawScore
	}

	s.pv.length[ply] = 0
	scored := s.ord.scoreMoves(s.pos, moves, hashMove, ply)
	bound := BoundUpper
	bestScore := -Infinity
	bestMove := board.NoMove
	stm := s.pos.SideToMove()

	for i := range scored {
		m := pickNext(scored, i)
		isQuiet := !s.pos.IsCapture(m)
		undo := s.doMove(m)
		score := -s.negamax(depth-1, ply+1, -beta, -alpha)
		undo()
		if s.stopped {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
		}
		if score > alpha {
			alpha = score
			bound = BoundExact
			s.pv.update(ply, m)
		}
		if alpha >= beta {
			if isQuiet {
				s.ord.addKiller(ply, m)
				s.ord.addHistory(stm, m, depth)
			}
			bound = BoundLower
			break
		}
	}

	s.tt.Store(key, bestMove, scoreToTT(bestScore, ply), depth, bound)
	return bestScore
}

// quiescence resolves captures until the position is quiet.
func (s *searcher) quiescence(ply, alpha, beta int) int {
	s.nodes++
	s.checkStop()
	if s.stopped {
		return 0
	}

	s.pv.length[ply] = 0
	standPat := Evaluate(s.pos)
	if standPat >= beta {
		return standPat
	}
	if standPat > alpha {
		alpha = standPat
	}
	if ply >= MaxPly {
		return standPat
	}

	var captures []board.Move
	for _, m := range s.pos.LegalMoves() {
		if s.pos.IsCapture(m) {
			captures = append(captures, m)
		}
	}

	scored := s.ord.scoreMoves(s.pos, captures, board.NoMove, ply)
	bestScore := standPat
	for i := range scored {
		m := pickNext(scored, i)
		undo := s.doMove(m)
		score := -s.quiescence(ply+1, -beta, -alpha)
		undo()
		if s.stopped {
			return 0
		}
		if score > bestScore {
			bestScore = score
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}
	return bestScore
}
