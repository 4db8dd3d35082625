package engine

import (
	"github.com/dylhunn/dragontoothmg"
	"github.com/skiffchess/skiff/internal/board"
)

// Move ordering scores. The hash move is tried first, then captures by
// MVV-LVA, then killers, then the rest by history.
const (
	scoreHashMove = 1 << 20
	scoreCapture  = 1 << 16
	scoreKiller   = 1 << 12
)

// orderer scores and selects moves. Killer and history tables persist across
// searches and are wiped on "ucinewgame".
type orderer struct {
	killers [MaxPly][2]board.Move
	history [2][64][64]int
}

func newOrderer() *orderer {
	return &orderer{}
}

// Clear wipes killers and history.
func (o *orderer) Clear() {
	*o = orderer{}
}

func (o *orderer) addKiller(ply int, m board.Move) {
	if ply >= MaxPly || o.killers[ply][0] == m {
		return
	}
	o.killers[ply][1] = o.killers[ply][0]
	o.killers[ply][0] = m
}

func (o *orderer) addHistory(stm board.Color, m board.Move, depth int) {
	h := &o.history[stm][m.From()][m.To()]
	*h += depth * depth
	if *h > scoreKiller {
		*h = scoreKiller
	}
}

// victimValue returns the material value of the piece captured by m, using
// the pawn value for en passant.
func victimValue(p *board.Position, m board.Move) int {
	bd := p.Board()
	var them *dragontoothmg.Bitboards
	if p.SideToMove() == board.White {
		them = &bd.Black
	} else {
		them = &bd.White
	}
	bb := uint64(1) << uint(m.To())
	for _, pt := range pieceOrder {
		if sideBitboard(them, pt)&bb != 0 {
			return PieceValue[pt]
		}
	}
	return PieceValue[dragontoothmg.Pawn] // en passant
}

func attackerValue(p *board.Position, m board.Move) int {
	bd := p.Board()
	var us *dragontoothmg.Bitboards
	if p.SideToMove() == board.White {
		us = &bd.White
	} else {
		us = &bd.Black
	}
	bb := uint64(1) << uint(m.From())
	for _, pt := range pieceOrder {
		if sideBitboard(us, pt)&bb != 0 {
			return PieceValue[pt]
		}
	}
	return 0
}

// scoredMove pairs a move with its ordering score.
type scoredMove struct {
	move  board.Move
	score int
}

// scoreMoves assigns ordering scores to all moves at the given ply.
func (o *orderer) scoreMoves(p *board.Position, moves []board.Move, hashMove board.Move, ply int) []scoredMove {
	scored := make([]scoredMove, len(moves))
	stm := p.SideToMove()
	for i, m := range moves {
		s := 0
		switch {
		case m == hashMove:
			s = scoreHashMove
		case p.IsCapture(m):
			s = scoreCapture + victimValue(p, m)*16 - attackerValue(p, m)/8
		case ply < MaxPly && (m == o.killers[ply][0] || m == o.killers[ply][1]):
			s = scoreKiller
		default:
			s = o.history[stm][m.From()][m.To()]
		}
		scored[i] = scoredMove{move: m, score: s}
	}
	return scored
}

// pickNext selects the best remaining move into position i, one at a time so
// a cutoff skips the sorting of the tail.
func pickNext(scored []scoredMove, i int) board.Move {
	best := i
	for j := i + 1; j < len(scored); j++ {
		if scored[j].score > scored[best].score {
			best = j
		}
	}
	scored[i], scored[best] = scored[best], scored[i]
	return scored[i].move
}
