package board

import "github.com/dylhunn/dragontoothmg"

// Move is the move encoding of the underlying generator.
type Move = dragontoothmg.Move

// NoMove is the "no move" sentinel returned by ParseMove.
const NoMove Move = 0

// MoveString renders a move in UCI notation, "0000" for NoMove.
func MoveString(m Move) string {
	if m == NoMove {
		return "0000"
	}
	return m.String()
}

// ParseMove converts a UCI token into a move that is legal in the given
// position, or NoMove. A syntactically valid token still yields NoMove when
// no matching legal move exists.
func ParseMove(p *Position, token string) Move {
	parsed, err := dragontoothmg.ParseMove(token)
	if err != nil {
		return NoMove
	}
	for _, lm := range p.bd.GenerateLegalMoves() {
		if lm.From() == parsed.From() && lm.To() == parsed.To() && lm.Promote() == parsed.Promote() {
			return lm
		}
	}
	return NoMove
}
