package book

import (
	"io"

	"github.com/notnil/chess"
	"github.com/skiffchess/skiff/internal/board"
)

// ImportPGN reads games from a PGN stream and records the first maxPlies
// half-moves of each into the book (all half-moves when maxPlies is zero).
// It returns the number of games imported. Games starting from a non-standard
// position are skipped, as are moves our generator cannot reproduce.
func (b *Book) ImportPGN(r io.Reader, maxPlies int) (int, error) {
	games, err := chess.GamesFromPGN(r)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, g := range games {
		if fen := g.GetTagPair("FEN"); fen != nil {
			continue
		}
		pos := board.NewPosition()
		for ply, mv := range g.Moves() {
			if maxPlies > 0 && ply >= maxPlies {
				break
			}
			m := board.ParseMove(pos, mv.String())
			if m == board.NoMove {
				break
			}
			if err := b.Add(pos.Key(), m, 1); err != nil {
				return imported, err
			}
			var st board.StateInfo
			pos.DoMove(m, &st)
		}
		imported++
	}
	return imported, nil
}
