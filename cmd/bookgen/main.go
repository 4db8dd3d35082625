// bookgen builds an opening book from PGN game collections.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/skiffchess/skiff/internal/book"
)

var (
	out   = flag.String("out", "book.db", "output book directory")
	plies = flag.Int("plies", 24, "half-moves to record per game (0 = all)")
)

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		log.Fatal("usage: bookgen [-out dir] [-plies n] games.pgn ...")
	}

	bk, err := book.Open(*out)
	if err != nil {
		log.Fatal("could not open book: ", err)
	}
	defer bk.Close()

	total := 0
	for _, path := range flag.Args() {
		f, err := os.Open(path)
		if err != nil {
			log.Fatal("could not open ", path, ": ", err)
		}
		n, err := bk.ImportPGN(f, *plies)
		f.Close()
		if err != nil {
			log.Fatalf("import of %s failed after %d games: %v", path, n, err)
		}
		log.Printf("%s: %d games", path, n)
		total += n
	}

	positions, err := bk.Size()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("done: %d games, %d positions", total, positions)
}
