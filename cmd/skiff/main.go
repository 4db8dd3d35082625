// Skiff UCI chess engine.
package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/skiffchess/skiff/internal/board"
	"github.com/skiffchess/skiff/internal/engine"
	"github.com/skiffchess/skiff/internal/uci"
)

var (
	hashMB     = flag.Int("hash", 64, "transposition table size in MB")
	bookPath   = flag.String("book", "", "opening book directory")
	ansi       = flag.Bool("ansi", false, "colorize the \"d\" board display")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	flag.Parse()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	board.Colorize = *ansi

	d := engine.NewDispatcher(*hashMB)
	defer d.Close()

	protocol := uci.New(d, os.Stdout)
	if *bookPath != "" {
		protocol.Options().Set("Book Path", *bookPath)
		protocol.Options().Set("OwnBook", "true")
	}
	protocol.Run(os.Stdin)
}
