package uci

import (
	"io"
	"strings"
	"sync"
)

// Printer serializes protocol output. The search worker prints info lines
// concurrently with command responses; every response goes out as a single
// write under the lock so lines never interleave mid-block.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPrinter wraps the given writer.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Println writes the given lines as one indivisible, newline-terminated
// block.
func (p *Printer) Println(lines ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	io.WriteString(p.w, strings.Join(lines, "\n")+"\n")
}
