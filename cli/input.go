package cli

import (
	"bufio"
	"io"
	"sync"
)

// lineReader serializes line input from a single underlying reader. The REPL
// prompt and approval prompts share one instance, so buffered input is never
// split across two readers and concurrent prompts cannot interleave.
type lineReader struct {
	mu sync.Mutex
	r  *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

// Lock acquires exclusive use of the reader so a caller can print a prompt
// and read the answer as one unit.
func (l *lineReader) Lock() { l.mu.Lock() }

// Unlock releases the reader.
func (l *lineReader) Unlock() { l.mu.Unlock() }

// Read reads one line. The caller must hold the lock.
func (l *lineReader) Read() (string, error) { return l.r.ReadString('\n') }

// ReadLine reads one line with the lock held.
func (l *lineReader) ReadLine() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Read()
}
