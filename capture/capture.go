// Package capture collects redirected test output between traversal
// boundaries.
package capture

import (
	"bytes"
	"sync"

	"github.com/acarl005/stripansi"
)

// Source is a pull-based view of redirected output. The reporter drains a
// Source once per completed traversal; engines that cannot redirect output
// supply Nop instead.
type Source interface {
	// Contents returns everything written since the last Reset.
	Contents() string
	// Reset discards the buffered output.
	Reset()
}

// Buffer is an in-process capture sink. Producers may write from other
// goroutines than the reporter's, so access is mutex-guarded. ANSI escape
// sequences are stripped on read; TRX consumers want plain text.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Write implements io.Writer so a Buffer can sit behind an exec pipe or a
// log handler.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *Buffer) WriteString(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.WriteString(s)
}

func (b *Buffer) Contents() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return stripansi.Strip(b.buf.String())
}

func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// Nop is the capture source for engines without output redirection. It is
// always empty.
type Nop struct{}

func (Nop) Contents() string { return "" }
func (Nop) Reset()           {}
