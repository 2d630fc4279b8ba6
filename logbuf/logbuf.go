// Package logbuf provides invocation-scoped buffered logging: every log
// record of one ingestion batch or one query is held in memory and emitted
// as a single write when the invocation ends.
package logbuf

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
)

// Buffer accumulates the formatted records of one invocation. Flush emits
// them exactly once; it is safe to defer on every exit path.
type Buffer struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	out     io.Writer
	flushed bool
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Flush writes the buffered records to the destination. Subsequent calls
// are no-ops.
func (b *Buffer) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.flushed {
		return
	}
	b.flushed = true
	if b.buf.Len() > 0 {
		b.out.Write(b.buf.Bytes())
	}
}

// New returns a logger for one invocation, tagged with a fresh invocation
// id, and the Buffer that must be flushed when the invocation ends.
func New(level slog.Level) (*slog.Logger, *Buffer) {
	return NewWithOutput(level, os.Stdout)
}

// NewWithOutput is New with an explicit flush destination.
func NewWithOutput(level slog.Level, out io.Writer) (*slog.Logger, *Buffer) {
	b := &Buffer{out: out}
	handler := slog.NewTextHandler(b, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler).With("invocation_id", uuid.NewString())
	return logger, b
}
