package logbuf

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordsHeldUntilFlush(t *testing.T) {
	var out bytes.Buffer
	logger, buf := NewWithOutput(slog.LevelInfo, &out)

	logger.Info("first", "k", 1)
	logger.Info("second", "k", 2)
	assert.Zero(t, out.Len(), "nothing emitted before Flush")

	buf.Flush()
	assert.Contains(t, out.String(), "first")
	assert.Contains(t, out.String(), "second")
	assert.Contains(t, out.String(), "invocation_id")
}

func TestFlushExactlyOnce(t *testing.T) {
	var out bytes.Buffer
	logger, buf := NewWithOutput(slog.LevelInfo, &out)

	logger.Info("only once")
	buf.Flush()
	emitted := out.Len()

	buf.Flush()
	logger.Info("after flush")
	buf.Flush()
	assert.Equal(t, emitted, out.Len())
}

func TestLevelFilter(t *testing.T) {
	var out bytes.Buffer
	logger, buf := NewWithOutput(slog.LevelWarn, &out)

	logger.Info("dropped")
	logger.Warn("kept")
	buf.Flush()

	assert.NotContains(t, out.String(), "dropped")
	assert.Contains(t, out.String(), "kept")
}
