package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkBounds(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta epsilon ", 80)
	for _, maxLen := range []int{10, 37, 120, 1200} {
		chunks := Chunk(text, maxLen)
		require.NotEmpty(t, chunks)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c), maxLen)
			assert.NotEmpty(t, c)
		}
	}
}

func TestChunkReassemblesWordSequence(t *testing.T) {
	text := "  the quick\nbrown   fox jumps\tover the lazy dog  "
	chunks := Chunk(text, 12)
	joined := strings.Join(chunks, " ")
	assert.Equal(t, strings.Join(strings.Fields(text), " "), joined)
}

func TestChunkEmptyInput(t *testing.T) {
	assert.Nil(t, Chunk("", 100))
	assert.Nil(t, Chunk("   \n\t ", 100))
	assert.Nil(t, Chunk("anything", 0))
}

func TestChunkDeterministic(t *testing.T) {
	text := strings.Repeat("one two three four five six seven ", 40)
	first := Chunk(text, 50)
	second := Chunk(text, 50)
	assert.Equal(t, first, second)
}

func TestChunkSplitsOversizedWord(t *testing.T) {
	word := strings.Repeat("x", 25)
	chunks := Chunk("start "+word+" end", 10)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 10)
	}
	assert.Equal(t, strings.ReplaceAll(strings.Join(chunks, ""), " ", ""),
		"start"+word+"end")
}

func TestChunkNoOverlap(t *testing.T) {
	text := "aa bb cc dd ee ff gg hh"
	chunks := Chunk(text, 5)
	total := 0
	for _, c := range chunks {
		total += len(strings.Fields(c))
	}
	assert.Equal(t, len(strings.Fields(text)), total)
}

func TestTokenCount(t *testing.T) {
	assert.Greater(t, TokenCount("the quick brown fox"), 0)
	assert.Zero(t, TokenCount(""))
}
