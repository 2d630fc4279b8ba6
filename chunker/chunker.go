package chunker

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Chunk splits text into segments of at most maxLen characters using a
// greedy word wrap: whole words are accumulated until adding the next word
// would exceed maxLen, then a new chunk starts. Chunks never overlap and
// their order follows the input. Empty input yields nil. A single word
// longer than maxLen is hard-split so the length bound always holds.
func Chunk(text string, maxLen int) []string {
	if maxLen <= 0 {
		return nil
	}

	var chunks []string
	var b strings.Builder

	for _, word := range strings.Fields(text) {
		for len(word) > maxLen {
			if b.Len() > 0 {
				chunks = append(chunks, b.String())
				b.Reset()
			}
			chunks = append(chunks, word[:maxLen])
			word = word[maxLen:]
		}
		if word == "" {
			continue
		}
		if b.Len() > 0 && b.Len()+1+len(word) > maxLen {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

// TokenCount returns the token length of text for the token_count metadata
// field. Falls back to a word count if the encoding cannot be loaded.
func TokenCount(text string) int {
	encOnce.Do(func() {
		enc, encErr = tiktoken.EncodingForModel("gpt-3.5-turbo")
	})
	if encErr != nil {
		return len(strings.Fields(text))
	}
	return len(enc.Encode(text, nil, nil))
}
