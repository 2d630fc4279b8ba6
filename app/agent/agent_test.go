package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbrag/types"
)

type stubGenerator struct {
	reply      string
	lastPrompt string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	return s.reply, nil
}

func TestBuildPromptNumbersSnippets(t *testing.T) {
	prompt := BuildPrompt("What is the capital of France?", []types.Snippet{
		{Text: "Paris is the capital of France."},
		{Text: "France is in Europe."},
	})

	assert.Contains(t, prompt, "Snippet 1:\nParis is the capital of France.")
	assert.Contains(t, prompt, "Snippet 2:\nFrance is in Europe.")
	assert.Contains(t, prompt, "Only answer using the provided Context")
	assert.Contains(t, prompt, "Question:\nWhat is the capital of France?")
	assert.Less(t, strings.Index(prompt, "Question:"), strings.Index(prompt, "Context:"))
}

func TestAnswerCarriesCitation(t *testing.T) {
	gen := &stubGenerator{reply: "The capital of France is Paris [Snippet 1]."}
	a := NewAnswerer(gen)

	answer, err := a.Answer(context.Background(), "What is the capital of France?", []types.Snippet{
		{Text: "Paris is the capital of France."},
	})
	require.NoError(t, err)
	assert.Contains(t, answer, "[Snippet 1]")
	assert.Contains(t, gen.lastPrompt, "say you don't know")
}

func TestAnswerEmptyContexts(t *testing.T) {
	gen := &stubGenerator{reply: "I don't know based on the provided context."}
	a := NewAnswerer(gen)

	answer, err := a.Answer(context.Background(), "Who won the 1998 World Cup?", nil)
	require.NoError(t, err)
	assert.NotContains(t, gen.lastPrompt, "Snippet 1")
	assert.NotEmpty(t, answer)
}
