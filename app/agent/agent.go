// Package agent composes retrieved context and a question into a grounded
// prompt and extracts the generated answer.
package agent

import (
	"context"
	"fmt"
	"strings"

	"kbrag/model"
	"kbrag/types"
)

const systemInstruction = "You are a knowledge-base tutor. Only answer using the provided Context. " +
	"If the Context is insufficient or off-topic, say you don't know. " +
	"Always include citations as [Snippet N] where N matches the provided snippets. " +
	"Never use external knowledge."

// Answerer generates answers constrained to the supplied snippets.
type Answerer struct {
	gen model.TextGenerator
}

func NewAnswerer(gen model.TextGenerator) *Answerer {
	return &Answerer{gen: gen}
}

// BuildPrompt numbers the snippets 1-based so citations in the answer line
// up with the snippet_index values returned to the caller.
func BuildPrompt(question string, contexts []types.Snippet) string {
	var blob strings.Builder
	for i, c := range contexts {
		if i > 0 {
			blob.WriteString("\n\n")
		}
		fmt.Fprintf(&blob, "Snippet %d:\n%s", i+1, c.Text)
	}

	return fmt.Sprintf("%s\n\nQuestion:\n%s\n\nContext:\n%s\n\nAnswer:",
		systemInstruction, question, blob.String())
}

func (a *Answerer) Answer(ctx context.Context, question string, contexts []types.Snippet) (string, error) {
	answer, err := a.gen.Generate(ctx, BuildPrompt(question, contexts))
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return answer, nil
}
