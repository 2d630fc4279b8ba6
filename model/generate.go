package model

import (
	"context"
	"strings"
)

const anthropicVersion = "bedrock-2023-05-31"

// TextGenerator produces completion text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type generateContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type generateMessage struct {
	Role    string            `json:"role"`
	Content []generateContent `json:"content"`
}

type generateRequest struct {
	Messages         []generateMessage `json:"messages"`
	MaxTokens        int               `json:"max_tokens"`
	AnthropicVersion string            `json:"anthropic_version,omitempty"`
}

// Generator invokes a remote generation model. When an inference profile id
// is configured it takes precedence over the direct model id as the invoke
// target.
type Generator struct {
	rt        *Runtime
	modelID   string
	profileID string
	maxTokens int
}

func NewGenerator(rt *Runtime, modelID, profileID string, maxTokens int) *Generator {
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &Generator{
		rt:        rt,
		modelID:   modelID,
		profileID: profileID,
		maxTokens: maxTokens,
	}
}

// Target returns the identifier used for the invocation: the inference
// profile if configured, else the model id.
func (g *Generator) Target() string {
	if g.profileID != "" {
		return g.profileID
	}
	return g.modelID
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	target := g.Target()

	req := generateRequest{
		Messages: []generateMessage{
			{Role: "user", Content: []generateContent{{Type: "text", Text: prompt}}},
		},
		MaxTokens: g.maxTokens,
	}
	// Anthropic-family targets require the protocol version tag.
	if strings.Contains(strings.ToLower(target), "anthropic") {
		req.AnthropicVersion = anthropicVersion
	}

	raw, err := g.rt.Invoke(ctx, target, req)
	if err != nil {
		return "", err
	}
	return parseAnswer(target, raw)
}
