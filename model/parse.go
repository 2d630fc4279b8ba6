package model

import (
	"encoding/json"
	"fmt"
)

// maxPayloadExcerpt bounds how much of a raw model payload is carried in
// errors and logs.
const maxPayloadExcerpt = 1000

// MalformedResponseError means the model call itself succeeded but the
// payload carried none of the recognized shapes. Distinct from a transport
// failure; includes a truncated excerpt of the raw payload for diagnosis.
type MalformedResponseError struct {
	ModelID string
	Reason  string
	Payload string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("model %s: %s: %s", e.ModelID, e.Reason, e.Payload)
}

func newMalformedResponseError(modelID, reason string, raw []byte) *MalformedResponseError {
	return &MalformedResponseError{
		ModelID: modelID,
		Reason:  reason,
		Payload: truncate(string(raw), maxPayloadExcerpt),
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// Response payloads vary by model family, so each known shape is an
// extraction strategy; strategies are tried in order and the first match
// wins. No match is a malformed response, never a silent zero value.

type embeddingExtractor func(payload map[string]any) ([]float32, bool)

var embeddingExtractors = []embeddingExtractor{
	embeddingTopLevel,
	embeddingFromOutputs,
}

// embeddingTopLevel handles {"embedding": [...]}.
func embeddingTopLevel(payload map[string]any) ([]float32, bool) {
	return toVector(payload["embedding"])
}

// embeddingFromOutputs handles {"outputs": [{"embedding": [...]}, ...]}.
func embeddingFromOutputs(payload map[string]any) ([]float32, bool) {
	outputs, ok := payload["outputs"].([]any)
	if !ok {
		return nil, false
	}
	for _, item := range outputs {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if vec, ok := toVector(m["embedding"]); ok {
			return vec, true
		}
	}
	return nil, false
}

func toVector(v any) ([]float32, bool) {
	values, ok := v.([]any)
	if !ok || len(values) == 0 {
		return nil, false
	}
	vec := make([]float32, len(values))
	for i, raw := range values {
		f, ok := raw.(float64)
		if !ok {
			return nil, false
		}
		vec[i] = float32(f)
	}
	return vec, true
}

func parseEmbedding(modelID string, raw []byte) ([]float32, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, newMalformedResponseError(modelID, "response is not a JSON object", raw)
	}
	for _, extract := range embeddingExtractors {
		if vec, ok := extract(payload); ok {
			return vec, nil
		}
	}
	return nil, newMalformedResponseError(modelID, "no 'embedding' found in model response", raw)
}

type answerExtractor func(payload map[string]any) (string, bool)

var answerExtractors = []answerExtractor{
	answerFromContentBlocks,
	answerFromNestedOutput,
}

// answerFromContentBlocks handles {"content": [{"text": "..."}]}.
func answerFromContentBlocks(payload map[string]any) (string, bool) {
	blocks, ok := payload["content"].([]any)
	if !ok {
		return "", false
	}
	for _, item := range blocks {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if text, ok := m["text"].(string); ok {
			return text, true
		}
	}
	return "", false
}

// answerFromNestedOutput handles {"output": [{"content": [{"text": "..."}]}]}.
func answerFromNestedOutput(payload map[string]any) (string, bool) {
	output, ok := payload["output"].([]any)
	if !ok {
		return "", false
	}
	for _, item := range output {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if text, ok := answerFromContentBlocks(m); ok {
			return text, true
		}
	}
	return "", false
}

func parseAnswer(modelID string, raw []byte) (string, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", newMalformedResponseError(modelID, "response is not a JSON object", raw)
	}
	for _, extract := range answerExtractors {
		if text, ok := extract(payload); ok {
			return text, nil
		}
	}
	return "", newMalformedResponseError(modelID, "unexpected model response format", raw)
}
