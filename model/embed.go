package model

import "context"

// Embedder converts free text into a dense vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type embeddingRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
	Normalize  bool   `json:"normalize,omitempty"`
}

// ModelEmbedder produces embeddings by invoking a remote embedding model.
// It is stateless beyond the remote call and carries no retry policy of its
// own; retries and timeouts live in the Runtime.
type ModelEmbedder struct {
	rt         *Runtime
	modelID    string
	dimensions int
	normalize  bool
}

// NewModelEmbedder builds an embedder for modelID. dimensions and normalize
// are optional request knobs; zero values are omitted from the request.
func NewModelEmbedder(rt *Runtime, modelID string, dimensions int, normalize bool) *ModelEmbedder {
	return &ModelEmbedder{
		rt:         rt,
		modelID:    modelID,
		dimensions: dimensions,
		normalize:  normalize,
	}
}

func (e *ModelEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	raw, err := e.rt.Invoke(ctx, e.modelID, embeddingRequest{
		InputText:  text,
		Dimensions: e.dimensions,
		Normalize:  e.normalize,
	})
	if err != nil {
		return nil, err
	}
	return parseEmbedding(e.modelID, raw)
}
