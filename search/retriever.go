// Package search implements the retrieval pipeline: question in, ranked
// context snippets out.
package search

import (
	"context"
	"fmt"

	"kbrag/model"
	"kbrag/types"
)

// DefaultK bounds the result count when the caller does not specify one.
const DefaultK = 5

// Searcher is the slice of the index contract retrieval needs.
type Searcher interface {
	Search(ctx context.Context, vec []float32, k int) ([]types.Snippet, error)
}

// Retriever embeds a question and runs k-NN search against the vector
// index. It never fails solely because the index returned zero hits.
type Retriever struct {
	embedder model.Embedder
	index    Searcher
}

func NewRetriever(embedder model.Embedder, index Searcher) *Retriever {
	return &Retriever{embedder: embedder, index: index}
}

func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]types.Snippet, error) {
	if k <= 0 {
		k = DefaultK
	}

	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	snippets, err := r.index.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	return snippets, nil
}
