package domain

import "context"

// EmbeddingResult is the outcome of a single embedding call.
type EmbeddingResult struct {
	Embedding []float32
	Model     string
	Tokens    int
}

// Embedder produces an embedding for one text.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}
