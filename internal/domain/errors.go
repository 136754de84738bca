package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrValidation signals rejected input parameters.
	ErrValidation = errors.New("validation failed")
	// ErrServiceDisabled signals that the embedding provider is not configured.
	ErrServiceDisabled = errors.New("embedding service disabled")
	// ErrEmbeddingGeneration signals an embedding provider failure.
	ErrEmbeddingGeneration = errors.New("embedding generation failed")
	// ErrEmbeddingMissing signals that an entity has no stored vector for the
	// requested channel.
	ErrEmbeddingMissing = errors.New("embedding missing")
	// ErrVectorSearch signals a vector index query failure.
	ErrVectorSearch = errors.New("vector search failed")
)
