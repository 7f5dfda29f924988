package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	// The SQLite store returns it when the per-tenant fingerprint
	// uniqueness constraint fires; the loser of a concurrent upload
	// race takes the duplicate path.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingExhausted indicates every configured embedding
	// provider failed for a given text.
	ErrEmbeddingExhausted = errors.New("all embedding providers failed")

	// ErrEmbeddingUnavailable indicates no embedding facade is
	// configured. Semantic retrieval is disabled without one.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrDimensionMismatch indicates a vector's dimensionality does not
	// match the vectors already indexed for its provider partition.
	// Rejected at write time rather than silently corrupting rankings.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrVectorIndexUnavailable indicates the vector index is not
	// configured. Similarity search is disabled.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
)
