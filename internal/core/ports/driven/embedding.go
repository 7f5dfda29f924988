package driven

import (
	"context"

	"github.com/realvibe/evidence-engine/internal/core/domain"
)

// EmbeddingProvider generates vector embeddings from text.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - A local deterministic hashing embedder that never fails
type EmbeddingProvider interface {
	// Name returns a stable identifier for the provider and model,
	// e.g. "openai:text-embedding-3-small". Vectors tagged with
	// different names must never be ranked against each other.
	Name() string

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// More efficient than calling Embed in a loop for providers with a
	// native batch API.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536).
	Dimensions() int

	// Ping validates the provider is reachable with a lightweight
	// request. Used to report the active provider in stats.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Embedder is the provider facade used by the core services.
// It tries a ranked list of EmbeddingProviders in order and returns a
// vector tagged with the provider that produced it. A definitive
// failure (domain.ErrEmbeddingExhausted) occurs only when every
// provider in the chain fails.
type Embedder interface {
	// Embed converts text into a provider-tagged vector.
	Embed(ctx context.Context, text string) (domain.EmbeddingVector, error)

	// ActiveProvider returns the name of the first reachable provider
	// in the chain, or "" when none responds.
	ActiveProvider(ctx context.Context) string

	// Close releases resources held by all providers in the chain.
	Close() error
}
