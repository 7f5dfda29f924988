package driven

import (
	"context"
	"time"

	"github.com/realvibe/evidence-engine/internal/core/domain"
)

// VectorEntry is a chunk vector registered in the index.
type VectorEntry struct {
	// ChunkID is the chunk this vector belongs to.
	ChunkID string

	// DocumentID is the owning document, used for bulk removal and for
	// the recency tie-break.
	DocumentID string

	// TenantID scopes the entry to a tenant.
	TenantID string

	// Vector is the provider-tagged embedding.
	Vector domain.EmbeddingVector

	// UploadedAt is the owning document's upload time. Ties in
	// similarity break by recency, more recent first.
	UploadedAt time.Time
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the chunk's owning document.
	DocumentID string

	// Similarity is the cosine similarity score.
	Similarity float64
}

// VectorIndex stores chunk vectors and answers top-K cosine similarity
// queries above a threshold.
//
// Entries are partitioned by (tenant, provider): a query vector is only
// ever ranked against candidates produced by the same provider.
// Implementations may use brute-force exact search; the contract only
// requires cosine scoring with threshold-then-topK semantics.
type VectorIndex interface {
	// Add registers a vector. Returns domain.ErrDimensionMismatch when
	// the vector's dimensionality disagrees with its partition.
	Add(ctx context.Context, entry VectorEntry) error

	// RemoveDocument drops all vectors belonging to a document.
	RemoveDocument(ctx context.Context, tenantID, documentID string) error

	// Search returns up to topK hits with similarity >= minSimilarity,
	// ordered by descending similarity. Candidates below the threshold
	// are excluded, never padded.
	Search(ctx context.Context, tenantID string, query domain.EmbeddingVector, topK int, minSimilarity float64) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}
