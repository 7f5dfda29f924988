package driving

import (
	"context"

	"github.com/realvibe/evidence-engine/internal/core/domain"
)

// UploadResult reports the outcome of a document upload.
type UploadResult struct {
	// DocumentID is the new document's ID, or the existing document's
	// ID when the upload was a duplicate.
	DocumentID string `json:"document_id"`

	// Duplicate is true when identical bytes were already uploaded for
	// this tenant. No chunks or embeddings are produced in that case.
	Duplicate bool `json:"duplicate"`
}

// IngestOutcome reports chunking and embedding counts for one document.
type IngestOutcome struct {
	// ChunksCreated is the number of chunks the chunker produced.
	ChunksCreated int `json:"chunks_created"`

	// EmbeddingsCreated is the number of chunks stored with a vector.
	EmbeddingsCreated int `json:"embeddings_created"`

	// EmbeddingsFailed counts chunks skipped because every embedding
	// provider failed. A partially embedded document remains queryable.
	EmbeddingsFailed int `json:"embeddings_failed"`
}

// IngestService manages document upload, deduplication, chunking,
// embedding and index population.
type IngestService interface {
	// Upload registers raw document bytes for a tenant. Identical bytes
	// uploaded twice resolve to the same document with Duplicate set;
	// the duplicate check for a (tenant, fingerprint) pair is
	// serialized so concurrent uploads cannot both create documents.
	Upload(ctx context.Context, tenantID, filename string, raw []byte) (*UploadResult, error)

	// CompleteExtraction is the callback fired by the text-extraction
	// collaborator once a document's plain text is available. It purges
	// any previous chunks, re-chunks, embeds and indexes.
	CompleteExtraction(ctx context.Context, tenantID, documentID, text string) (*IngestOutcome, error)

	// FailExtraction marks a document as failed. The document keeps
	// zero chunks; this is non-fatal and visible in stats.
	FailExtraction(ctx context.Context, tenantID, documentID, reason string) error

	// DeleteDocument removes a document, its chunks and its index
	// entries. Index entries are removed before the call returns so
	// queries never reference orphaned chunks.
	DeleteDocument(ctx context.Context, tenantID, documentID string) error

	// Reindex rebuilds the vector index from persisted chunks for a
	// tenant. Used at startup since the index is volatile.
	Reindex(ctx context.Context, tenantID string) error

	// Stats summarises the tenant's corpus for observability surfaces.
	Stats(ctx context.Context, tenantID string) (*domain.TenantStats, error)
}
