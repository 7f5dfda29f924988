package driven

import (
	"context"

	"github.com/realvibe/evidence-engine/internal/core/domain"
)

// ContentStore persists documents and their chunks.
// Backed by SQLite for durable storage; an in-memory implementation
// exists for tests.
//
// Implementations must enforce per-tenant fingerprint uniqueness:
// SaveDocument returns domain.ErrAlreadyExists when another document
// with the same (tenant, fingerprint) pair already exists.
type ContentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a tenant's document by ID.
	GetDocument(ctx context.Context, tenantID, id string) (*domain.Document, error)

	// FindByFingerprint looks up a tenant's document by content
	// fingerprint. Returns domain.ErrNotFound when absent.
	FindByFingerprint(ctx context.Context, tenantID, fingerprint string) (*domain.Document, error)

	// ListDocuments returns all documents for a tenant.
	ListDocuments(ctx context.Context, tenantID string) ([]domain.Document, error)

	// SaveChunks stores chunks. Chunks may arrive one at a time as
	// embeddings complete; there is no atomicity requirement across a
	// document's chunks.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunks retrieves all chunks for a document ordered by index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// DeleteChunks removes all chunks for a document. Used before
	// reprocessing so stale and fresh chunks are never stored together.
	DeleteChunks(ctx context.Context, documentID string) error

	// DeleteDocument removes a tenant's document and its chunks.
	DeleteDocument(ctx context.Context, tenantID, id string) error

	// Close releases resources.
	Close() error
}
