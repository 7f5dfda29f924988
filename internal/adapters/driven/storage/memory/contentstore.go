// Package memory implements an in-memory content store. Used in tests
// and as a zero-setup backend; the durable backend is the sqlite
// package.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/realvibe/evidence-engine/internal/core/domain"
	"github.com/realvibe/evidence-engine/internal/core/ports/driven"
)

// Ensure ContentStore implements the interface.
var _ driven.ContentStore = (*ContentStore)(nil)

// ContentStore keeps documents and chunks in process memory.
type ContentStore struct {
	mu        sync.RWMutex
	documents map[string]*domain.Document // keyed by document ID
	chunks    map[string][]domain.Chunk   // keyed by document ID, ordered by index
}

// New creates an empty in-memory content store.
func New() *ContentStore {
	return &ContentStore{
		documents: make(map[string]*domain.Document),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// SaveDocument stores or updates a document. Enforces per-tenant
// fingerprint uniqueness the same way the SQLite schema does.
func (s *ContentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document ID is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.documents {
		if existing.ID != doc.ID &&
			existing.TenantID == doc.TenantID &&
			existing.Fingerprint == doc.Fingerprint {
			return fmt.Errorf("%w: fingerprint %s", domain.ErrAlreadyExists, doc.Fingerprint)
		}
	}

	copied := *doc
	s.documents[doc.ID] = &copied
	return nil
}

// GetDocument retrieves a tenant's document by ID.
func (s *ContentStore) GetDocument(_ context.Context, tenantID, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok || doc.TenantID != tenantID {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	copied := *doc
	return &copied, nil
}

// FindByFingerprint looks up a tenant's document by content fingerprint.
func (s *ContentStore) FindByFingerprint(_ context.Context, tenantID, fingerprint string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.documents {
		if doc.TenantID == tenantID && doc.Fingerprint == fingerprint {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: fingerprint %s", domain.ErrNotFound, fingerprint)
}

// ListDocuments returns all documents for a tenant, newest first.
func (s *ContentStore) ListDocuments(_ context.Context, tenantID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []domain.Document
	for _, doc := range s.documents {
		if doc.TenantID == tenantID {
			docs = append(docs, *doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

// SaveChunks stores chunks, replacing any chunk with the same ID.
func (s *ContentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		if chunk.ID == "" || chunk.DocumentID == "" {
			return fmt.Errorf("%w: chunk ID and document ID are required", domain.ErrInvalidInput)
		}
		existing := s.chunks[chunk.DocumentID]
		replaced := false
		for i := range existing {
			if existing[i].ID == chunk.ID {
				existing[i] = chunk
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, chunk)
		}
		sort.Slice(existing, func(i, j int) bool {
			return existing[i].Index < existing[j].Index
		})
		s.chunks[chunk.DocumentID] = existing
	}
	return nil
}

// GetChunks retrieves all chunks for a document ordered by index.
func (s *ContentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := s.chunks[documentID]
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out, nil
}

// GetChunk retrieves a chunk by ID.
func (s *ContentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, chunks := range s.chunks {
		for _, chunk := range chunks {
			if chunk.ID == id {
				copied := chunk
				return &copied, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: chunk %s", domain.ErrNotFound, id)
}

// DeleteChunks removes all chunks for a document.
func (s *ContentStore) DeleteChunks(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.chunks, documentID)
	return nil
}

// DeleteDocument removes a tenant's document and its chunks.
func (s *ContentStore) DeleteDocument(_ context.Context, tenantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok || doc.TenantID != tenantID {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	delete(s.documents, id)
	delete(s.chunks, id)
	return nil
}

// Close releases resources.
func (s *ContentStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = make(map[string]*domain.Document)
	s.chunks = make(map[string][]domain.Chunk)
	return nil
}
