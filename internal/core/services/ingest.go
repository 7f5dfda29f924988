package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/realvibe/evidence-engine/internal/core/domain"
	"github.com/realvibe/evidence-engine/internal/core/ports/driven"
	"github.com/realvibe/evidence-engine/internal/core/ports/driving"
	"github.com/realvibe/evidence-engine/internal/logger"
	"github.com/realvibe/evidence-engine/internal/normalisers/plaintext"
	"github.com/realvibe/evidence-engine/internal/postprocessors"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// defaultEmbedConcurrency bounds concurrent embedding calls per
// document so a large upload cannot saturate the provider.
const defaultEmbedConcurrency = 4

// IngestService manages the document lifecycle: upload, dedup,
// extraction callback, chunking, embedding and index population.
type IngestService struct {
	contentStore driven.ContentStore
	index        driven.VectorIndex
	embedder     driven.Embedder
	pipeline     *postprocessors.Pipeline

	// uploadLocks serialises the duplicate check per (tenant,
	// fingerprint) so concurrent identical uploads cannot both pass it.
	// The store's uniqueness constraint remains as a backstop.
	mu          sync.Mutex
	uploadLocks map[string]*sync.Mutex

	embedConcurrency int
}

// IngestOption configures the ingest service.
type IngestOption func(*IngestService)

// WithEmbedConcurrency sets the number of parallel embedding calls
// used while processing one document.
func WithEmbedConcurrency(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.embedConcurrency = n
		}
	}
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	contentStore driven.ContentStore,
	index driven.VectorIndex,
	embedder driven.Embedder,
	pipeline *postprocessors.Pipeline,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		contentStore:     contentStore,
		index:            index,
		embedder:         embedder,
		pipeline:         pipeline,
		uploadLocks:      make(map[string]*sync.Mutex),
		embedConcurrency: defaultEmbedConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload registers raw document bytes for a tenant. Identical bytes
// resolve to the existing document with Duplicate set.
func (s *IngestService) Upload(ctx context.Context, tenantID, filename string, raw []byte) (*driving.UploadResult, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant ID is required", domain.ErrInvalidInput)
	}
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: document is empty", domain.ErrInvalidInput)
	}

	fingerprint := domain.Fingerprint(raw)

	unlock := s.lockFingerprint(tenantID, fingerprint)
	defer unlock()

	existing, err := s.contentStore.FindByFingerprint(ctx, tenantID, fingerprint)
	if err == nil {
		logger.Debug("Upload of %s matched existing document %s", filename, existing.ID)
		return &driving.UploadResult{DocumentID: existing.ID, Duplicate: true}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("checking fingerprint: %w", err)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		Filename:    filename,
		Fingerprint: fingerprint,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.contentStore.SaveDocument(ctx, doc); err != nil {
		// A concurrent upload may have won the race past our lock via a
		// different store instance. Resolve to the winner's document.
		if errors.Is(err, domain.ErrAlreadyExists) {
			winner, findErr := s.contentStore.FindByFingerprint(ctx, tenantID, fingerprint)
			if findErr != nil {
				return nil, fmt.Errorf("resolving duplicate: %w", findErr)
			}
			return &driving.UploadResult{DocumentID: winner.ID, Duplicate: true}, nil
		}
		return nil, fmt.Errorf("saving document: %w", err)
	}

	logger.Info("Uploaded %s as document %s", filename, doc.ID)
	return &driving.UploadResult{DocumentID: doc.ID, Duplicate: false}, nil
}

// CompleteExtraction handles the extraction callback: it normalises
// the text, purges any previous chunks and index entries, re-chunks,
// embeds and indexes. Chunks whose embedding fails across the whole
// provider chain are counted and dropped; the document stays
// queryable through its remaining chunks.
func (s *IngestService) CompleteExtraction(ctx context.Context, tenantID, documentID, text string) (*driving.IngestOutcome, error) {
	doc, err := s.contentStore.GetDocument(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}

	// Purge before rebuild so stale chunks never coexist with fresh
	// ones, in the index or in the store.
	if err := s.index.RemoveDocument(ctx, tenantID, documentID); err != nil {
		return nil, fmt.Errorf("purging index: %w", err)
	}
	if err := s.contentStore.DeleteChunks(ctx, documentID); err != nil {
		return nil, fmt.Errorf("purging chunks: %w", err)
	}

	doc.Content = plaintext.Normalise(text)

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunking document: %w", err)
	}

	outcome := &driving.IngestOutcome{ChunksCreated: len(chunks)}

	embedded, failed, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}
	outcome.EmbeddingsFailed = failed

	for _, chunk := range embedded {
		if err := s.contentStore.SaveChunks(ctx, []domain.Chunk{chunk}); err != nil {
			return nil, fmt.Errorf("saving chunk %d: %w", chunk.Index, err)
		}
		if err := s.index.Add(ctx, driven.VectorEntry{
			ChunkID:    chunk.ID,
			DocumentID: doc.ID,
			TenantID:   tenantID,
			Vector:     chunk.Embedding,
			UploadedAt: doc.CreatedAt,
		}); err != nil {
			return nil, fmt.Errorf("indexing chunk %d: %w", chunk.Index, err)
		}
		outcome.EmbeddingsCreated++
	}

	doc.PageCount = len(chunks)
	doc.Status = domain.StatusCompleted
	doc.UpdatedAt = time.Now().UTC()
	if err := s.contentStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("updating document: %w", err)
	}

	logger.Info("Processed document %s: %d chunks, %d embedded, %d failed",
		documentID, outcome.ChunksCreated, outcome.EmbeddingsCreated, outcome.EmbeddingsFailed)
	return outcome, nil
}

// embedChunks embeds chunks with bounded concurrency, preserving
// chunk order. A chunk whose embedding is exhausted across the chain
// is dropped and counted; any other error aborts processing.
func (s *IngestService) embedChunks(ctx context.Context, chunks []domain.Chunk) ([]domain.Chunk, int, error) {
	results := make([]domain.Chunk, len(chunks))
	exhausted := make([]bool, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.embedConcurrency)

	for i := range chunks {
		i := i
		g.Go(func() error {
			vec, err := s.embedder.Embed(gctx, chunks[i].Content)
			if err != nil {
				if errors.Is(err, domain.ErrEmbeddingExhausted) {
					logger.Warn("Embedding failed for chunk %d: %v", chunks[i].Index, err)
					exhausted[i] = true
					return nil
				}
				return err
			}
			chunk := chunks[i]
			chunk.Embedding = vec
			results[i] = chunk
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("embedding chunks: %w", err)
	}

	embedded := make([]domain.Chunk, 0, len(chunks))
	failed := 0
	for i := range chunks {
		if exhausted[i] {
			failed++
			continue
		}
		embedded = append(embedded, results[i])
	}
	return embedded, failed, nil
}

// FailExtraction marks a document as failed. It keeps zero chunks and
// is excluded from search until reprocessed.
func (s *IngestService) FailExtraction(ctx context.Context, tenantID, documentID, reason string) error {
	doc, err := s.contentStore.GetDocument(ctx, tenantID, documentID)
	if err != nil {
		return err
	}

	if err := s.index.RemoveDocument(ctx, tenantID, documentID); err != nil {
		return fmt.Errorf("purging index: %w", err)
	}
	if err := s.contentStore.DeleteChunks(ctx, documentID); err != nil {
		return fmt.Errorf("purging chunks: %w", err)
	}

	doc.Status = domain.StatusFailed
	doc.UpdatedAt = time.Now().UTC()
	if err := s.contentStore.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("updating document: %w", err)
	}

	logger.Warn("Extraction failed for document %s: %s", documentID, reason)
	return nil
}

// DeleteDocument removes a document, its chunks and its index entries.
// The index is cleared first so in-flight queries never surface hits
// for chunks that are about to disappear.
func (s *IngestService) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	if err := s.index.RemoveDocument(ctx, tenantID, documentID); err != nil {
		return fmt.Errorf("removing index entries: %w", err)
	}
	if err := s.contentStore.DeleteDocument(ctx, tenantID, documentID); err != nil {
		return err
	}
	logger.Info("Deleted document %s", documentID)
	return nil
}

// Reindex rebuilds the tenant's vector index from persisted chunks.
// The index is volatile; callers run this at startup.
func (s *IngestService) Reindex(ctx context.Context, tenantID string) error {
	docs, err := s.contentStore.ListDocuments(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	indexed := 0
	for _, doc := range docs {
		chunks, err := s.contentStore.GetChunks(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("loading chunks for %s: %w", doc.ID, err)
		}
		for _, chunk := range chunks {
			if !chunk.HasEmbedding() {
				continue
			}
			if err := s.index.Add(ctx, driven.VectorEntry{
				ChunkID:    chunk.ID,
				DocumentID: doc.ID,
				TenantID:   tenantID,
				Vector:     chunk.Embedding,
				UploadedAt: doc.CreatedAt,
			}); err != nil {
				return fmt.Errorf("indexing chunk %s: %w", chunk.ID, err)
			}
			indexed++
		}
	}

	logger.Debug("Reindexed %d vectors for tenant %s", indexed, tenantID)
	return nil
}

// Stats summarises the tenant's corpus.
func (s *IngestService) Stats(ctx context.Context, tenantID string) (*domain.TenantStats, error) {
	docs, err := s.contentStore.ListDocuments(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	stats := &domain.TenantStats{TotalDocuments: len(docs)}
	for _, doc := range docs {
		chunks, err := s.contentStore.GetChunks(ctx, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("loading chunks for %s: %w", doc.ID, err)
		}
		stats.TotalChunks += len(chunks)
		for _, chunk := range chunks {
			if chunk.HasEmbedding() {
				stats.DocumentsWithEmbeddings++
				break
			}
		}
	}

	if s.embedder != nil {
		stats.ActiveEmbeddingProvider = s.embedder.ActiveProvider(ctx)
	}
	return stats, nil
}

// lockFingerprint acquires the per-(tenant, fingerprint) upload lock
// and returns its release function.
func (s *IngestService) lockFingerprint(tenantID, fingerprint string) func() {
	key := tenantID + "\x00" + fingerprint

	s.mu.Lock()
	lock, ok := s.uploadLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.uploadLocks[key] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
