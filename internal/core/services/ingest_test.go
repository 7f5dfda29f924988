package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realvibe/evidence-engine/internal/adapters/driven/index/bruteforce"
	"github.com/realvibe/evidence-engine/internal/adapters/driven/storage/memory"
	"github.com/realvibe/evidence-engine/internal/core/domain"
	"github.com/realvibe/evidence-engine/internal/core/ports/driving"
	"github.com/realvibe/evidence-engine/internal/postprocessors"
	"github.com/realvibe/evidence-engine/internal/postprocessors/chunker"
)

// stubEmbedder is a controllable driven.Embedder for service tests.
type stubEmbedder struct {
	mu         sync.Mutex
	provider   string
	vectors    map[string][]float32 // exact-text overrides
	fallback   []float32
	failSubstr string // texts containing this exhaust the chain
	calls      int
}

func newStubEmbedder() *stubEmbedder {
	return &stubEmbedder{
		provider: "stub:test",
		vectors:  make(map[string][]float32),
		fallback: []float32{1, 0, 0},
	}
}

func (e *stubEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingVector, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.failSubstr != "" && strings.Contains(text, e.failSubstr) {
		return domain.EmbeddingVector{}, fmt.Errorf("%w: stub failure", domain.ErrEmbeddingExhausted)
	}
	values := e.fallback
	if v, ok := e.vectors[text]; ok {
		values = v
	}
	return domain.EmbeddingVector{Provider: e.provider, Values: values}, nil
}

func (e *stubEmbedder) ActiveProvider(_ context.Context) string { return e.provider }
func (e *stubEmbedder) Close() error                            { return nil }

// fixture bundles a fully wired ingest service over in-memory backends.
type fixture struct {
	store    *memory.ContentStore
	index    *bruteforce.Index
	embedder *stubEmbedder
	ingest   *IngestService
}

func newFixture(opts ...chunker.Option) *fixture {
	store := memory.New()
	index := bruteforce.New()
	embedder := newStubEmbedder()
	pipeline := postprocessors.NewPipeline(chunker.New(opts...))

	return &fixture{
		store:    store,
		index:    index,
		embedder: embedder,
		ingest:   NewIngestService(store, index, embedder, pipeline),
	}
}

// ingestText uploads raw bytes and completes extraction with the same
// text, returning the document ID and outcome.
func (f *fixture) ingestText(t *testing.T, tenantID, filename, text string) (string, *driving.IngestOutcome) {
	t.Helper()
	ctx := context.Background()

	result, err := f.ingest.Upload(ctx, tenantID, filename, []byte(text))
	require.NoError(t, err)

	outcome, err := f.ingest.CompleteExtraction(ctx, tenantID, result.DocumentID, text)
	require.NoError(t, err)
	return result.DocumentID, outcome
}

func TestUpload_CreatesPendingDocument(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.ingest.Upload(ctx, "t1", "protocol.txt", []byte("trial protocol text"))
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	require.NotEmpty(t, result.DocumentID)

	doc, err := f.store.GetDocument(ctx, "t1", result.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "protocol.txt", doc.Filename)
	assert.Equal(t, domain.StatusPending, doc.Status)
	assert.Equal(t, domain.Fingerprint([]byte("trial protocol text")), doc.Fingerprint)
}

func TestUpload_ValidatesInput(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.ingest.Upload(ctx, "", "a.txt", []byte("x"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.ingest.Upload(ctx, "t1", "", []byte("x"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.ingest.Upload(ctx, "t1", "a.txt", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpload_DuplicateBytesResolveToExistingDocument(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	raw := []byte("identical bytes")

	first, err := f.ingest.Upload(ctx, "t1", "original.txt", raw)
	require.NoError(t, err)

	second, err := f.ingest.Upload(ctx, "t1", "renamed.txt", raw)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.DocumentID, second.DocumentID)

	docs, err := f.store.ListDocuments(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, docs, 1, "a duplicate upload must not create a second document")
}

func TestUpload_SameBytesDifferentTenants(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	raw := []byte("shared content")

	a, err := f.ingest.Upload(ctx, "tenant-a", "doc.txt", raw)
	require.NoError(t, err)
	b, err := f.ingest.Upload(ctx, "tenant-b", "doc.txt", raw)
	require.NoError(t, err)

	assert.False(t, b.Duplicate, "dedup is per tenant, not global")
	assert.NotEqual(t, a.DocumentID, b.DocumentID)
}

func TestUpload_ConcurrentIdenticalUploads(t *testing.T) {
	f := newFixture()
	raw := []byte("raced bytes")

	const n = 8
	results := make([]*driving.UploadResult, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = f.ingest.Upload(context.Background(), "t1", "doc.txt", raw)
		}()
	}
	wg.Wait()

	winners := 0
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].DocumentID, results[i].DocumentID)
		if !results[i].Duplicate {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one racer may create the document")
}

func TestCompleteExtraction_ChunksEmbedsAndIndexes(t *testing.T) {
	f := newFixture(chunker.WithChunkSize(100), chunker.WithOverlap(20))
	ctx := context.Background()

	text := strings.Repeat("The investigator enrolled a subject at the site. ", 8)
	docID, outcome := f.ingestText(t, "t1", "notes.txt", text)

	assert.GreaterOrEqual(t, outcome.ChunksCreated, 2)
	assert.Equal(t, outcome.ChunksCreated, outcome.EmbeddingsCreated)
	assert.Zero(t, outcome.EmbeddingsFailed)

	doc, err := f.store.GetDocument(ctx, "t1", docID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, doc.Status)
	assert.Equal(t, outcome.ChunksCreated, doc.PageCount)

	chunks, err := f.store.GetChunks(ctx, docID)
	require.NoError(t, err)
	require.Len(t, chunks, outcome.ChunksCreated)
	for _, chunk := range chunks {
		assert.True(t, chunk.HasEmbedding())
		assert.Equal(t, "stub:test", chunk.Embedding.Provider)
	}

	hits, err := f.index.Search(ctx, "t1",
		domain.EmbeddingVector{Provider: "stub:test", Values: []float32{1, 0, 0}}, 50, 0)
	require.NoError(t, err)
	assert.Len(t, hits, outcome.ChunksCreated)
}

func TestCompleteExtraction_ReprocessPurgesStaleChunks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	docID, _ := f.ingestText(t, "t1", "doc.txt", "original extraction text")

	oldChunks, err := f.store.GetChunks(ctx, docID)
	require.NoError(t, err)
	require.NotEmpty(t, oldChunks)

	_, err = f.ingest.CompleteExtraction(ctx, "t1", docID, "revised extraction text")
	require.NoError(t, err)

	newChunks, err := f.store.GetChunks(ctx, docID)
	require.NoError(t, err)
	require.Len(t, newChunks, 1)
	assert.Equal(t, "revised extraction text", newChunks[0].Content)

	hits, err := f.index.Search(ctx, "t1",
		domain.EmbeddingVector{Provider: "stub:test", Values: []float32{1, 0, 0}}, 50, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1, "stale vectors must not survive reprocessing")
	assert.Equal(t, newChunks[0].ID, hits[0].ChunkID)
}

func TestCompleteExtraction_PartialEmbeddingFailure(t *testing.T) {
	f := newFixture(chunker.WithChunkSize(40), chunker.WithOverlap(0))
	f.embedder.failSubstr = "badtoken"
	ctx := context.Background()

	text := strings.Repeat("good words here now. ", 2) +
		"badtoken is here now. " +
		strings.Repeat("good words here now. ", 2)
	docID, outcome := f.ingestText(t, "t1", "doc.txt", text)

	assert.Equal(t, 1, outcome.EmbeddingsFailed)
	assert.Equal(t, outcome.ChunksCreated-1, outcome.EmbeddingsCreated)

	doc, err := f.store.GetDocument(ctx, "t1", docID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, doc.Status, "partial embedding failure is not fatal")

	chunks, err := f.store.GetChunks(ctx, docID)
	require.NoError(t, err)
	assert.Len(t, chunks, outcome.EmbeddingsCreated)
	for _, chunk := range chunks {
		assert.NotContains(t, chunk.Content, "badtoken", "failed chunks are dropped, not stored bare")
	}
}

func TestCompleteExtraction_UnknownDocument(t *testing.T) {
	f := newFixture()

	_, err := f.ingest.CompleteExtraction(context.Background(), "t1", "missing", "text")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFailExtraction(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.ingest.Upload(ctx, "t1", "scan.bin", []byte{0x89, 0x50, 0x4e, 0x47})
	require.NoError(t, err)

	require.NoError(t, f.ingest.FailExtraction(ctx, "t1", result.DocumentID, "not plain text"))

	doc, err := f.store.GetDocument(ctx, "t1", result.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, doc.Status)

	chunks, err := f.store.GetChunks(ctx, result.DocumentID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestDeleteDocument_RemovesEverything(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	docID, _ := f.ingestText(t, "t1", "doc.txt", "some searchable text")

	require.NoError(t, f.ingest.DeleteDocument(ctx, "t1", docID))

	_, err := f.store.GetDocument(ctx, "t1", docID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	hits, err := f.index.Search(ctx, "t1",
		domain.EmbeddingVector{Provider: "stub:test", Values: []float32{1, 0, 0}}, 50, 0)
	require.NoError(t, err)
	assert.Empty(t, hits, "deletion must leave no index entries behind")
}

func TestReindex_RebuildsFromStore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	docID, outcome := f.ingestText(t, "t1", "doc.txt", "persisted and indexed text")

	// Simulate a restart: fresh index, same store.
	f.index = bruteforce.New()
	f.ingest = NewIngestService(f.store, f.index, f.embedder,
		postprocessors.NewPipeline(chunker.New()))

	require.NoError(t, f.ingest.Reindex(ctx, "t1"))

	hits, err := f.index.Search(ctx, "t1",
		domain.EmbeddingVector{Provider: "stub:test", Values: []float32{1, 0, 0}}, 50, 0)
	require.NoError(t, err)
	assert.Len(t, hits, outcome.EmbeddingsCreated)
	assert.Equal(t, docID, hits[0].DocumentID)
}

func TestStats(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.ingestText(t, "t1", "a.txt", "first document text")
	f.ingestText(t, "t1", "b.txt", "second document text")

	// A failed document counts toward totals but has no embeddings.
	result, err := f.ingest.Upload(ctx, "t1", "c.bin", []byte{0x00, 0x01})
	require.NoError(t, err)
	require.NoError(t, f.ingest.FailExtraction(ctx, "t1", result.DocumentID, "binary"))

	stats, err := f.ingest.Stats(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalDocuments)
	assert.Equal(t, 2, stats.TotalChunks)
	assert.Equal(t, 2, stats.DocumentsWithEmbeddings)
	assert.Equal(t, "stub:test", stats.ActiveEmbeddingProvider)
}
