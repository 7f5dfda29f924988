package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realvibe/evidence-engine/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDoc(id, tenantID, fingerprint string) *domain.Document {
	return &domain.Document{
		ID:          id,
		TenantID:    tenantID,
		Filename:    id + ".txt",
		Fingerprint: fingerprint,
		Status:      domain.StatusPending,
	}
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	store := newTestStore(t)
	assert.NotEmpty(t, store.Path())
}

func TestNewStore_MigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestSaveDocument_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := testDoc("d1", "t1", "fp1")
	doc.Content = "normalised text"
	doc.PageCount = 3
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "t1", "d1")
	require.NoError(t, err)
	assert.Equal(t, "d1.txt", got.Filename)
	assert.Equal(t, "normalised text", got.Content)
	assert.Equal(t, 3, got.PageCount)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSaveDocument_UpdateInPlace(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := testDoc("d1", "t1", "fp1")
	require.NoError(t, store.SaveDocument(ctx, doc))

	doc.Status = domain.StatusCompleted
	doc.PageCount = 7
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "t1", "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, 7, got.PageCount)
}

func TestSaveDocument_FingerprintConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDoc("d1", "t1", "fp1")))

	err := store.SaveDocument(ctx, testDoc("d2", "t1", "fp1"))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	// Other tenants are unaffected by the constraint.
	assert.NoError(t, store.SaveDocument(ctx, testDoc("d3", "t2", "fp1")))
}

func TestGetDocument_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetDocument(context.Background(), "t1", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetDocument_TenantScoped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDoc("d1", "t1", "fp1")))

	_, err := store.GetDocument(ctx, "other", "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindByFingerprint(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDoc("d1", "t1", "fp1")))

	got, err := store.FindByFingerprint(ctx, "t1", "fp1")
	require.NoError(t, err)
	assert.Equal(t, "d1", got.ID)

	_, err = store.FindByFingerprint(ctx, "t1", "other")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListDocuments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := testDoc("older", "t1", "fp1")
	older.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveDocument(ctx, older))
	require.NoError(t, store.SaveDocument(ctx, testDoc("newer", "t1", "fp2")))
	require.NoError(t, store.SaveDocument(ctx, testDoc("foreign", "t2", "fp3")))

	docs, err := store.ListDocuments(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "newer", docs[0].ID)
	assert.Equal(t, "older", docs[1].ID)
}

func TestChunks_RoundTripWithEmbedding(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDoc("d1", "t1", "fp1")))

	chunks := []domain.Chunk{
		{
			ID:         "c1",
			DocumentID: "d1",
			Index:      0,
			Content:    "first passage",
			Embedding: domain.EmbeddingVector{
				Provider: "openai:text-embedding-3-small",
				Values:   []float32{0.1, -0.2, 0.3},
			},
		},
		{
			ID:         "c2",
			DocumentID: "d1",
			Index:      1,
			Content:    "second passage",
		},
	}
	require.NoError(t, store.SaveChunks(ctx, chunks))

	got, err := store.GetChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, "openai:text-embedding-3-small", got[0].Embedding.Provider)
	assert.Equal(t, []float32{0.1, -0.2, 0.3}, got[0].Embedding.Values)
	assert.True(t, got[0].HasEmbedding())
	assert.False(t, got[1].HasEmbedding(), "chunk saved without a vector must come back without one")

	chunk, err := store.GetChunk(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "second passage", chunk.Content)
}

func TestGetChunk_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetChunk(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteChunks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDoc("d1", "t1", "fp1")))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Index: 0, Content: "text"},
	}))

	require.NoError(t, store.DeleteChunks(ctx, "d1"))

	chunks, err := store.GetChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestDeleteDocument_CascadesToChunks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDoc("d1", "t1", "fp1")))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Index: 0, Content: "text"},
	}))

	require.NoError(t, store.DeleteDocument(ctx, "t1", "d1"))

	_, err := store.GetDocument(ctx, "t1", "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.GetChunk(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteDocument_WrongTenant(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDoc("d1", "t1", "fp1")))

	err := store.DeleteDocument(ctx, "t2", "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFloat32BlobRoundTrip(t *testing.T) {
	vals := []float32{0, 1.5, -2.25, 3.14159}
	assert.Equal(t, vals, bytesToFloat32Slice(float32SliceToBytes(vals)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
