// Package bruteforce implements an exact in-memory vector index.
// Every query scores all candidates in its (tenant, provider)
// partition, which is fine at the corpus sizes a single tenant holds
// and keeps recall at 100% without an ANN dependency.
package bruteforce

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/realvibe/evidence-engine/internal/core/domain"
	"github.com/realvibe/evidence-engine/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a thread-safe brute-force similarity index partitioned by
// (tenant, provider). Vectors from different providers never meet in
// the same ranking.
type Index struct {
	mu         sync.RWMutex
	partitions map[string]*partition
}

// partition holds all vectors for one (tenant, provider) pair. All
// entries in a partition share one dimensionality.
type partition struct {
	dimensions int
	entries    []driven.VectorEntry
}

// New creates an empty index.
func New() *Index {
	return &Index{
		partitions: make(map[string]*partition),
	}
}

// partitionKey joins tenant and provider with a separator that cannot
// appear in either.
func partitionKey(tenantID, provider string) string {
	return tenantID + "\x00" + provider
}

// Add registers a vector in its (tenant, provider) partition.
func (idx *Index) Add(_ context.Context, entry driven.VectorEntry) error {
	if entry.Vector.IsZero() {
		return fmt.Errorf("%w: vector is empty", domain.ErrInvalidInput)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	key := partitionKey(entry.TenantID, entry.Vector.Provider)
	part, ok := idx.partitions[key]
	if !ok {
		part = &partition{dimensions: entry.Vector.Dimensions()}
		idx.partitions[key] = part
	}

	if entry.Vector.Dimensions() != part.dimensions {
		return fmt.Errorf("%w: partition %s holds %d-dimensional vectors, got %d",
			domain.ErrDimensionMismatch, entry.Vector.Provider, part.dimensions, entry.Vector.Dimensions())
	}

	// Replace in place when the chunk is re-indexed.
	for i := range part.entries {
		if part.entries[i].ChunkID == entry.ChunkID {
			part.entries[i] = entry
			return nil
		}
	}
	part.entries = append(part.entries, entry)
	return nil
}

// RemoveDocument drops every vector owned by the document across all
// of the tenant's partitions.
func (idx *Index) RemoveDocument(_ context.Context, tenantID, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for key, part := range idx.partitions {
		if !partitionBelongsTo(key, tenantID) {
			continue
		}
		kept := part.entries[:0]
		for _, entry := range part.entries {
			if entry.DocumentID != documentID {
				kept = append(kept, entry)
			}
		}
		part.entries = kept
		if len(part.entries) == 0 {
			delete(idx.partitions, key)
		}
	}
	return nil
}

// Search scores the query against every candidate in the matching
// (tenant, provider) partition, keeping hits at or above minSimilarity
// and returning the top K by similarity. Ties break by the owning
// document's upload time, most recent first, then by chunk ID.
func (idx *Index) Search(ctx context.Context, tenantID string, query domain.EmbeddingVector, topK int, minSimilarity float64) ([]driven.VectorHit, error) {
	if topK <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	part, ok := idx.partitions[partitionKey(tenantID, query.Provider)]
	if !ok {
		return nil, nil
	}
	if query.Dimensions() != part.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, partition holds %d",
			domain.ErrDimensionMismatch, query.Dimensions(), part.dimensions)
	}

	type candidate struct {
		entry driven.VectorEntry
		score float64
	}
	candidates := make([]candidate, 0, len(part.entries))
	for i, entry := range part.entries {
		// Scans can be large; honour cancellation between scorings.
		if i%1024 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		score := Cosine(query.Values, entry.Vector.Values)
		if score >= minSimilarity {
			candidates = append(candidates, candidate{entry: entry, score: score})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if !candidates[i].entry.UploadedAt.Equal(candidates[j].entry.UploadedAt) {
			return candidates[i].entry.UploadedAt.After(candidates[j].entry.UploadedAt)
		}
		return candidates[i].entry.ChunkID < candidates[j].entry.ChunkID
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	hits := make([]driven.VectorHit, len(candidates))
	for i, c := range candidates {
		hits[i] = driven.VectorHit{
			ChunkID:    c.entry.ChunkID,
			DocumentID: c.entry.DocumentID,
			Similarity: c.score,
		}
	}
	return hits, nil
}

// Close releases resources.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.partitions = make(map[string]*partition)
	return nil
}

// partitionBelongsTo reports whether the partition key is scoped to
// the given tenant.
func partitionBelongsTo(key, tenantID string) bool {
	return len(key) > len(tenantID) &&
		key[:len(tenantID)] == tenantID &&
		key[len(tenantID)] == '\x00'
}

// Cosine computes the cosine similarity of two equal-length vectors.
// Accumulation runs in float64 to limit rounding drift on long
// vectors. Either vector having zero magnitude yields 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
