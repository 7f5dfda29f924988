package driving

import (
	"context"

	"github.com/realvibe/evidence-engine/internal/core/domain"
)

// MaxTopK is the hard cap on requested results. Larger values are
// clamped silently, not rejected.
const MaxTopK = 20

// SearchService answers natural-language field queries with ranked,
// provenance-tagged evidence records.
type SearchService interface {
	// Search embeds the query text and returns the most similar chunks
	// as evidence records. An empty query returns an empty result set
	// without calling any provider.
	Search(ctx context.Context, tenantID, query string, topK int, minSimilarity float64) ([]domain.EvidenceRecord, error)
}
