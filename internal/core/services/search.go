package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/realvibe/evidence-engine/internal/core/domain"
	"github.com/realvibe/evidence-engine/internal/core/ports/driven"
	"github.com/realvibe/evidence-engine/internal/core/ports/driving"
	"github.com/realvibe/evidence-engine/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// DefaultTopK is the result count used when the caller passes zero or
// a negative value.
const DefaultTopK = 5

// SearchService answers field queries with ranked evidence records.
type SearchService struct {
	embedder  driven.Embedder
	index     driven.VectorIndex
	assembler *EvidenceAssembler
}

// NewSearchService creates a new search service.
func NewSearchService(
	embedder driven.Embedder,
	index driven.VectorIndex,
	assembler *EvidenceAssembler,
) *SearchService {
	return &SearchService{
		embedder:  embedder,
		index:     index,
		assembler: assembler,
	}
}

// Search embeds the query and returns the most similar chunks as
// evidence records. Out-of-range parameters are clamped, not rejected.
func (s *SearchService) Search(ctx context.Context, tenantID, query string, topK int, minSimilarity float64) ([]domain.EvidenceRecord, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	query = strings.TrimSpace(query)
	if query == "" {
		// Blank queries short-circuit: no provider call, no index scan.
		return []domain.EvidenceRecord{}, nil
	}

	topK = clampTopK(topK)
	minSimilarity = clampSimilarity(minSimilarity)

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	logger.Debug("Query embedded by %s", queryVec.Provider)

	hits, err := s.index.Search(ctx, tenantID, queryVec, topK, minSimilarity)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	return s.assembler.Assemble(ctx, tenantID, hits)
}

// clampTopK applies the default and the hard cap.
func clampTopK(topK int) int {
	if topK <= 0 {
		return DefaultTopK
	}
	if topK > driving.MaxTopK {
		return driving.MaxTopK
	}
	return topK
}

// clampSimilarity confines the threshold to the meaningful [0, 1]
// range for normalised text embeddings.
func clampSimilarity(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
