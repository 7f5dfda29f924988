package services

import (
	"context"
	"errors"
	"math"

	"github.com/realvibe/evidence-engine/internal/core/domain"
	"github.com/realvibe/evidence-engine/internal/core/ports/driven"
	"github.com/realvibe/evidence-engine/internal/logger"
)

// ExcerptLimit is the display cap on evidence excerpts, in bytes.
// Longer chunk text is truncated with an ellipsis marker.
const ExcerptLimit = 200

// EvidenceAssembler hydrates index hits into citation-ready records.
type EvidenceAssembler struct {
	contentStore driven.ContentStore
}

// NewEvidenceAssembler creates a new evidence assembler.
func NewEvidenceAssembler(contentStore driven.ContentStore) *EvidenceAssembler {
	return &EvidenceAssembler{contentStore: contentStore}
}

// Assemble converts index hits into evidence records, preserving hit
// order. Hits whose chunk or document has been deleted since the
// search are skipped rather than failing the whole result set.
func (a *EvidenceAssembler) Assemble(ctx context.Context, tenantID string, hits []driven.VectorHit) ([]domain.EvidenceRecord, error) {
	records := make([]domain.EvidenceRecord, 0, len(hits))

	for _, hit := range hits {
		chunk, err := a.contentStore.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Debug("Skipping hit for deleted chunk %s", hit.ChunkID)
				continue
			}
			return nil, err
		}

		doc, err := a.contentStore.GetDocument(ctx, tenantID, hit.DocumentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Debug("Skipping hit for deleted document %s", hit.DocumentID)
				continue
			}
			return nil, err
		}

		records = append(records, domain.EvidenceRecord{
			DocumentID:   doc.ID,
			DocumentName: doc.Filename,
			Page:         chunk.Index + 1,
			Excerpt:      makeExcerpt(chunk.Content),
			Similarity:   roundSimilarity(hit.Similarity),
		})
	}

	return records, nil
}

// makeExcerpt truncates chunk text to the display cap.
func makeExcerpt(content string) string {
	if len(content) <= ExcerptLimit {
		return content
	}
	return content[:ExcerptLimit] + "..."
}

// roundSimilarity rounds a score to three decimals so output is stable
// across runs and providers.
func roundSimilarity(s float64) float64 {
	return math.Round(s*1000) / 1000
}
