// Package chunker splits normalised document text into overlapping
// passages at sentence boundaries.
package chunker

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/realvibe/evidence-engine/internal/core/domain"
	"github.com/realvibe/evidence-engine/internal/normalisers/plaintext"
)

// DefaultChunkSize is the default target number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters
// between consecutive chunks.
const DefaultChunkOverlap = 200

// boundaryRatio is the fraction of the target window a sentence break
// must reach before it is accepted. Breaks earlier than this would
// produce degenerate tiny chunks.
const boundaryRatio = 0.7

// sentenceDelims are the boundaries searched for, in source text after
// whitespace normalisation. The paragraph break is kept for callers
// that feed pre-normalised text containing newlines.
var sentenceDelims = []string{". ", "! ", "? ", "\n\n"}

// Processor splits document content into overlapping chunks, preferring
// sentence boundaries, then word boundaries, then a hard cut.
// It implements the postprocessors.PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must leave room for forward progress
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks with 0-based indices.
// Input chunks are ignored; this processor creates new chunks from
// document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	texts := p.Split(doc.Content)

	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Index:      i,
			Content:    text,
		})
	}

	return chunks, nil
}

// Split normalises the text and returns the chunk texts.
//
// The window advances by (chosen end - overlap) each iteration and is
// forced past its previous start when overlap would stall it, so the
// loop always terminates.
func (p *Processor) Split(text string) []string {
	text = plaintext.Normalise(text)
	if text == "" {
		return nil
	}

	minBreak := int(float64(p.chunkSize) * boundaryRatio)
	var out []string

	start := 0
	for start < len(text) {
		if len(text)-start <= p.chunkSize {
			// Final chunk: the whole remainder
			if c := strings.TrimSpace(text[start:]); c != "" {
				out = append(out, c)
			}
			break
		}

		window := text[start : start+p.chunkSize]

		// Prefer the latest sentence boundary at or past 70% of the window
		end := 0
		for _, delim := range sentenceDelims {
			idx := strings.LastIndex(window, delim)
			if idx < 0 {
				continue
			}
			if cand := idx + len(delim); cand >= minBreak && cand > end {
				end = cand
			}
		}

		// Fall back to the last word boundary
		if end == 0 {
			if ws := strings.LastIndexByte(window, ' '); ws > 0 {
				end = ws
			}
		}

		// Hard cut: the only case where a chunk may split mid-word
		if end == 0 {
			end = p.chunkSize
		}

		if c := strings.TrimSpace(window[:end]); c != "" {
			out = append(out, c)
		}

		next := start + end - p.overlap
		if next <= start {
			next = start + end
		}
		start = next
	}

	return out
}
