// Package postprocessors provides document content processing
// implementations that turn extracted text into searchable chunks.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/realvibe/evidence-engine/internal/core/domain"
)

// PostProcessor transforms a document's content into chunks, or
// transforms chunks produced by an earlier processor.
type PostProcessor interface {
	// Name returns the processor name for error reporting.
	Name() string

	// Process receives the document and the chunks produced so far.
	// The first processor in a pipeline receives nil chunks and should
	// create them.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// Pipeline chains multiple PostProcessors and runs them in order.
type Pipeline struct {
	processors []PostProcessor
}

// NewPipeline creates a new processing pipeline with the given
// processors. Processors are executed in the order provided.
func NewPipeline(processors ...PostProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs the document through all processors in order.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	var chunks []domain.Chunk

	for _, processor := range p.processors {
		var err error
		chunks, err = processor.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return chunks, nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}
