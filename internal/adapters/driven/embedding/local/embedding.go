// Package local provides a deterministic in-process embedding provider
// used as the last fallback tier. It computes L2-normalised
// feature-hashed term frequency vectors: lower quality than a learned
// model, but always available and requiring no network access.
package local

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/realvibe/evidence-engine/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.EmbeddingProvider = (*Provider)(nil)

// DefaultDimensions matches the dimensionality of common small
// sentence-embedding models.
const DefaultDimensions = 384

// Provider embeds text by hashing tokens into a fixed number of
// buckets. Identical text always produces identical vectors.
type Provider struct {
	dimensions   int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// Option configures the local provider.
type Option func(*Provider)

// WithDimensions sets the vector size.
func WithDimensions(dims int) Option {
	return func(p *Provider) {
		if dims > 0 {
			p.dimensions = dims
		}
	}
}

// New creates a new local hashing embedder.
func New(opts ...Option) *Provider {
	p := &Provider{
		dimensions:   DefaultDimensions,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
		stopwords:    defaultStopwords(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "local:hash-v1"
}

// Embed computes the feature-hashed embedding for the given text.
// The signed-bucket scheme halves the bias introduced by hash
// collisions compared to unsigned counting.
func (p *Provider) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float64, p.dimensions)

	for _, token := range p.tokenize(text) {
		if _, isStop := p.stopwords[token]; isStop {
			continue
		}
		h := fnv.New64a()
		h.Write([]byte(token))
		sum := h.Sum64()
		bucket := int(sum % uint64(p.dimensions))
		if sum&(1<<63) != 0 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}

	// L2-normalise so cosine similarity reduces to a dot product
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	out := make([]float32, p.dimensions)
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i, v := range vec {
			out[i] = float32(v / norm)
		}
	}

	return out, nil
}

// EmbedBatch embeds each text in turn.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := p.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (p *Provider) Dimensions() int {
	return p.dimensions
}

// Ping always succeeds: the provider runs in-process.
func (p *Provider) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}

// tokenize lowercases and extracts word tokens.
func (p *Provider) tokenize(text string) []string {
	matches := p.tokenPattern.FindAllString(strings.ToLower(text), -1)
	return matches
}

// defaultStopwords lists high-frequency English terms that carry no
// signal for field matching.
func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
		"has", "he", "in", "is", "it", "its", "of", "on", "or", "that",
		"the", "to", "was", "were", "will", "with",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
