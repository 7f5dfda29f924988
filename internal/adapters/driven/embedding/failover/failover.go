// Package failover composes embedding providers into a ranked chain.
// Providers are tried in order; the first success wins and the vector
// is tagged with that provider's name. Fallback is an explicit branch
// on a reported failure, not exception-driven control flow.
package failover

import (
	"context"
	"fmt"
	"time"

	"github.com/realvibe/evidence-engine/internal/core/domain"
	"github.com/realvibe/evidence-engine/internal/core/ports/driven"
	"github.com/realvibe/evidence-engine/internal/logger"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// DefaultCallTimeout bounds a single provider attempt. A provider call
// exceeding it counts as a provider failure and triggers fallback, not
// a caller-visible hang.
const DefaultCallTimeout = 30 * time.Second

// pingTimeout bounds the reachability probe in ActiveProvider.
const pingTimeout = 5 * time.Second

// Embedder tries each provider in rank order.
type Embedder struct {
	chain       []driven.EmbeddingProvider
	callTimeout time.Duration
}

// Option configures the failover embedder.
type Option func(*Embedder)

// WithCallTimeout sets the per-provider attempt timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Embedder) {
		if d > 0 {
			e.callTimeout = d
		}
	}
}

// New creates a failover embedder over the given providers, ranked
// highest quality first. The last provider should be one that cannot
// fail (e.g. the local hashing embedder).
func New(providers []driven.EmbeddingProvider, opts ...Option) (*Embedder, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("failover: at least one provider is required")
	}

	e := &Embedder{
		chain:       providers,
		callTimeout: DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Embed converts text into a provider-tagged vector, trying each
// provider in turn. Returns domain.ErrEmbeddingExhausted only when
// every provider fails; caller cancellation aborts the chain early.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingVector, error) {
	var lastErr error

	for _, provider := range e.chain {
		attemptCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		values, err := provider.Embed(attemptCtx, text)
		cancel()

		if err == nil && len(values) > 0 {
			return domain.EmbeddingVector{
				Provider: provider.Name(),
				Values:   values,
			}, nil
		}

		// Caller cancellation is not a provider failure: stop here
		// instead of falling through the rest of the chain.
		if ctx.Err() != nil {
			return domain.EmbeddingVector{}, ctx.Err()
		}

		if err == nil {
			err = fmt.Errorf("provider %s returned an empty vector", provider.Name())
		}
		logger.Warn("Embedding provider %s failed: %v (trying next)", provider.Name(), err)
		lastErr = err
	}

	return domain.EmbeddingVector{}, fmt.Errorf("%w: %v", domain.ErrEmbeddingExhausted, lastErr)
}

// ActiveProvider returns the name of the first reachable provider.
func (e *Embedder) ActiveProvider(ctx context.Context) string {
	for _, provider := range e.chain {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := provider.Ping(pingCtx)
		cancel()
		if err == nil {
			return provider.Name()
		}
		logger.Debug("Provider %s unreachable: %v", provider.Name(), err)
	}
	return ""
}

// Close closes every provider in the chain, returning the first error.
func (e *Embedder) Close() error {
	var firstErr error
	for _, provider := range e.chain {
		if err := provider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
