package local

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed_Deterministic(t *testing.T) {
	p := New()

	a, err := p.Embed(context.Background(), "principal investigator name")
	require.NoError(t, err)
	b, err := p.Embed(context.Background(), "principal investigator name")
	require.NoError(t, err)

	assert.Equal(t, a, b, "identical text must produce identical vectors")
}

func TestEmbed_Dimensions(t *testing.T) {
	p := New()
	vec, err := p.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Len(t, vec, DefaultDimensions)
	assert.Equal(t, DefaultDimensions, p.Dimensions())

	small := New(WithDimensions(64))
	vec, err = small.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Len(t, vec, 64)
}

func TestEmbed_Normalised(t *testing.T) {
	p := New()
	vec, err := p.Embed(context.Background(), "the investigator enrolled twelve subjects at the site")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestEmbed_EmptyText(t *testing.T) {
	p := New()
	vec, err := p.Embed(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, vec, DefaultDimensions)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestEmbed_StopwordsIgnored(t *testing.T) {
	p := New()
	a, err := p.Embed(context.Background(), "the and of investigator")
	require.NoError(t, err)
	b, err := p.Embed(context.Background(), "investigator")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEmbed_SimilarTextsCloserThanUnrelated(t *testing.T) {
	p := New()
	ctx := context.Background()

	inv1, err := p.Embed(ctx, "principal investigator dr smith oversees the trial")
	require.NoError(t, err)
	inv2, err := p.Embed(ctx, "dr smith serves as principal investigator")
	require.NoError(t, err)
	other, err := p.Embed(ctx, "shipping address warehouse loading dock hours")
	require.NoError(t, err)

	assert.Greater(t, dot(inv1, inv2), dot(inv1, other))
}

func TestEmbedBatch(t *testing.T) {
	p := New()
	vecs, err := p.EmbedBatch(context.Background(), []string{"one", "two", "three"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for _, v := range vecs {
		assert.Len(t, v, DefaultDimensions)
	}
}

func TestPing(t *testing.T) {
	assert.NoError(t, New().Ping(context.Background()))
}

// dot computes the dot product of two normalised vectors.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
