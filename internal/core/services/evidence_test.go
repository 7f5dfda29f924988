package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeExcerpt(t *testing.T) {
	t.Run("short content unchanged", func(t *testing.T) {
		assert.Equal(t, "short text", makeExcerpt("short text"))
	})

	t.Run("exactly at limit unchanged", func(t *testing.T) {
		content := strings.Repeat("a", ExcerptLimit)
		assert.Equal(t, content, makeExcerpt(content))
	})

	t.Run("over limit truncated with ellipsis", func(t *testing.T) {
		content := strings.Repeat("a", ExcerptLimit+1)
		got := makeExcerpt(content)
		assert.Len(t, got, ExcerptLimit+3)
		assert.Equal(t, content[:ExcerptLimit]+"...", got)
	})
}

func TestRoundSimilarity(t *testing.T) {
	assert.Equal(t, 0.707, roundSimilarity(0.70710678))
	assert.Equal(t, 0.708, roundSimilarity(0.7075))
	assert.Equal(t, 1.0, roundSimilarity(0.99999))
	assert.Equal(t, 0.0, roundSimilarity(0.0))
}
