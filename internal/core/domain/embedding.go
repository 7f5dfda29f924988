package domain

// EmbeddingVector is a fixed-length vector tagged with the provider
// that produced it.
//
// Vectors from different providers live in different spaces and are not
// numerically comparable. The provider tag exists so that the vector
// index can partition candidates and never rank vectors from one
// provider against a query vector from another.
type EmbeddingVector struct {
	// Provider identifies the producing embedding provider,
	// e.g. "openai:text-embedding-3-small" or "local:hash-v1".
	Provider string

	// Values is the ordered sequence of vector components.
	Values []float32
}

// Dimensions returns the vector length.
func (v EmbeddingVector) Dimensions() int {
	return len(v.Values)
}

// IsZero reports whether the vector is empty.
func (v EmbeddingVector) IsZero() bool {
	return len(v.Values) == 0
}
