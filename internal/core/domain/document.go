package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DocumentStatus tracks a document through text extraction.
type DocumentStatus string

const (
	// StatusPending means the document is uploaded but its text has not
	// been extracted yet.
	StatusPending DocumentStatus = "pending"

	// StatusCompleted means text extraction and chunking finished.
	StatusCompleted DocumentStatus = "completed"

	// StatusFailed means text extraction failed; the document has no
	// chunks and is excluded from search.
	StatusFailed DocumentStatus = "failed"
)

// Document represents an uploaded document owned by a tenant.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// TenantID scopes the document to the owning tenant (site).
	TenantID string

	// Filename is the human-readable display name.
	Filename string

	// Fingerprint is the SHA-256 hex digest of the raw uploaded bytes.
	// Unique per tenant: a re-upload of identical bytes resolves to the
	// existing document instead of creating a new one.
	Fingerprint string

	// Content is the full normalised text after extraction.
	Content string

	// PageCount is an approximate page/unit count for the document.
	PageCount int

	// Status is the extraction status.
	Status DocumentStatus

	// CreatedAt is when the document was first uploaded.
	CreatedAt time.Time

	// UpdatedAt is when the document was last modified.
	UpdatedAt time.Time
}

// Chunk is a contiguous passage of a document's normalised text.
// Chunks are the unit of embedding and retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Index is the 0-based ordinal position within the document.
	// It doubles as an approximate locality proxy for citations.
	Index int

	// Content is the text content of this chunk.
	Content string

	// Embedding is the provider-tagged vector representation.
	// May be empty when embedding failed for this chunk.
	Embedding EmbeddingVector
}

// HasEmbedding reports whether the chunk carries a usable vector.
func (c Chunk) HasEmbedding() bool {
	return len(c.Embedding.Values) > 0
}

// Fingerprint computes the content fingerprint for raw document bytes.
func Fingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
