package domain

// EvidenceRecord is a citation-ready projection of a ranked chunk.
// It is derived at query time and never persisted.
type EvidenceRecord struct {
	// DocumentID identifies the source document.
	DocumentID string `json:"document_id"`

	// DocumentName is the document's display name.
	DocumentName string `json:"document_name"`

	// Page is the chunk index plus one, used as an approximate
	// (not authoritative) page/locality number.
	Page int `json:"page"`

	// Excerpt is the chunk text truncated for display.
	Excerpt string `json:"excerpt"`

	// Similarity is the cosine similarity score rounded to a fixed
	// precision for stable, comparable output.
	Similarity float64 `json:"similarity"`
}

// TenantStats summarises the indexed corpus for one tenant.
type TenantStats struct {
	// TotalDocuments is the number of uploaded documents.
	TotalDocuments int `json:"total_documents"`

	// TotalChunks is the number of stored chunks across all documents.
	TotalChunks int `json:"total_chunks"`

	// DocumentsWithEmbeddings counts documents that have at least one
	// embedded chunk and are therefore searchable.
	DocumentsWithEmbeddings int `json:"documents_with_embeddings"`

	// ActiveEmbeddingProvider is the provider currently answering
	// embedding requests.
	ActiveEmbeddingProvider string `json:"active_embedding_provider"`
}
