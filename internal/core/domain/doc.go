// Package domain contains the core business entities for the evidence
// retrieval engine: documents, chunks, embedding vectors and the
// evidence records derived from them at query time.
//
// The domain layer has no dependencies on adapters or infrastructure.
package domain
