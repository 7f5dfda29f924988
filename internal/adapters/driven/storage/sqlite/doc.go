// Package sqlite provides the durable content store backed by an
// embedded SQLite database. The schema lives in embedded migrations
// applied at startup; embeddings are stored as little-endian float32
// blobs next to their chunk text.
package sqlite
