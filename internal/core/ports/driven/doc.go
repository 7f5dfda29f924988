// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): content storage, embedding providers and
// the vector index.
package driven
