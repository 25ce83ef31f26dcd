// Package embedding turns text into fixed-length numeric vectors for
// the schema context index.
package embedding

// Provider defines the interface for embedding providers.
//
// The shipped implementation is a deterministic heuristic, not a
// semantic model; retrieval and indexing depend only on this interface
// and on the idempotence property (same text, same vector), so a real
// text-embedding model can be substituted without touching them.
type Provider interface {
	// Embed generates an embedding for the given text.
	Embed(text string) []float32

	// Dimensions returns the dimensionality of produced vectors.
	Dimensions() int

	// Name returns the provider name for identification.
	Name() string
}
