// Package vectorstore provides persistence and similarity search for
// schema context vectors.
package vectorstore

import "context"

// Payload holds the metadata stored alongside a vector.
type Payload map[string]interface{}

// Record is a vector point with a stable identifier and payload.
type Record struct {
	ID      uint64
	Vector  []float32
	Payload Payload
}

// ScoredRecord is a search hit with its similarity score.
type ScoredRecord struct {
	ID      uint64
	Score   float64
	Payload Payload
}

// Filter selects records by an exact payload field match. A zero
// Filter matches everything.
type Filter struct {
	Field string
	Value string
}

// Store defines the operations the context index needs from a vector
// database. Implementations must report connectivity failures with the
// index-unavailable error type so callers can degrade instead of
// aborting.
type Store interface {
	// EnsureCollection creates the collection when it does not exist.
	EnsureCollection(ctx context.Context, dimensions int) error

	// Upsert writes records, replacing any with the same ID.
	Upsert(ctx context.Context, records []Record) error

	// Search returns up to limit records ordered by similarity to the
	// query vector, dropping hits below the score floor.
	Search(ctx context.Context, vector []float32, limit int, scoreFloor float64) ([]ScoredRecord, error)

	// Scroll returns up to limit records matching the filter without
	// ranking them.
	Scroll(ctx context.Context, filter Filter, limit int) ([]ScoredRecord, error)

	// Delete removes all records matching the filter.
	Delete(ctx context.Context, filter Filter) error
}
