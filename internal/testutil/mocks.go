// Package testutil provides mocks and fixture builders shared by the
// package tests.
package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/askql/askql/internal/vectorstore"
)

// MockVectorStore implements vectorstore.Store in memory with error
// injection per operation.
type MockVectorStore struct {
	mu sync.RWMutex

	records          map[uint64]vectorstore.Record
	searchResults    []vectorstore.ScoredRecord
	searchConfigured bool
	errors           map[string]error
	callCounts       map[string]int
}

// StoreOption configures a MockVectorStore.
type StoreOption func(*MockVectorStore)

// WithRecords preloads stored records.
func WithRecords(records ...vectorstore.Record) StoreOption {
	return func(m *MockVectorStore) {
		for _, r := range records {
			m.records[r.ID] = r
		}
	}
}

// WithSearchResults fixes what Search returns regardless of stored
// records.
func WithSearchResults(results ...vectorstore.ScoredRecord) StoreOption {
	return func(m *MockVectorStore) {
		m.searchResults = results
		m.searchConfigured = true
	}
}

// WithStoreError injects an error for an operation: "ensure", "upsert",
// "search", "scroll", "delete", or "all".
func WithStoreError(op string, err error) StoreOption {
	return func(m *MockVectorStore) {
		m.errors[op] = err
	}
}

// NewMockVectorStore creates an empty in-memory store.
func NewMockVectorStore(opts ...StoreOption) *MockVectorStore {
	mock := &MockVectorStore{
		records:    make(map[uint64]vectorstore.Record),
		errors:     make(map[string]error),
		callCounts: make(map[string]int),
	}

	for _, opt := range opts {
		opt(mock)
	}

	return mock
}

func (m *MockVectorStore) errFor(op string) error {
	if err, ok := m.errors["all"]; ok {
		return err
	}

	return m.errors[op]
}

func (m *MockVectorStore) record(op string) {
	m.mu.Lock()
	m.callCounts[op]++
	m.mu.Unlock()
}

// CallCount returns how many times the operation ran.
func (m *MockVectorStore) CallCount(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.callCounts[op]
}

// Records returns the stored records sorted by ID.
func (m *MockVectorStore) Records() []vectorstore.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]vectorstore.Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

// EnsureCollection implements vectorstore.Store.
func (m *MockVectorStore) EnsureCollection(_ context.Context, _ int) error {
	m.record("ensure")

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.errFor("ensure")
}

// Upsert implements vectorstore.Store.
func (m *MockVectorStore) Upsert(_ context.Context, records []vectorstore.Record) error {
	m.record("upsert")

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.errFor("upsert"); err != nil {
		return err
	}

	for _, r := range records {
		m.records[r.ID] = r
	}

	return nil
}

// Search implements vectorstore.Store. Configured results take
// precedence; otherwise stored records are returned with a flat score.
func (m *MockVectorStore) Search(
	_ context.Context, _ []float32, limit int, scoreFloor float64,
) ([]vectorstore.ScoredRecord, error) {
	m.record("search")

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.errFor("search"); err != nil {
		return nil, err
	}

	if m.searchConfigured {
		out := make([]vectorstore.ScoredRecord, 0, len(m.searchResults))

		for _, r := range m.searchResults {
			if r.Score >= scoreFloor {
				out = append(out, r)
			}
		}

		if len(out) > limit {
			out = out[:limit]
		}

		return out, nil
	}

	stored := make([]vectorstore.ScoredRecord, 0, len(m.records))
	for _, r := range m.records {
		stored = append(stored, vectorstore.ScoredRecord{ID: r.ID, Score: 0.5, Payload: r.Payload})
	}

	sort.Slice(stored, func(i, j int) bool { return stored[i].ID < stored[j].ID })

	if len(stored) > limit {
		stored = stored[:limit]
	}

	return stored, nil
}

// Scroll implements vectorstore.Store.
func (m *MockVectorStore) Scroll(
	_ context.Context, filter vectorstore.Filter, limit int,
) ([]vectorstore.ScoredRecord, error) {
	m.record("scroll")

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.errFor("scroll"); err != nil {
		return nil, err
	}

	out := make([]vectorstore.ScoredRecord, 0, len(m.records))

	for _, r := range m.records {
		if matchesFilter(r.Payload, filter) {
			out = append(out, vectorstore.ScoredRecord{ID: r.ID, Payload: r.Payload})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// Delete implements vectorstore.Store.
func (m *MockVectorStore) Delete(_ context.Context, filter vectorstore.Filter) error {
	m.record("delete")

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.errFor("delete"); err != nil {
		return err
	}

	for id, r := range m.records {
		if matchesFilter(r.Payload, filter) {
			delete(m.records, id)
		}
	}

	return nil
}

func matchesFilter(payload vectorstore.Payload, filter vectorstore.Filter) bool {
	if filter.Field == "" {
		return true
	}

	value, _ := payload[filter.Field].(string)

	return value == filter.Value
}

// MockGenerator implements generator.Service with scripted answers and
// error injection.
type MockGenerator struct {
	mu sync.RWMutex

	askSQL     string
	errors     map[string]error
	callCounts map[string]int

	trainedDDL      []string
	trainedExamples [][2]string
}

// GeneratorOption configures a MockGenerator.
type GeneratorOption func(*MockGenerator)

// WithAskSQL sets the SQL Ask returns.
func WithAskSQL(sql string) GeneratorOption {
	return func(m *MockGenerator) {
		m.askSQL = sql
	}
}

// WithGeneratorError injects an error for "ask", "train", "health", or
// "all".
func WithGeneratorError(op string, err error) GeneratorOption {
	return func(m *MockGenerator) {
		m.errors[op] = err
	}
}

// NewMockGenerator creates a mock generation service.
func NewMockGenerator(opts ...GeneratorOption) *MockGenerator {
	mock := &MockGenerator{
		askSQL:     "SELECT 1",
		errors:     make(map[string]error),
		callCounts: make(map[string]int),
	}

	for _, opt := range opts {
		opt(mock)
	}

	return mock
}

func (m *MockGenerator) errFor(op string) error {
	if err, ok := m.errors["all"]; ok {
		return err
	}

	return m.errors[op]
}

// CallCount returns how many times the operation ran.
func (m *MockGenerator) CallCount(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.callCounts[op]
}

// TrainedDDL returns every DDL payload passed to TrainDDL.
func (m *MockGenerator) TrainedDDL() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]string(nil), m.trainedDDL...)
}

// TrainedExamples returns every question/SQL pair passed to
// TrainExample.
func (m *MockGenerator) TrainedExamples() [][2]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([][2]string(nil), m.trainedExamples...)
}

// Ask implements generator.Service.
func (m *MockGenerator) Ask(_ context.Context, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCounts["ask"]++

	if err := m.errFor("ask"); err != nil {
		return "", err
	}

	return m.askSQL, nil
}

// TrainDDL implements generator.Service.
func (m *MockGenerator) TrainDDL(_ context.Context, ddl string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCounts["train"]++

	if err := m.errFor("train"); err != nil {
		return err
	}

	m.trainedDDL = append(m.trainedDDL, ddl)

	return nil
}

// TrainExample implements generator.Service.
func (m *MockGenerator) TrainExample(_ context.Context, question, sql string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCounts["train"]++

	if err := m.errFor("train"); err != nil {
		return err
	}

	m.trainedExamples = append(m.trainedExamples, [2]string{question, sql})

	return nil
}

// CheckHealth implements generator.Service.
func (m *MockGenerator) CheckHealth(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCounts["health"]++

	return m.errFor("health")
}
