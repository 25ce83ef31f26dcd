package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/askql/askql/internal/embedding"
	"github.com/askql/askql/internal/logging"
	"github.com/askql/askql/internal/schema"
	"github.com/askql/askql/internal/vectorstore"
)

// Retriever finds schema context relevant to a question. It never
// returns an error: every internal failure degrades to a wider, less
// precise result instead of propagating.
type Retriever struct {
	store      vectorstore.Store
	embedder   embedding.Provider
	limit      int
	scoreFloor float64
	logger     *logging.Logger

	mu          sync.RWMutex
	descriptors []schema.TableDescriptor
}

// NewRetriever creates a retriever. limit and scoreFloor control the
// vector search width; the floor is kept near zero on purpose because
// the heuristic embedding produces weak similarity signals.
func NewRetriever(
	store vectorstore.Store,
	embedder embedding.Provider,
	limit int,
	scoreFloor float64,
	logger *logging.Logger,
) *Retriever {
	if limit <= 0 {
		limit = 10
	}

	if logger == nil {
		logger = logging.GetLogger()
	}

	return &Retriever{
		store:      store,
		embedder:   embedder,
		limit:      limit,
		scoreFloor: scoreFloor,
		logger:     logger,
	}
}

// UpdateDescriptors replaces the cached schema snapshot used by the
// text-match fallback. Tables are kept in name order so fallback output
// is stable across calls.
func (r *Retriever) UpdateDescriptors(descriptors map[string]schema.TableDescriptor) {
	names := make([]string, 0, len(descriptors))
	for name := range descriptors {
		names = append(names, name)
	}

	sort.Strings(names)

	snapshot := make([]schema.TableDescriptor, 0, len(names))
	for _, name := range names {
		snapshot = append(snapshot, descriptors[name])
	}

	r.mu.Lock()
	r.descriptors = snapshot
	r.mu.Unlock()
}

// Retrieve returns context blocks for the question, most relevant
// first. The result may be empty, but the call never fails: a vector
// search miss widens to all stored schema records, and an unreachable
// store degrades to plain substring matching against the cached
// descriptors.
func (r *Retriever) Retrieve(ctx context.Context, question string) []string {
	vector := r.embedder.Embed(question)

	hits, err := r.store.Search(ctx, vector, r.limit, r.scoreFloor)
	if err != nil {
		r.logger.WithError(err).Warn("Vector search failed, using text-match fallback")
		return r.textMatch(question)
	}

	contexts := make([]string, 0, len(hits))

	for _, hit := range hits {
		if hit.Score <= r.scoreFloor {
			continue
		}

		text, _ := hit.Payload["text"].(string)
		if text == "" {
			continue
		}

		recordType, _ := hit.Payload["type"].(string)

		contexts = append(contexts, fmt.Sprintf("%s: %s", recordType, text))
	}

	if len(contexts) > 0 {
		r.logger.WithField("contexts", len(contexts)).Debug("Retrieved contexts from vector search")
		return contexts
	}

	return r.scrollAll(ctx, question)
}

// scrollAll returns every stored table_schema record. Ranking failed,
// so the generator gets the full schema rather than nothing.
func (r *Retriever) scrollAll(ctx context.Context, question string) []string {
	records, err := r.store.Scroll(ctx,
		vectorstore.Filter{Field: "type", Value: RecordTypeTableSchema}, 100)
	if err != nil {
		r.logger.WithError(err).Warn("Scroll failed, using text-match fallback")
		return r.textMatch(question)
	}

	contexts := make([]string, 0, len(records))

	for _, record := range records {
		text, _ := record.Payload["text"].(string)
		if text == "" {
			continue
		}

		contexts = append(contexts, fmt.Sprintf("%s: %s", RecordTypeTableSchema, text))
	}

	r.logger.WithField("contexts", len(contexts)).Debug("Widened retrieval to all schema records")

	return contexts
}

// textMatch is the last-resort path when the store is unreachable: a
// table's description is included when its name or any column name
// appears in the lowercased question.
func (r *Retriever) textMatch(question string) []string {
	questionLower := strings.ToLower(question)

	r.mu.RLock()
	descriptors := r.descriptors
	r.mu.RUnlock()

	var contexts []string

	for _, desc := range descriptors {
		if matchesQuestion(desc, questionLower) {
			contexts = append(contexts, RenderTableContext(desc))
		}
	}

	r.logger.WithField("contexts", len(contexts)).Debug("Text-match fallback retrieval")

	return contexts
}

func matchesQuestion(desc schema.TableDescriptor, questionLower string) bool {
	if strings.Contains(questionLower, strings.ToLower(desc.TableName)) {
		return true
	}

	for _, col := range desc.Columns {
		if strings.Contains(questionLower, strings.ToLower(col.Name)) {
			return true
		}
	}

	return false
}
