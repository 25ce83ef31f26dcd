package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askql/askql/internal/embedding"
	"github.com/askql/askql/internal/errors"
	"github.com/askql/askql/internal/testutil"
	"github.com/askql/askql/internal/vectorstore"
)

func newTestRetriever(store vectorstore.Store) *Retriever {
	return NewRetriever(store, embedding.NewHeuristicProvider(0), 10, 0.01, nil)
}

func TestRetrieveRendersScoredHits(t *testing.T) {
	store := testutil.NewMockVectorStore(
		testutil.WithSearchResults(
			vectorstore.ScoredRecord{ID: 1, Score: 0.9, Payload: vectorstore.Payload{
				"type": "table_schema", "text": "Table: users",
			}},
			vectorstore.ScoredRecord{ID: 2, Score: 0.4, Payload: vectorstore.Payload{
				"type": "table_schema", "text": "Table: employees",
			}},
		),
	)
	retriever := newTestRetriever(store)

	contexts := retriever.Retrieve(context.Background(), "show me all users")

	require.Len(t, contexts, 2)
	assert.Equal(t, "table_schema: Table: users", contexts[0])
	assert.Equal(t, "table_schema: Table: employees", contexts[1])
}

func TestRetrieveSkipsEmptyAndLowScoreHits(t *testing.T) {
	store := testutil.NewMockVectorStore(
		testutil.WithSearchResults(
			vectorstore.ScoredRecord{ID: 1, Score: 0.9, Payload: vectorstore.Payload{
				"type": "table_schema", "text": "",
			}},
			vectorstore.ScoredRecord{ID: 2, Score: 0.005, Payload: vectorstore.Payload{
				"type": "table_schema", "text": "Table: sales",
			}},
			vectorstore.ScoredRecord{ID: 3, Score: 0.2, Payload: vectorstore.Payload{
				"type": "table_schema", "text": "Table: orders",
			}},
		),
	)
	retriever := newTestRetriever(store)

	contexts := retriever.Retrieve(context.Background(), "orders")

	require.Len(t, contexts, 1)
	assert.Contains(t, contexts[0], "Table: orders")
}

func TestRetrieveWidensToAllSchemaRecords(t *testing.T) {
	store := testutil.NewMockVectorStore(
		testutil.WithSearchResults(),
		testutil.WithRecords(
			vectorstore.Record{ID: 1, Payload: vectorstore.Payload{
				"type": "table_schema", "text": "Table: users",
			}},
			vectorstore.Record{ID: 2, Payload: vectorstore.Payload{
				"type": "table_schema", "text": "Table: employees",
			}},
			vectorstore.Record{ID: 9, Payload: vectorstore.Payload{
				"type": "query_pattern", "text": "not schema",
			}},
		),
	)
	retriever := newTestRetriever(store)

	contexts := retriever.Retrieve(context.Background(), "something unrelated")

	require.Len(t, contexts, 2)
	assert.Contains(t, contexts[0], "Table: users")
	assert.Contains(t, contexts[1], "Table: employees")
	assert.Equal(t, 1, store.CallCount("scroll"))
}

func TestRetrieveFallsBackToTextMatch(t *testing.T) {
	unavailable := errors.New(errors.ErrTypeIndexUnavailable, "vector store is unreachable")
	store := testutil.NewMockVectorStore(
		testutil.WithStoreError("all", unavailable),
	)
	retriever := newTestRetriever(store)
	retriever.UpdateDescriptors(testutil.DemoDescriptors())

	contexts := retriever.Retrieve(context.Background(), "Show me all users")

	require.NotEmpty(t, contexts)

	var foundUsers bool

	for _, c := range contexts {
		if strings.Contains(c, "Table: users") {
			foundUsers = true
		}
	}

	assert.True(t, foundUsers)
}

func TestTextMatchOnColumnName(t *testing.T) {
	store := testutil.NewMockVectorStore(
		testutil.WithStoreError("all", assert.AnError),
	)
	retriever := newTestRetriever(store)
	retriever.UpdateDescriptors(testutil.DemoDescriptors())

	contexts := retriever.Retrieve(context.Background(), "who has the highest salary?")

	require.Len(t, contexts, 1)
	assert.Contains(t, contexts[0], "Table: employees")
}

func TestTextMatchNoMatchReturnsEmpty(t *testing.T) {
	store := testutil.NewMockVectorStore(
		testutil.WithStoreError("all", assert.AnError),
	)
	retriever := newTestRetriever(store)
	retriever.UpdateDescriptors(testutil.DemoDescriptors())

	contexts := retriever.Retrieve(context.Background(), "weather forecast tomorrow")

	assert.Empty(t, contexts)
}

func TestRetrieveNeverPanicsWithoutDescriptors(t *testing.T) {
	store := testutil.NewMockVectorStore(
		testutil.WithStoreError("all", assert.AnError),
	)
	retriever := newTestRetriever(store)

	assert.Empty(t, retriever.Retrieve(context.Background(), "show me all users"))
}

func TestEndToEndIndexThenRetrieve(t *testing.T) {
	store := testutil.NewMockVectorStore()
	indexer := newTestIndexer(store)
	retriever := newTestRetriever(store)

	_, err := indexer.Index(context.Background(), testutil.DemoDescriptors())
	require.NoError(t, err)

	contexts := retriever.Retrieve(context.Background(), "Show me all users")
	require.NotEmpty(t, contexts)

	joined := strings.Join(contexts, "\n")
	assert.Contains(t, joined, "users")
	assert.Contains(t, joined, "username")
}
