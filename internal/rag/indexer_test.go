package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askql/askql/internal/embedding"
	"github.com/askql/askql/internal/testutil"
	"github.com/askql/askql/internal/vectorstore"
)

func newTestIndexer(store vectorstore.Store) *Indexer {
	return NewIndexer(store, embedding.NewHeuristicProvider(0), nil)
}

func TestIndexWritesOneRecordPerTable(t *testing.T) {
	store := testutil.NewMockVectorStore()
	indexer := newTestIndexer(store)

	result, err := indexer.Index(context.Background(), testutil.DemoDescriptors())
	require.NoError(t, err)

	assert.Equal(t, 4, result.RecordsWritten)
	assert.Equal(t, 0, result.RecordsCleared)

	records := store.Records()
	require.Len(t, records, 4)

	for _, record := range records {
		assert.Equal(t, RecordTypeTableSchema, record.Payload["type"])
		assert.NotEmpty(t, record.Payload["text"])
		assert.Len(t, record.Vector, embedding.DefaultDimensions)
	}
}

func TestIndexIsIdempotent(t *testing.T) {
	store := testutil.NewMockVectorStore()
	indexer := newTestIndexer(store)

	first, err := indexer.Index(context.Background(), testutil.DemoDescriptors())
	require.NoError(t, err)
	assert.Equal(t, 4, first.RecordsWritten)

	second, err := indexer.Index(context.Background(), testutil.DemoDescriptors())
	require.NoError(t, err)

	assert.Equal(t, 4, second.RecordsWritten)
	assert.Equal(t, 4, second.RecordsCleared)

	records := store.Records()
	require.Len(t, records, 4)

	ids := make([]uint64, 0, 4)
	for _, record := range records {
		ids = append(ids, record.ID)
	}

	assert.Equal(t, []uint64{1, 2, 3, 4}, ids)
}

func TestTableRecordIDStableMap(t *testing.T) {
	assert.Equal(t, uint64(1), TableRecordID("users"))
	assert.Equal(t, uint64(2), TableRecordID("employees"))
	assert.Equal(t, uint64(3), TableRecordID("sales"))
	assert.Equal(t, uint64(4), TableRecordID("orders"))
}

func TestTableRecordIDFallbackOutsideReservedRange(t *testing.T) {
	id := TableRecordID("inventory")

	assert.GreaterOrEqual(t, id, uint64(fallbackIDBase))
	assert.Equal(t, id, TableRecordID("inventory"))
	assert.NotEqual(t, id, TableRecordID("shipments"))
}

func TestRenderTableContextDemoTable(t *testing.T) {
	text := RenderTableContext(testutil.UsersDescriptor())

	assert.True(t, strings.HasPrefix(text, "Table: users\n"))
	assert.Contains(t, text, "Description: User account information")
	assert.Contains(t, text, "id (INTEGER, PK)")
	assert.Contains(t, text, "username (TEXT, NOT NULL)")
	assert.Contains(t, text, "created_at (TIMESTAMP, DEFAULT CURRENT_TIMESTAMP)")
	assert.Contains(t, text, "Indexes: sqlite_autoindex_users_1")
	assert.Contains(t, text, "Sample row: id=1, username=john_doe, email=john@example.com")
	assert.Contains(t, text, "Key fields: username, email")
}

func TestRenderTableContextUnknownTableFallsBack(t *testing.T) {
	desc := testutil.UsersDescriptor()
	desc.TableName = "widgets"

	text := RenderTableContext(desc)

	assert.Contains(t, text, "Description: Contains widgets data")
	assert.Contains(t, text, "Key fields: id, username, email")
}

func TestRenderTableContextLimitsSampleRows(t *testing.T) {
	desc := testutil.UsersDescriptor()
	desc.SampleRows = []map[string]interface{}{
		{"id": int64(1)},
		{"id": int64(2)},
		{"id": int64(3)},
	}

	text := RenderTableContext(desc)

	assert.Equal(t, 2, strings.Count(text, "Sample row:"))
}

func TestIndexSurfacesStoreFailure(t *testing.T) {
	store := testutil.NewMockVectorStore(
		testutil.WithStoreError("upsert", assert.AnError),
	)
	indexer := newTestIndexer(store)

	_, err := indexer.Index(context.Background(), testutil.DemoDescriptors())
	require.Error(t, err)
}
