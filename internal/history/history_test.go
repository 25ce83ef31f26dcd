package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAssignsIDAndTimestamp(t *testing.T) {
	store := NewStore()

	entry := store.Record(Entry{
		Question: "Show me all users",
		SQL:      "SELECT * FROM users",
		RowCount: 5,
	})

	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())

	stored, ok := store.Get(entry.ID)
	require.True(t, ok)
	assert.Equal(t, entry, stored)
}

func TestGetUnknownID(t *testing.T) {
	store := NewStore()

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestListNewestFirst(t *testing.T) {
	store := NewStore()

	first := store.Record(Entry{Question: "first"})
	second := store.Record(Entry{Question: "second"})

	entries := store.List()
	require.Len(t, entries, 2)

	if entries[0].Timestamp.Equal(entries[1].Timestamp) {
		t.Skip("timestamps collided; ordering unobservable")
	}

	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, first.ID, entries[1].ID)
}

func TestLen(t *testing.T) {
	store := NewStore()
	assert.Equal(t, 0, store.Len())

	store.Record(Entry{Question: "q"})
	assert.Equal(t, 1, store.Len())
}
