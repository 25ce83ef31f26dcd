package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askql/askql/internal/errors"
)

func openSeeded(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Seed(context.Background()))

	return db
}

func TestSeedCreatesDemoTables(t *testing.T) {
	db := openSeeded(t)

	result, err := db.Execute(context.Background(),
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	require.NoError(t, err)

	var names []string
	for _, row := range result.Rows {
		names = append(names, row["name"].(string))
	}

	assert.Equal(t, []string{"employees", "orders", "sales", "users"}, names)
}

func TestSeedIsIdempotent(t *testing.T) {
	db := openSeeded(t)

	require.NoError(t, db.Seed(context.Background()))

	result, err := db.Execute(context.Background(), "SELECT COUNT(*) AS n FROM users")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.EqualValues(t, 5, result.Rows[0]["n"])
}

func TestExecuteReturnsNamedRows(t *testing.T) {
	db := openSeeded(t)

	result, err := db.Execute(context.Background(),
		"SELECT username, email FROM users ORDER BY id LIMIT 2")
	require.NoError(t, err)

	assert.Equal(t, []string{"username", "email"}, result.Columns)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "john_doe", result.Rows[0]["username"])
	assert.Equal(t, "jane.smith@example.com", result.Rows[1]["email"])
	assert.Greater(t, result.Duration, time.Duration(0))
}

func TestExecuteInvalidSQL(t *testing.T) {
	db := openSeeded(t)

	_, err := db.Execute(context.Background(), "SELECT * FROM no_such_table")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeExecution))
}

func TestCheckConnection(t *testing.T) {
	db := openSeeded(t)

	assert.True(t, db.CheckConnection(context.Background()))

	require.NoError(t, db.Close())
	assert.False(t, db.CheckConnection(context.Background()))
}
