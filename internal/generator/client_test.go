package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askql/askql/internal/config"
	"github.com/askql/askql/internal/errors"
)

func newTestClient(url string) *Client {
	return NewClient(config.GeneratorConfig{
		URL:             url,
		Timeout:         "5s",
		TrainingTimeout: "5s",
		MaxRetries:      2,
	}, nil)
}

func TestAskReturnsSQL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate_sql", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Show me all users", req["question"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"sql":     "SELECT * FROM users",
		})
	}))
	defer server.Close()

	sql, err := newTestClient(server.URL).Ask(context.Background(), "Show me all users")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users", sql)
}

func TestAskAcceptsTupleResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"sql":     []interface{}{"SELECT * FROM orders", map[string]interface{}{"rows": 5}},
		})
	}))
	defer server.Close()

	sql, err := newTestClient(server.URL).Ask(context.Background(), "List all orders")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders", sql)
}

func TestAskRejectsEmptySQL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"sql":     "   ",
		})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Ask(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeGeneration))
}

func TestAskReportsServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "model not initialized",
		})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Ask(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not initialized")
}

func TestRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"sql":     "SELECT 1",
		})
	}))
	defer server.Close()

	sql, err := newTestClient(server.URL).Ask(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", sql)
	assert.Equal(t, int32(3), calls.Load())
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Ask(context.Background(), "anything")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTrainDDL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/train", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req["ddl"], "CREATE TABLE")

		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer server.Close()

	err := newTestClient(server.URL).TrainDDL(context.Background(), "CREATE TABLE users (id INTEGER);")
	require.NoError(t, err)
}

func TestTrainExample(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Show me all users", req["question"])
		assert.Equal(t, "SELECT * FROM users", req["sql"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer server.Close()

	err := newTestClient(server.URL).TrainExample(context.Background(),
		"Show me all users", "SELECT * FROM users")
	require.NoError(t, err)
}

func TestTrainOutlivesGenerationTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/train", r.URL.Path)
		time.Sleep(300 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer server.Close()

	client := NewClient(config.GeneratorConfig{
		URL:             server.URL,
		Timeout:         "50ms",
		TrainingTimeout: "5s",
		MaxRetries:      0,
	}, nil)

	err := client.TrainDDL(context.Background(), "CREATE TABLE users (id INTEGER);")
	require.NoError(t, err)
}

func TestAskHonorsGenerationTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"sql":     "SELECT 1",
		})
	}))
	defer server.Close()

	client := NewClient(config.GeneratorConfig{
		URL:             server.URL,
		Timeout:         "50ms",
		TrainingTimeout: "5s",
		MaxRetries:      0,
	}, nil)

	_, err := client.Ask(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeGeneration))
}

func TestCheckHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"initialized": true,
		})
	}))
	defer server.Close()

	require.NoError(t, newTestClient(server.URL).CheckHealth(context.Background()))
}

func TestCheckHealthUnhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "starting"})
	}))
	defer server.Close()

	err := newTestClient(server.URL).CheckHealth(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting")
}

func TestUnreachableServiceFailsAfterRetries(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")

	_, err := client.Ask(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeGeneration))
}
