// Package api exposes the question-to-SQL pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/askql/askql/internal/database"
	"github.com/askql/askql/internal/errors"
	"github.com/askql/askql/internal/generator"
	"github.com/askql/askql/internal/history"
	"github.com/askql/askql/internal/logging"
)

const maxQueryBodySize = 1 << 20 // 1MB

// Deps carries everything the handlers need.
type Deps struct {
	DB           *database.DB
	Orchestrator *generator.Orchestrator
	Generator    generator.Service
	History      *history.Store
	Logger       *logging.Logger
	Version      string
	StartedAt    time.Time
}

// QueryRequest is the POST /query body.
type QueryRequest struct {
	Question string `json:"question"`
	UserID   string `json:"user_id,omitempty"`
}

// QueryResponse is the POST /query reply. ErrorMessage is set when the
// SQL was generated but failed to execute (partial success).
type QueryResponse struct {
	SQLQuery        string         `json:"sql_query"`
	Results         []database.Row `json:"results"`
	ExecutionTimeMS float64        `json:"execution_time_ms"`
	RowCount        int            `json:"row_count"`
	ErrorMessage    string         `json:"error_message,omitempty"`
}

// HealthResponse is the GET /health reply.
type HealthResponse struct {
	Status                     string    `json:"status"`
	Timestamp                  time.Time `json:"timestamp"`
	Version                    string    `json:"version"`
	DatabaseConnected          bool      `json:"database_connected"`
	GenerationServiceConnected bool      `json:"generation_service_connected"`
	UptimeSeconds              float64   `json:"uptime_seconds"`
}

// NewHandler builds the HTTP routing tree.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = logging.GetLogger()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(deps.Logger))

	r.Post("/query", handleQuery(deps))
	r.Get("/health", handleHealth(deps))
	r.Post("/resync", handleResync(deps))
	r.Get("/history", handleHistoryList(deps))
	r.Get("/history/{id}", handleHistoryGet(deps))

	return r
}

func requestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			logger.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).String(),
			}).Debug("Request handled")
		})
	}
}

func handleQuery(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxQueryBodySize)
		defer r.Body.Close()

		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "validation_error", "invalid request body: %v", err)
			return
		}

		// Validation happens before the orchestrator runs so a blank
		// question never triggers lazy initialization.
		if strings.TrimSpace(req.Question) == "" {
			httpError(w, http.StatusBadRequest, "validation_error", "question cannot be empty")
			return
		}

		sql, err := deps.Orchestrator.GenerateSQL(r.Context(), req.Question)
		if err != nil {
			deps.Logger.ErrorWithErr("SQL generation failed", err)
			httpError(w, http.StatusInternalServerError, string(errors.GetType(err)),
				"query processing failed: %v", err)

			return
		}

		resp := QueryResponse{
			SQLQuery: sql,
			Results:  []database.Row{},
		}

		result, execErr := deps.DB.Execute(r.Context(), sql)
		if execErr != nil {
			// SQL was produced but could not run: partial success, not
			// a request failure.
			resp.ErrorMessage = execErr.Error()

			deps.Logger.WithError(execErr).Warn("Generated SQL failed to execute")
		} else {
			resp.Results = result.Rows
			resp.RowCount = len(result.Rows)
			resp.ExecutionTimeMS = float64(result.Duration.Microseconds()) / 1000.0
		}

		if deps.History != nil {
			deps.History.Record(history.Entry{
				Question:        req.Question,
				UserID:          req.UserID,
				SQL:             resp.SQLQuery,
				RowCount:        resp.RowCount,
				ExecutionTimeMS: resp.ExecutionTimeMS,
				ErrorMessage:    resp.ErrorMessage,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		dbUp := deps.DB.CheckConnection(ctx)
		genUp := deps.Generator.CheckHealth(ctx) == nil

		status := "healthy"

		switch {
		case !dbUp && !genUp:
			status = "unhealthy"
		case !dbUp || !genUp:
			status = "degraded"
		}

		writeJSON(w, http.StatusOK, HealthResponse{
			Status:                     status,
			Timestamp:                  time.Now().UTC(),
			Version:                    deps.Version,
			DatabaseConnected:          dbUp,
			GenerationServiceConnected: genUp,
			UptimeSeconds:              time.Since(deps.StartedAt).Seconds(),
		})
	}
}

func handleResync(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Orchestrator.Resync(r.Context()); err != nil {
			deps.Logger.ErrorWithErr("Resync failed", err)
			httpError(w, http.StatusInternalServerError, string(errors.GetType(err)),
				"resync failed: %v", err)

			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"state":   deps.Orchestrator.State(),
		})
	}
}

func handleHistoryList(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"entries": deps.History.List(),
			"count":   deps.History.Len(),
		})
	}
}

func handleHistoryGet(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		entry, ok := deps.History.Get(id)
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "no history entry with id %s", id)
			return
		}

		writeJSON(w, http.StatusOK, entry)
	}
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	_ = json.NewEncoder(w).Encode(body)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}
