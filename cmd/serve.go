package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/askql/askql/internal/api"
	"github.com/askql/askql/internal/database"
	"github.com/askql/askql/internal/embedding"
	"github.com/askql/askql/internal/generator"
	"github.com/askql/askql/internal/history"
	"github.com/askql/askql/internal/logging"
	"github.com/askql/askql/internal/rag"
	"github.com/askql/askql/internal/schema"
	"github.com/askql/askql/internal/vectorstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP server exposing POST /query, GET /health, POST /resync,
and the query history endpoints. Schema context is extracted and indexed
lazily on the first query.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// pipeline bundles the wired components shared by serve, ask, and
// reindex.
type pipeline struct {
	db           *database.DB
	service      generator.Service
	orchestrator *generator.Orchestrator
}

func buildPipeline(ctx context.Context) (*pipeline, error) {
	logger := logging.GetLogger()

	db, err := database.Open(cfg.Database.Path, cfg.Database.QueryTimeoutDuration())
	if err != nil {
		return nil, err
	}

	if cfg.Database.Seed {
		if err := db.Seed(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	embedder := embedding.NewHeuristicProvider(cfg.Vector.Dimensions)
	store := vectorstore.NewQdrantClient(cfg.Vector.URL, cfg.Vector.Collection, cfg.Vector.TimeoutDuration())
	service := generator.NewClient(cfg.Generator, logger)

	orchestrator := generator.NewOrchestrator(
		service,
		schema.NewExtractor(db.Conn(), cfg.Database.SampleRows),
		rag.NewIndexer(store, embedder, logger),
		rag.NewRetriever(store, embedder, cfg.Retriever.Limit, cfg.Retriever.ScoreFloor, logger),
		logger,
	)

	return &pipeline{
		db:           db,
		service:      service,
		orchestrator: orchestrator,
	}, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := logging.GetLogger()

	p, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.db.Close()

	handler := api.NewHandler(api.Deps{
		DB:           p.db,
		Orchestrator: p.orchestrator,
		Generator:    p.service,
		History:      history.NewStore(),
		Logger:       logger,
		Version:      Version,
		StartedAt:    time.Now(),
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.WithField("addr", server.Addr).Info("HTTP server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		logger.WithField("signal", sig.String()).Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout())
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func shutdownTimeout() time.Duration {
	d, err := time.ParseDuration(cfg.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}

	return d
}
