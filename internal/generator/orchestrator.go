package generator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/askql/askql/internal/errors"
	"github.com/askql/askql/internal/logging"
	"github.com/askql/askql/internal/rag"
	"github.com/askql/askql/internal/schema"
)

// readyState tracks the one-time context initialization.
type readyState int

const (
	stateUninitialized readyState = iota
	stateTraining
	stateReady
	stateFailed
)

func (s readyState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateTraining:
		return "training"
	case stateReady:
		return "ready"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// trainingExamples are the fixed question/SQL pairs taught to the
// generation service after the schema DDL.
var trainingExamples = []struct {
	Question string
	SQL      string
}{
	{"Show me all employees", "SELECT * FROM employees"},
	{"What is the total sales amount?", "SELECT SUM(amount) FROM sales"},
	{"Show me employees in Engineering", "SELECT * FROM employees WHERE department = 'Engineering'"},
	{"What is the average salary by department?", "SELECT department, AVG(salary) FROM employees GROUP BY department"},
	{"Show me all users", "SELECT * FROM users"},
	{"List all orders", "SELECT * FROM orders"},
	{"Find pending orders", "SELECT * FROM orders WHERE status = 'pending'"},
	{"Show me high salary employees", "SELECT * FROM employees WHERE salary > 70000"},
	{"Count employees by department", "SELECT department, COUNT(*) FROM employees GROUP BY department"},
	{"Show me all tables", "SELECT name FROM sqlite_master WHERE type='table'"},
}

// Orchestrator runs the full question-to-SQL pipeline: one-time
// context initialization, retrieval, enhancement, primary generation,
// and the pattern fallback.
type Orchestrator struct {
	service   Service
	extractor *schema.Extractor
	indexer   *rag.Indexer
	retriever *rag.Retriever
	logger    *logging.Logger

	mu       sync.Mutex
	state    readyState
	initErr  error
	degraded bool

	group singleflight.Group
}

// NewOrchestrator wires the pipeline components together.
func NewOrchestrator(
	service Service,
	extractor *schema.Extractor,
	indexer *rag.Indexer,
	retriever *rag.Retriever,
	logger *logging.Logger,
) *Orchestrator {
	if logger == nil {
		logger = logging.GetLogger()
	}

	return &Orchestrator{
		service:   service,
		extractor: extractor,
		indexer:   indexer,
		retriever: retriever,
		logger:    logger,
	}
}

// State returns the current initialization state name.
func (o *Orchestrator) State() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state.String()
}

// Degraded reports whether the last initialization could not reach the
// vector store and retrieval is running on the text-match fallback.
func (o *Orchestrator) Degraded() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.degraded
}

// GenerateSQL answers a question with SQL. The context index is
// populated lazily on the first call and never retried after a
// memoized failure; Resync is the explicit recovery path. A primary
// generation failure falls back to pattern rules, so this returns an
// error only when context initialization failed outright.
func (o *Orchestrator) GenerateSQL(ctx context.Context, question string) (string, error) {
	if err := o.ensureReady(ctx); err != nil {
		return "", err
	}

	contexts := o.retriever.Retrieve(ctx, question)

	enhanced := rag.Enhance(question, contexts)

	sql, err := o.service.Ask(ctx, enhanced)
	if err == nil && strings.TrimSpace(sql) != "" {
		o.logger.WithField("question", question).Info("Generated SQL via generation service")
		return strings.TrimSpace(sql), nil
	}

	if err != nil {
		o.logger.WithError(err).Warn("Primary generation failed, using pattern fallback")
	}

	fallback := GenerateFromPatterns(question)
	if strings.TrimSpace(fallback) == "" {
		return "", errors.Wrap(err, errors.ErrTypeGeneration,
			"all generation strategies failed")
	}

	o.logger.WithField("sql", fallback).Info("Generated SQL via pattern fallback")

	return fallback, nil
}

// ensureReady runs the one-time extract/index/train sequence. The
// singleflight group serializes concurrent first requests so exactly
// one caller trains; the rest share its outcome.
func (o *Orchestrator) ensureReady(ctx context.Context) error {
	o.mu.Lock()
	switch o.state {
	case stateReady:
		o.mu.Unlock()
		return nil
	case stateFailed:
		err := o.initErr
		o.mu.Unlock()

		return err
	}
	o.mu.Unlock()

	_, err, _ := o.group.Do("initialize", func() (interface{}, error) {
		return nil, o.initialize(ctx)
	})

	return err
}

// Resync re-runs extraction, indexing, and training regardless of the
// current state. It is the invalidation path for schema changes after
// the lazy one-time training.
func (o *Orchestrator) Resync(ctx context.Context) error {
	o.mu.Lock()
	o.state = stateUninitialized
	o.initErr = nil
	o.mu.Unlock()

	_, err, _ := o.group.Do("initialize", func() (interface{}, error) {
		return nil, o.initialize(ctx)
	})

	return err
}

func (o *Orchestrator) initialize(ctx context.Context) error {
	o.mu.Lock()
	if o.state == stateReady {
		o.mu.Unlock()
		return nil
	}

	if o.state == stateFailed {
		err := o.initErr
		o.mu.Unlock()

		return err
	}

	o.state = stateTraining
	o.mu.Unlock()

	o.logger.Info("Initializing schema context")

	descriptors, err := o.extractor.Extract(ctx)
	if err != nil && !errors.IsType(err, errors.ErrTypePartialExtraction) {
		return o.fail(errors.Wrap(err, errors.ErrTypeGeneration, "context unavailable"))
	}

	if err != nil {
		o.logger.WithError(err).Warn("Partial schema extraction, continuing with extracted tables")
	}

	if len(descriptors) == 0 {
		return o.fail(errors.New(errors.ErrTypeGeneration,
			"context unavailable: no tables extracted"))
	}

	o.retriever.UpdateDescriptors(descriptors)

	degraded := false

	if _, err := o.indexer.Index(ctx, descriptors); err != nil {
		// The retriever still has the descriptors for its text-match
		// fallback, so an unreachable vector store degrades rather
		// than blocks.
		o.logger.WithError(err).Warn("Context indexing failed, retrieval degraded to text matching")

		degraded = true
	}

	o.train(ctx, descriptors)

	o.mu.Lock()
	o.state = stateReady
	o.degraded = degraded
	o.mu.Unlock()

	o.logger.WithField("tables", len(descriptors)).Info("Schema context ready")

	return nil
}

func (o *Orchestrator) fail(err error) error {
	o.mu.Lock()
	o.state = stateFailed
	o.initErr = err
	o.mu.Unlock()

	o.logger.ErrorWithErr("Schema context initialization failed", err)

	return err
}

// train teaches the generation service the schema DDL and the example
// pairs. Failures are logged but never block readiness: the pattern
// fallback covers an untrained or unreachable service.
func (o *Orchestrator) train(ctx context.Context, descriptors map[string]schema.TableDescriptor) {
	ddl := RenderDDL(descriptors)

	if err := o.service.TrainDDL(ctx, ddl); err != nil {
		o.logger.WithError(err).Warn("DDL training failed, proceeding without it")
		return
	}

	for _, example := range trainingExamples {
		if err := o.service.TrainExample(ctx, example.Question, example.SQL); err != nil {
			o.logger.WithError(err).WithField("question", example.Question).
				Warn("Failed to add training example")
		}
	}
}

// RenderDDL renders CREATE TABLE statements for the extracted schema,
// in name order.
func RenderDDL(descriptors map[string]schema.TableDescriptor) string {
	names := make([]string, 0, len(descriptors))
	for name := range descriptors {
		names = append(names, name)
	}

	sort.Strings(names)

	var b strings.Builder

	for _, name := range names {
		desc := descriptors[name]

		fmt.Fprintf(&b, "CREATE TABLE %s (\n", name)

		for i, col := range desc.Columns {
			fmt.Fprintf(&b, "    %s %s", col.Name, col.DeclaredType)

			if col.PrimaryKey {
				b.WriteString(" PRIMARY KEY")
			}

			if !col.Nullable && !col.PrimaryKey {
				b.WriteString(" NOT NULL")
			}

			if col.DefaultValue != nil {
				fmt.Fprintf(&b, " DEFAULT %s", *col.DefaultValue)
			}

			if i < len(desc.Columns)-1 {
				b.WriteString(",")
			}

			b.WriteString("\n")
		}

		b.WriteString(");\n\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}
