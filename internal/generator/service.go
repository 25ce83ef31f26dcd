// Package generator produces SQL from natural-language questions. The
// primary path calls an external generation service; a pattern-rule
// fallback keeps the system answering when that service is down.
package generator

import "context"

// Service is the external SQL generation boundary. Implementations
// must tolerate the service being unavailable; the orchestrator treats
// every failure here as a trigger for the pattern fallback.
type Service interface {
	// Ask submits a question (usually context-enhanced) and returns the
	// generated SQL string.
	Ask(ctx context.Context, question string) (string, error)

	// TrainDDL teaches the service a schema via its DDL statements.
	TrainDDL(ctx context.Context, ddl string) error

	// TrainExample teaches the service one question/SQL pair.
	TrainExample(ctx context.Context, question, sql string) error

	// CheckHealth reports whether the service is reachable.
	CheckHealth(ctx context.Context) error
}
