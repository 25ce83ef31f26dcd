// Package rag maintains the schema context index and retrieves
// relevant context for natural-language questions.
package rag

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/askql/askql/internal/embedding"
	"github.com/askql/askql/internal/logging"
	"github.com/askql/askql/internal/schema"
	"github.com/askql/askql/internal/vectorstore"
)

// RecordTypeTableSchema tags vector records holding a rendered table
// description. At most one such record exists per table.
const RecordTypeTableSchema = "table_schema"

// tableIDs maps the demo tables to fixed point IDs so re-indexing
// replaces points instead of duplicating them.
var tableIDs = map[string]uint64{
	"users":     1,
	"employees": 2,
	"sales":     3,
	"orders":    4,
}

// fallbackIDBase offsets hashed IDs for tables outside the fixed map
// so they cannot collide with the reserved range.
const (
	fallbackIDBase  = 1000
	fallbackIDRange = 1000000
)

// IndexResult reports what one indexing run did.
type IndexResult struct {
	RecordsWritten int
	RecordsCleared int
}

// Indexer writes table descriptions into the vector store. It is the
// only writer of table_schema records.
type Indexer struct {
	store    vectorstore.Store
	embedder embedding.Provider
	logger   *logging.Logger
}

// NewIndexer creates an indexer over the given store and embedder.
func NewIndexer(store vectorstore.Store, embedder embedding.Provider, logger *logging.Logger) *Indexer {
	if logger == nil {
		logger = logging.GetLogger()
	}

	return &Indexer{
		store:    store,
		embedder: embedder,
		logger:   logger,
	}
}

// Index replaces all table_schema records with fresh renderings of the
// given descriptors. Existing records are cleared first so no stale
// description survives a schema change; readers may briefly observe an
// empty collection during the swap.
func (ix *Indexer) Index(ctx context.Context, descriptors map[string]schema.TableDescriptor) (IndexResult, error) {
	var result IndexResult

	if err := ix.store.EnsureCollection(ctx, ix.embedder.Dimensions()); err != nil {
		return result, err
	}

	filter := vectorstore.Filter{Field: "type", Value: RecordTypeTableSchema}

	existing, err := ix.store.Scroll(ctx, filter, 100)
	if err != nil {
		return result, err
	}

	if len(existing) > 0 {
		if err := ix.store.Delete(ctx, filter); err != nil {
			return result, err
		}

		result.RecordsCleared = len(existing)
	}

	names := make([]string, 0, len(descriptors))
	for name := range descriptors {
		names = append(names, name)
	}

	sort.Strings(names)

	records := make([]vectorstore.Record, 0, len(names))

	for _, name := range names {
		desc := descriptors[name]
		text := RenderTableContext(desc)

		records = append(records, vectorstore.Record{
			ID:     TableRecordID(name),
			Vector: ix.embedder.Embed(text),
			Payload: vectorstore.Payload{
				"text":        text,
				"type":        RecordTypeTableSchema,
				"table":       name,
				"columns":     desc.ColumnNames(),
				"description": describeTable(name),
			},
		})
	}

	if err := ix.store.Upsert(ctx, records); err != nil {
		return result, err
	}

	result.RecordsWritten = len(records)

	ix.logger.WithFields(map[string]interface{}{
		"written": result.RecordsWritten,
		"cleared": result.RecordsCleared,
	}).Info("Schema context indexed")

	return result, nil
}

// TableRecordID derives the stable point ID for a table. Known demo
// tables use fixed IDs; others hash into a disjoint range.
func TableRecordID(tableName string) uint64 {
	if id, ok := tableIDs[tableName]; ok {
		return id
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(tableName))

	return fallbackIDBase + h.Sum64()%fallbackIDRange
}

// RenderTableContext renders the human-readable description stored in
// a table_schema record.
func RenderTableContext(desc schema.TableDescriptor) string {
	columnParts := make([]string, 0, len(desc.Columns))

	for _, col := range desc.Columns {
		part := fmt.Sprintf("%s (%s", col.Name, col.DeclaredType)
		if col.PrimaryKey {
			part += ", PK"
		}

		if !col.Nullable && !col.PrimaryKey {
			part += ", NOT NULL"
		}

		if col.DefaultValue != nil {
			part += ", DEFAULT " + *col.DefaultValue
		}

		columnParts = append(columnParts, part+")")
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Table: %s\n", desc.TableName)
	fmt.Fprintf(&b, "Description: %s\n", describeTable(desc.TableName))
	fmt.Fprintf(&b, "Columns: %s", strings.Join(columnParts, ", "))

	if len(desc.Indexes) > 0 {
		indexes := append([]string(nil), desc.Indexes...)
		sort.Strings(indexes)
		fmt.Fprintf(&b, "\nIndexes: %s", strings.Join(indexes, ", "))
	}

	for i, row := range desc.SampleRows {
		if i >= 2 {
			break
		}

		fmt.Fprintf(&b, "\nSample row: %s", renderSampleRow(desc, row))
	}

	fmt.Fprintf(&b, "\nKey fields: %s", keyFields(desc))

	return b.String()
}

// describeTable infers a one-line description from domain keywords in
// the table name, with a generic fallback.
func describeTable(tableName string) string {
	lower := strings.ToLower(tableName)

	switch {
	case strings.Contains(lower, "user"):
		return "User account information"
	case strings.Contains(lower, "employee"):
		return "Employee information and department details"
	case strings.Contains(lower, "sale"):
		return "Sales transactions and customer interactions"
	case strings.Contains(lower, "order"):
		return "Customer orders and transactions"
	default:
		return fmt.Sprintf("Contains %s data", tableName)
	}
}

// keyFields picks the columns most useful for matching questions: the
// non-key descriptive columns for known tables, the first three column
// names otherwise.
func keyFields(desc schema.TableDescriptor) string {
	switch desc.TableName {
	case "users":
		return "username, email"
	case "employees":
		return "first_name, last_name, department"
	case "sales":
		return "customer_id, amount, employee_id"
	case "orders":
		return "customer_name, total_amount, status"
	}

	names := desc.ColumnNames()
	if len(names) > 3 {
		names = names[:3]
	}

	return strings.Join(names, ", ")
}

func renderSampleRow(desc schema.TableDescriptor, row map[string]interface{}) string {
	parts := make([]string, 0, len(desc.Columns))

	for _, col := range desc.Columns {
		value, ok := row[col.Name]
		if !ok {
			continue
		}

		parts = append(parts, fmt.Sprintf("%s=%v", col.Name, value))
	}

	return strings.Join(parts, ", ")
}
