package schema

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/askql/askql/internal/errors"
	"github.com/askql/askql/internal/logging"
)

// systemTablePrefix marks tables reserved by the SQLite engine itself.
const systemTablePrefix = "sqlite_"

// Extractor introspects the relational database. Read-only and
// idempotent: it never mutates the source.
type Extractor struct {
	db         *sql.DB
	sampleRows int
	logger     *logging.Logger
}

// NewExtractor creates an extractor over the given handle. sampleRows
// bounds the number of example rows captured per table.
func NewExtractor(db *sql.DB, sampleRows int) *Extractor {
	if sampleRows <= 0 || sampleRows > 3 {
		sampleRows = 3
	}

	return &Extractor{
		db:         db,
		sampleRows: sampleRows,
		logger:     logging.GetLogger().WithField("component", "schema_extractor"),
	}
}

// Extract introspects every user table and returns descriptors keyed by
// table name. A failure on one table does not abort the others: the
// successful descriptors are returned together with a partial-extraction
// error naming the tables that failed. An unreachable database returns
// an extraction error and no descriptors.
func (e *Extractor) Extract(ctx context.Context) (map[string]TableDescriptor, error) {
	tables, err := e.listTables(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeExtraction, "failed to list tables")
	}

	descriptors := make(map[string]TableDescriptor, len(tables))

	var (
		failed    []string
		lastCause error
	)

	for _, name := range tables {
		descriptor, err := e.describeTable(ctx, name)
		if err != nil {
			e.logger.WithField("table", name).ErrorWithErr("table introspection failed", err)

			failed = append(failed, name)
			lastCause = err

			continue
		}

		descriptors[name] = descriptor
	}

	if len(failed) > 0 {
		sort.Strings(failed)
		return descriptors, errors.NewPartialExtraction(failed, lastCause)
	}

	return descriptors, nil
}

// listTables returns user table names in creation order, skipping
// engine-reserved tables.
func (e *Extractor) listTables(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		if strings.HasPrefix(name, systemTablePrefix) {
			continue
		}

		tables = append(tables, name)
	}

	return tables, rows.Err()
}

func (e *Extractor) describeTable(ctx context.Context, table string) (TableDescriptor, error) {
	descriptor := TableDescriptor{TableName: table}

	columns, err := e.tableColumns(ctx, table)
	if err != nil {
		return descriptor, fmt.Errorf("column metadata: %w", err)
	}

	descriptor.Columns = columns

	indexes, err := e.tableIndexes(ctx, table)
	if err != nil {
		return descriptor, fmt.Errorf("index list: %w", err)
	}

	descriptor.Indexes = indexes

	samples, err := e.sample(ctx, table, descriptor.ColumnNames())
	if err != nil {
		// Samples only feed human-readable descriptions; a table that
		// cannot be read still gets a structural descriptor.
		e.logger.WithField("table", table).WithError(err).Warn("sample rows unavailable")
	} else {
		descriptor.SampleRows = samples
	}

	return descriptor, nil
}

func (e *Extractor) tableColumns(ctx context.Context, table string) ([]ColumnDescriptor, error) {
	rows, err := e.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []ColumnDescriptor

	for rows.Next() {
		var (
			cid          int
			name         string
			declaredType string
			notNull      int
			defaultValue sql.NullString
			primaryKey   int
		)

		if err := rows.Scan(&cid, &name, &declaredType, &notNull, &defaultValue, &primaryKey); err != nil {
			return nil, err
		}

		column := ColumnDescriptor{
			Name:         name,
			DeclaredType: declaredType,
			Nullable:     notNull == 0,
			PrimaryKey:   primaryKey > 0,
		}

		if defaultValue.Valid {
			value := defaultValue.String
			column.DefaultValue = &value
		}

		columns = append(columns, column)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("no columns reported for %s", table)
	}

	return columns, nil
}

func (e *Extractor) tableIndexes(ctx context.Context, table string) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%q)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columnNames, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var indexes []string

	for rows.Next() {
		// index_list reports a varying column set across SQLite
		// versions; scan positionally and take the name column.
		values := make([]interface{}, len(columnNames))
		pointers := make([]interface{}, len(columnNames))

		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		for i, col := range columnNames {
			if col != "name" {
				continue
			}

			switch v := values[i].(type) {
			case string:
				indexes = append(indexes, v)
			case []byte:
				indexes = append(indexes, string(v))
			}
		}
	}

	return indexes, rows.Err()
}

func (e *Extractor) sample(ctx context.Context, table string, columns []string) ([]map[string]interface{}, error) {
	rows, err := e.db.QueryContext(ctx,
		fmt.Sprintf("SELECT * FROM %q LIMIT %d", table, e.sampleRows))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []map[string]interface{}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))

		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		sample := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				sample[col] = string(b)
			} else {
				sample[col] = values[i]
			}
		}

		samples = append(samples, sample)
	}

	return samples, rows.Err()
}
