// Package schema extracts ground-truth structural metadata from the
// relational database and represents it as typed descriptors.
package schema

// ColumnDescriptor describes one column of an introspected table.
// Immutable once extracted; descriptors are regenerated wholesale on
// every extraction pass.
type ColumnDescriptor struct {
	Name         string  `json:"name"`
	DeclaredType string  `json:"declared_type"`
	Nullable     bool    `json:"nullable"`
	DefaultValue *string `json:"default_value,omitempty"`
	PrimaryKey   bool    `json:"is_primary_key"`
}

// TableDescriptor is a snapshot of one table's structure plus a few
// sample rows for human-readable descriptions. Superseded atomically by
// the next extraction; it has no identity beyond its name.
type TableDescriptor struct {
	TableName  string                   `json:"table_name"`
	Columns    []ColumnDescriptor       `json:"columns"`
	Indexes    []string                 `json:"indexes"`
	SampleRows []map[string]interface{} `json:"sample_rows,omitempty"`
}

// ColumnNames returns the ordered column names.
func (t TableDescriptor) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}

	return names
}

// PrimaryKeys returns the names of primary-key columns.
func (t TableDescriptor) PrimaryKeys() []string {
	var keys []string

	for _, col := range t.Columns {
		if col.PrimaryKey {
			keys = append(keys, col.Name)
		}
	}

	return keys
}
