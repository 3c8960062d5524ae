package table

// Row maps canonical (or source) column names to nullable cell values.
// A nil pointer means NULL, mirroring an absent or unparseable source cell.
type Row map[string]*string

// Table is a fully materialized, column-name-keyed batch of rows. It is the
// currency exchanged between pipeline layers and the persistent store.
type Table struct {
	Columns []string
	Rows    []Row
}

// New builds an empty table with the given column order.
func New(columns ...string) Table {
	return Table{Columns: columns}
}

// IsEmpty reports whether the table carries no rows.
func (t Table) IsEmpty() bool {
	return len(t.Rows) == 0
}

// HasColumn reports whether the column is part of the table schema.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Append adds a row, registering any columns it introduces.
func (t *Table) Append(row Row) {
	for col := range row {
		if !t.HasColumn(col) {
			t.Columns = append(t.Columns, col)
		}
	}
	t.Rows = append(t.Rows, row)
}

// Get returns the cell value or nil when the column is absent or NULL.
func (r Row) Get(col string) *string {
	return r[col]
}

// GetString returns the cell value with NULL collapsed to "".
func (r Row) GetString(col string) string {
	if v := r[col]; v != nil {
		return *v
	}
	return ""
}

// Clone copies the row so callers can mutate it independently.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns a pointer to s, for building rows from literals.
func String(s string) *string {
	return &s
}
