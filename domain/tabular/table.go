// Package tabular models in-memory tabular data sources with a fixed header
// and ordered rows.
package tabular

// Row holds one record keyed by column name. A column absent from a malformed
// row has no key, which is distinct from a present but empty value.
type Row map[string]string

// Value returns the row's value for a column. ok is false when the column is
// absent from this row.
func (r Row) Value(column string) (string, bool) {
	value, ok := r[column]
	return value, ok
}

// Table is an ordered tabular data source loaded from one file.
type Table struct {
	Columns  []string
	Rows     []Row
	Warnings []string
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	for _, column := range t.Columns {
		if column == name {
			return true
		}
	}
	return false
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// Preview returns up to n leading rows for display.
func (t *Table) Preview(n int) []Row {
	if n < 0 {
		n = 0
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

// ColumnValues returns the present values of one column in row order.
func (t *Table) ColumnValues(name string) []string {
	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if value, ok := row.Value(name); ok {
			values = append(values, value)
		}
	}
	return values
}
