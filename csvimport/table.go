package csvimport

// Table is a parsed upload: the header row and the data rows below it. Rows can be shorter than Headers.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Index returns the position of the column, or -1
func (t Table) Index(column string) int {
	for i, h := range t.Headers {
		if h == column {
			return i
		}
	}

	return -1
}

// Value returns the cell of the data row in the named column, or an empty string when either doesn't exist
func (t Table) Value(row int, column string) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}

	i := t.Index(column)
	if i < 0 || i >= len(t.Rows[row]) {
		return ""
	}

	return t.Rows[row][i]
}

// Record returns the data row keyed by header
func (t Table) Record(row int) map[string]string {
	result := make(map[string]string, len(t.Headers))
	for _, h := range t.Headers {
		result[h] = t.Value(row, h)
	}

	return result
}

// Columns returns the header names
func (t Table) Columns() []string {
	result := make([]string, len(t.Headers))
	copy(result, t.Headers)

	return result
}
