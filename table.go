package rageval

import (
	"fmt"
	"slices"
)

// Table is a header plus string records, the in-memory form of a dataset file.
type Table struct {
	Header  []string
	Records [][]string
}

func NewTable(header ...string) *Table {
	return &Table{Header: header}
}

func (t *Table) Len() int {
	return len(t.Records)
}

func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.Header, name)
}

// Get returns an empty string for a missing column or a short record.
func (t *Table) Get(row int, column string) string {
	idx := slices.Index(t.Header, column)
	if idx < 0 || row < 0 || row >= len(t.Records) || idx >= len(t.Records[row]) {
		return ""
	}
	return t.Records[row][idx]
}

// Set adds the column to the header when it does not exist yet.
func (t *Table) Set(row int, column, value string) error {
	if row < 0 || row >= len(t.Records) {
		return fmt.Errorf("row %d out of range", row)
	}

	idx := slices.Index(t.Header, column)
	if idx < 0 {
		t.AddColumn(column)
		idx = len(t.Header) - 1
	}

	for len(t.Records[row]) <= idx {
		t.Records[row] = append(t.Records[row], "")
	}
	t.Records[row][idx] = value

	return nil
}

// AddColumn appends an empty column to the header and every record, unless it already exists.
func (t *Table) AddColumn(column string) {
	if t.HasColumn(column) {
		return
	}
	t.Header = append(t.Header, column)
	for i := range t.Records {
		for len(t.Records[i]) < len(t.Header) {
			t.Records[i] = append(t.Records[i], "")
		}
	}
}

// Append adds a record, values are keyed by column name.
func (t *Table) Append(values map[string]string) error {
	record := make([]string, len(t.Header))
	for column, value := range values {
		idx := slices.Index(t.Header, column)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrMissingColumn, column)
		}
		record[idx] = value
	}
	t.Records = append(t.Records, record)
	return nil
}
