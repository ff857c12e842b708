package models

import (
	"strconv"
	"time"
)

// ColumnType classifies a dataset column. Types are fixed at load time.
type ColumnType int

const (
	ColumnText ColumnType = iota
	ColumnNumeric
	ColumnDate
)

func (t ColumnType) String() string {
	switch t {
	case ColumnNumeric:
		return "numeric"
	case ColumnDate:
		return "date"
	default:
		return "text"
	}
}

type Column struct {
	Name string
	Type ColumnType
}

// Row is one dataset record. ID is a dense 0-based index assigned in file
// order at load time; it never changes and is never reused within a loaded
// dataset. Cells holds one value per column, positionally: float64 for
// numeric, time.Time for date, string for text.
type Row struct {
	ID    int
	Cells []any
}

// Dataset is an immutable-shape snapshot of a loaded tabular source plus its
// provenance. Cell values are mutated only through the edit gateway.
type Dataset struct {
	Source   string
	LoadedAt time.Time
	Columns  []Column
	Rows     []Row
}

// ColumnIndex returns the position of the named column, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// RowByID returns the row with the given ID, or nil. IDs are dense, so this
// is an index lookup guarded against reloads that shrank the dataset.
func (d *Dataset) RowByID(id int) *Row {
	if id < 0 || id >= len(d.Rows) {
		return nil
	}
	return &d.Rows[id]
}

// DateFormat is the canonical rendering of date cells and audit timestamps.
const DateFormat = "2006-01-02"

// FormatCell renders a cell value the way it appears in exports and in the
// audit trail.
func FormatCell(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case time.Time:
		return value.Format(DateFormat)
	case string:
		return value
	default:
		return ""
	}
}
