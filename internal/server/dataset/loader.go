// Package dataset loads tabular production data and owns the per-login
// dataset session: the in-memory, row-identified copy everything else reads.
package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chipsfactory/prodreport/internal/common"
	"github.com/chipsfactory/prodreport/internal/server/models"
)

// dateFormats are tried in order when coercing the declared date column.
var dateFormats = []string{"2006-01-02", "2006-01-02 15:04:05"}

// Loader parses delimited sources into datasets. DateColumn names the column
// coerced to a canonical date; every other column is typed numeric when all
// of its non-empty cells parse as numbers, text otherwise. Typing is a pure
// function of the file content, so reloading the same source yields the same
// row IDs, types, and values.
type Loader struct {
	fetcher    Fetcher
	dateColumn string
}

func NewLoader(fetcher Fetcher, dateColumn string) *Loader {
	return &Loader{fetcher: fetcher, dateColumn: dateColumn}
}

// Load fetches and parses the source wholesale. On any failure no dataset is
// returned, so a partially parsed load can never become visible.
func (l *Loader) Load(ctx context.Context, source string) (*models.Dataset, error) {
	r, err := l.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	ds, err := l.Parse(r)
	if err != nil {
		return nil, err
	}
	ds.Source = source
	return ds, nil
}

// Parse reads an entire CSV stream into a dataset. Row IDs are assigned as a
// dense 0-based index in file order.
func (l *Loader) Parse(r io.Reader) (*models.Dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedDataset, err)
	}
	if len(records) == 0 || len(records) == 1 {
		return nil, common.ErrEmptyDataset
	}

	header := records[0]
	body := records[1:]

	dateIdx := -1
	for i, name := range header {
		if name == l.dateColumn {
			dateIdx = i
		}
	}
	if l.dateColumn != "" && dateIdx == -1 {
		return nil, fmt.Errorf("%w: date column %q missing", common.ErrMalformedDataset, l.dateColumn)
	}

	columns := make([]models.Column, len(header))
	for i, name := range header {
		columns[i] = models.Column{Name: name, Type: l.columnType(i, dateIdx, body)}
	}

	ds := &models.Dataset{
		LoadedAt: time.Now(),
		Columns:  columns,
		Rows:     make([]models.Row, 0, len(body)),
	}

	for rowIdx, record := range body {
		cells := make([]any, len(columns))
		for colIdx, raw := range record {
			v, err := parseCell(columns[colIdx].Type, raw)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d, column %q: %v",
					common.ErrMalformedDataset, rowIdx, columns[colIdx].Name, err)
			}
			cells[colIdx] = v
		}
		ds.Rows = append(ds.Rows, models.Row{ID: rowIdx, Cells: cells})
	}

	return ds, nil
}

func (l *Loader) columnType(idx, dateIdx int, body [][]string) models.ColumnType {
	if idx == dateIdx {
		return models.ColumnDate
	}

	seen := false
	for _, record := range body {
		if idx >= len(record) {
			continue
		}
		cell := strings.TrimSpace(record[idx])
		if cell == "" {
			continue
		}
		seen = true
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return models.ColumnText
		}
	}
	if !seen {
		return models.ColumnText
	}
	return models.ColumnNumeric
}

func parseCell(t models.ColumnType, raw string) (any, error) {
	switch t {
	case models.ColumnDate:
		return parseDate(strings.TrimSpace(raw))
	case models.ColumnNumeric:
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return nil, nil
		}
		return strconv.ParseFloat(trimmed, 64)
	default:
		return raw, nil
	}
}

func parseDate(raw string) (time.Time, error) {
	for _, format := range dateFormats {
		if d, err := time.Parse(format, raw); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// Coerce converts an incoming edit value to the column's declared type.
// Numeric columns reject non-numeric text; date columns require one of the
// accepted formats. Returns common.ErrTypeMismatch on failure.
func Coerce(t models.ColumnType, raw string) (any, error) {
	switch t {
	case models.ColumnNumeric:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not numeric", common.ErrTypeMismatch, raw)
		}
		return n, nil
	case models.ColumnDate:
		d, err := parseDate(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a date", common.ErrTypeMismatch, raw)
		}
		return d, nil
	default:
		return raw, nil
	}
}
