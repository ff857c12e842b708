package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/chipsfactory/prodreport/internal/common"
	"github.com/chipsfactory/prodreport/internal/filex"
	"github.com/chipsfactory/prodreport/internal/server/models"
)

var csvHeader = []string{"timestamp", "username", "row_id", "column", "old_value", "new_value"}

// CSVTrail appends records to a delimited file shared by all sessions.
// Appends are serialized by a mutex and issued as a single O_APPEND write of
// the fully encoded line (header included on the first write), fsynced
// before returning, so concurrent edits never interleave into a corrupted
// record and a reader never observes a partial one.
type CSVTrail struct {
	path string
	mu   sync.Mutex
}

func NewCSVTrail(path string) *CSVTrail {
	return &CSVTrail{path: path}
}

func (t *CSVTrail) Append(ctx context.Context, record *models.AuditRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := filex.EnsureParentDir(t.path); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", common.ErrStorage, t.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", common.ErrStorage, t.path, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("%w: %v", common.ErrStorage, err)
		}
	}
	if err := w.Write(encodeRecord(record)); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: append %s: %v", common.ErrStorage, t.path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %v", common.ErrStorage, t.path, err)
	}

	return nil
}

func (t *CSVTrail) ReadAll(ctx context.Context) ([]models.AuditRecord, error) {
	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.AuditRecord{}, nil
		}
		return nil, fmt.Errorf("%w: open %s: %v", common.ErrStorage, t.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)

	records := []models.AuditRecord{}
	first := true
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", common.ErrStorage, t.path, err)
		}
		if first {
			first = false
			if fields[0] == csvHeader[0] {
				continue
			}
		}

		record, err := decodeRecord(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", common.ErrStorage, t.path, err)
		}
		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	return records, nil
}

func encodeRecord(record *models.AuditRecord) []string {
	return []string{
		record.Timestamp.UTC().Format(TimestampFormat),
		record.Username,
		strconv.Itoa(record.RowID),
		record.Column,
		record.OldValue,
		record.NewValue,
	}
}

func decodeRecord(fields []string) (models.AuditRecord, error) {
	ts, err := time.Parse(TimestampFormat, fields[0])
	if err != nil {
		return models.AuditRecord{}, fmt.Errorf("bad timestamp %q", fields[0])
	}
	rowID, err := strconv.Atoi(fields[2])
	if err != nil {
		return models.AuditRecord{}, fmt.Errorf("bad row_id %q", fields[2])
	}

	return models.AuditRecord{
		Timestamp: ts.UTC(),
		Username:  fields[1],
		RowID:     rowID,
		Column:    fields[3],
		OldValue:  fields[4],
		NewValue:  fields[5],
	}, nil
}
