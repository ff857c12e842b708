// Package audit is the append-only trail of dataset edits. The trail is an
// independent store from the dataset: it outlives any single load and is the
// authoritative edit history. Records are never edited or removed.
package audit

import (
	"context"

	"github.com/chipsfactory/prodreport/internal/server/models"
)

// TimestampFormat is the rendering of audit timestamps in durable form.
const TimestampFormat = "2006-01-02 15:04:05"

type Trail interface {
	// Append durably writes one record. It succeeds or fails atomically: a
	// partially written record never becomes visible to ReadAll. Failures
	// wrap common.ErrStorage.
	Append(ctx context.Context, record *models.AuditRecord) error

	// ReadAll returns every record ordered by timestamp ascending, append
	// order breaking ties. A not-yet-created trail yields an empty slice.
	ReadAll(ctx context.Context) ([]models.AuditRecord, error)
}
