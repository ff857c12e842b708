package models

import "time"

// AuditRecord is one durable, immutable log entry describing a single
// field-level change. Old and new values are stored in their rendered form
// so the trail stays readable independent of column typing.
type AuditRecord struct {
	Timestamp time.Time
	Username  string
	RowID     int
	Column    string
	OldValue  string
	NewValue  string
}
