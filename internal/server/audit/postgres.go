package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chipsfactory/prodreport/internal/common"
	"github.com/chipsfactory/prodreport/internal/server/models"
)

// PostgresTrail stores audit records in the audit_records table. The insert
// is a single statement, so append atomicity and cross-session serialization
// come from the database.
type PostgresTrail struct {
	db *sql.DB
}

func NewPostgresTrail(db *sql.DB) *PostgresTrail {
	return &PostgresTrail{db: db}
}

func (t *PostgresTrail) Append(ctx context.Context, record *models.AuditRecord) error {
	query :=
		`INSERT INTO audit_records (ts, username, row_id, column_name, old_value, new_value)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	_, err := t.db.ExecContext(ctx, query,
		record.Timestamp.UTC(), record.Username, record.RowID, record.Column, record.OldValue, record.NewValue)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	return nil
}

func (t *PostgresTrail) ReadAll(ctx context.Context) ([]models.AuditRecord, error) {
	query :=
		`SELECT ts, username, row_id, column_name, old_value, new_value FROM audit_records
		 ORDER BY ts ASC, id ASC
		 `

	rows, err := t.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	defer rows.Close()

	records := []models.AuditRecord{}
	for rows.Next() {
		var r models.AuditRecord
		if err := rows.Scan(&r.Timestamp, &r.Username, &r.RowID, &r.Column, &r.OldValue, &r.NewValue); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	return records, nil
}
