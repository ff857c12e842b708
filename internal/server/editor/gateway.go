// Package editor is the mutation gateway: the only path through which a
// dataset cell may change. It enforces authorization, records the change in
// the audit trail, and applies it to the dataset session, in that order.
package editor

import (
	"context"
	"fmt"
	"time"

	"github.com/chipsfactory/prodreport/internal/common"
	"github.com/chipsfactory/prodreport/internal/logging"
	"github.com/chipsfactory/prodreport/internal/server/audit"
	"github.com/chipsfactory/prodreport/internal/server/authz"
	"github.com/chipsfactory/prodreport/internal/server/dataset"
	"github.com/chipsfactory/prodreport/internal/server/models"
)

type Gateway struct {
	trail audit.Trail
	log   logging.Logger

	// Now is a test seam for timestamping audit records.
	Now func() time.Time
}

func NewGateway(trail audit.Trail, log logging.Logger) *Gateway {
	return &Gateway{
		trail: trail,
		log:   log.With("component", "editor"),
		Now:   time.Now,
	}
}

// EditCell changes one cell of the session's loaded dataset.
//
// The audit record is written before the in-memory value changes. A crash
// between the two leaves a trail entry describing a change that was never
// applied, which is detectable; the reverse order could apply an unlogged
// change. If the append fails, the edit is aborted and the dataset is left
// untouched.
//
// Editing the same value it already holds succeeds without an audit entry
// or a mutation.
func (g *Gateway) EditCell(ctx context.Context, session *models.Session, ds *dataset.Session, rowID int, column, newValue string) error {
	if err := authz.Authorize(session, models.RoleAdmin); err != nil {
		return err
	}

	current := ds.Current()
	if current == nil {
		return common.ErrRowNotFound
	}
	row := current.RowByID(rowID)
	if row == nil {
		return common.ErrRowNotFound
	}
	columnIdx := current.ColumnIndex(column)
	if columnIdx == -1 {
		return common.ErrColumnNotFound
	}

	coerced, err := dataset.Coerce(current.Columns[columnIdx].Type, newValue)
	if err != nil {
		return err
	}

	oldRendered := models.FormatCell(row.Cells[columnIdx])
	newRendered := models.FormatCell(coerced)
	if oldRendered == newRendered {
		return nil
	}

	record := &models.AuditRecord{
		Timestamp: g.Now().UTC(),
		Username:  session.Username,
		RowID:     rowID,
		Column:    column,
		OldValue:  oldRendered,
		NewValue:  newRendered,
	}
	if err := g.trail.Append(ctx, record); err != nil {
		return fmt.Errorf("audit append failed, edit aborted: %w", err)
	}

	if err := ds.SetCell(rowID, columnIdx, coerced); err != nil {
		return err
	}

	g.log.Info(ctx, "cell edited",
		"username", session.Username, "row_id", rowID, "column", column)
	return nil
}
