package cli

import (
	"context"
	"fmt"
	"strconv"
)

// edit prompts for a cell address and a new value and submits the change.
func (a *App) edit(ctx context.Context) error {
	rowText, err := GetSimpleText(a.reader, "Enter row id", a.out)
	if err != nil {
		return err
	}
	rowID, err := strconv.Atoi(rowText)
	if err != nil {
		fmt.Fprintln(a.out, "Row id must be a number")
		return err
	}

	column, err := GetSimpleText(a.reader, "Enter column name", a.out)
	if err != nil {
		return err
	}

	newValue, err := GetSimpleText(a.reader, "Enter new value", a.out)
	if err != nil {
		return err
	}

	if err := a.api.Edit(ctx, rowID, column, newValue); err != nil {
		fmt.Fprintln(a.out, "Edit failed:", err)
		return err
	}

	fmt.Fprintf(a.out, "Row %d, column %s updated\n", rowID, column)
	return nil
}

// auditLog prints the audit trail, oldest first.
func (a *App) auditLog(ctx context.Context) error {
	records, err := a.api.Audit(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Audit fetch failed:", err)
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(a.out, "Audit trail is empty")
		return nil
	}

	for _, r := range records {
		fmt.Fprintf(a.out, "%s  %s  row %d  %s: %q -> %q\n",
			r.Timestamp, r.Username, r.RowID, r.Column, r.OldValue, r.NewValue)
	}
	return nil
}
