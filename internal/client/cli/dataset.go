package cli

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"
)

// load prompts for a dataset source and asks the server to load it.
func (a *App) load(ctx context.Context) error {
	source, err := GetSimpleText(a.reader, "Enter dataset source (path or s3://bucket/key)", a.out)
	if err != nil {
		return err
	}

	result, err := a.api.LoadDataset(ctx, source)
	if err != nil {
		fmt.Fprintln(a.out, "Load failed:", err)
		return err
	}

	fmt.Fprintf(a.out, "Loaded %s: %d rows, %d columns\n", result.Source, result.Rows, result.Columns)
	return nil
}

// rows prints the loaded dataset as a table, one line per row, with the
// row id in the first column.
func (a *App) rows(ctx context.Context) error {
	view, err := a.api.Dataset(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Fetch failed:", err)
		return err
	}
	if !view.Loaded {
		fmt.Fprintln(a.out, "No dataset loaded; use 'load' first")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)

	fmt.Fprint(tw, "Row_ID")
	for _, col := range view.Columns {
		fmt.Fprintf(tw, "\t%s", col.Name)
	}
	fmt.Fprintln(tw)

	for _, row := range view.Rows {
		fmt.Fprintf(tw, "%d", row.RowID)
		for _, col := range view.Columns {
			fmt.Fprintf(tw, "\t%s", row.Cells[col.Name])
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}

// kpi prints the report figures, sorted by label so the output is stable.
func (a *App) kpi(ctx context.Context) error {
	report, err := a.api.Report(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Report failed:", err)
		return err
	}

	labels := make([]string, 0, len(report))
	for label := range report {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	for _, label := range labels {
		fmt.Fprintf(a.out, "%s: %s\n", label, report[label])
	}
	return nil
}
