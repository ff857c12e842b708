// Package report computes the dashboard KPIs over a loaded dataset. It is a
// read-only collaborator: it never mutates the rows it is handed.
package report

import (
	"fmt"

	"github.com/chipsfactory/prodreport/internal/server/models"
)

// Column names the KPI formulas draw from.
const (
	colActual   = "Actual_Production_Units"
	colPlanned  = "Planned_Production_Units"
	colRawUsed  = "Raw_Material_Used_kg"
	colWaste    = "Waste_Weight_kg"
	colDowntime = "Downtime_Minutes"
	colRunTime  = "Total_Time_Run_Minutes"
)

type KPIs struct {
	TotalProduction float64
	TotalPlanned    float64
	Efficiency      float64
	YieldRate       float64
	TotalWaste      float64
	TotalDowntime   float64
	Utilization     float64
}

// Calculate sums the production-metric columns and derives the ratios.
// Missing columns contribute zero, so a partial dataset still yields a
// report. Ratios with a zero denominator are reported as zero.
func Calculate(ds *models.Dataset) KPIs {
	production := sumColumn(ds, colActual)
	planned := sumColumn(ds, colPlanned)
	rawUsed := sumColumn(ds, colRawUsed)
	waste := sumColumn(ds, colWaste)
	downtime := sumColumn(ds, colDowntime)
	runTime := sumColumn(ds, colRunTime)

	k := KPIs{
		TotalProduction: production,
		TotalPlanned:    planned,
		TotalWaste:      waste,
		TotalDowntime:   downtime,
	}

	if planned != 0 {
		k.Efficiency = production / planned
	}
	if rawUsed != 0 {
		k.YieldRate = (rawUsed - waste) / rawUsed
	}
	if runTime+downtime != 0 {
		k.Utilization = runTime / (runTime + downtime)
	}

	return k
}

// Formatted renders the KPIs the way the dashboard displays them.
func (k KPIs) Formatted() map[string]string {
	return map[string]string{
		"Total Production (Units)": fmt.Sprintf("%.0f", k.TotalProduction),
		"Overall Efficiency":       fmt.Sprintf("%.2f%%", k.Efficiency*100),
		"Raw Material Yield":       fmt.Sprintf("%.2f%%", k.YieldRate*100),
		"Total Waste (kg)":         fmt.Sprintf("%.1f", k.TotalWaste),
		"Total Downtime (min)":     fmt.Sprintf("%.0f", k.TotalDowntime),
		"Utilization Rate":         fmt.Sprintf("%.2f%%", k.Utilization*100),
	}
}

func sumColumn(ds *models.Dataset, name string) float64 {
	idx := ds.ColumnIndex(name)
	if idx == -1 {
		return 0
	}

	var total float64
	for _, row := range ds.Rows {
		if v, ok := row.Cells[idx].(float64); ok {
			total += v
		}
	}
	return total
}
