package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chipsfactory/prodreport/internal/server/dataset"
	"github.com/chipsfactory/prodreport/internal/server/models"
)

const kpiCSV = `Date,Planned_Production_Units,Actual_Production_Units,Raw_Material_Used_kg,Waste_Weight_kg,Downtime_Minutes,Total_Time_Run_Minutes
2025-08-01,1000,950,500,25,30,450
2025-08-02,1000,1050,520,15,10,470
`

func loadKPIDataset(t *testing.T) *models.Dataset {
	t.Helper()
	loader := dataset.NewLoader(dataset.MultiFetcher{Local: dataset.LocalFetcher{}}, "Date")
	ds, err := loader.Parse(strings.NewReader(kpiCSV))
	require.NoError(t, err)
	return ds
}

func TestCalculate(t *testing.T) {
	ds := loadKPIDataset(t)

	k := Calculate(ds)
	assert.InDelta(t, 2000, k.TotalProduction, 1e-9)
	assert.InDelta(t, 2000, k.TotalPlanned, 1e-9)
	assert.InDelta(t, 1.0, k.Efficiency, 1e-9)
	assert.InDelta(t, (1020-40)/1020.0, k.YieldRate, 1e-9)
	assert.InDelta(t, 40, k.TotalWaste, 1e-9)
	assert.InDelta(t, 40, k.TotalDowntime, 1e-9)
	assert.InDelta(t, 920.0/960.0, k.Utilization, 1e-9)
}

func TestCalculate_DoesNotMutateDataset(t *testing.T) {
	ds := loadKPIDataset(t)
	before := ds.Rows[0].Cells[2]

	_ = Calculate(ds)
	assert.Equal(t, before, ds.Rows[0].Cells[2])
}

func TestCalculate_MissingColumnsYieldZeros(t *testing.T) {
	loader := dataset.NewLoader(dataset.MultiFetcher{Local: dataset.LocalFetcher{}}, "Date")
	ds, err := loader.Parse(strings.NewReader("Date,Other\n2025-08-01,x\n"))
	require.NoError(t, err)

	k := Calculate(ds)
	assert.Zero(t, k.TotalProduction)
	assert.Zero(t, k.Efficiency)
	assert.Zero(t, k.Utilization)
}

func TestFormatted(t *testing.T) {
	k := Calculate(loadKPIDataset(t))

	out := k.Formatted()
	assert.Equal(t, "2000", out["Total Production (Units)"])
	assert.Equal(t, "100.00%", out["Overall Efficiency"])
}
