package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fabricquote/internal/calculator"
	"fabricquote/internal/costing"
	"fabricquote/internal/fabric"
)

func TestWriteCalculation(t *testing.T) {
	p := calculator.Params{
		WindowCoveringID: "curtain",
		MakingCostID:     "pencil",
		Measurements:     fabric.Measurements{RailWidth: 300, Drop: 220},
		FabricDetails:    fabric.Details{FabricWidth: 137, FabricCostPerYard: 20},
	}
	res := &calculator.Result{
		FabricUsage: fabric.Usage{Yards: 17.7, Meters: 16.2, Orientation: fabric.Vertical, WidthsRequired: 6, SeamsRequired: 5},
		Costs:       costing.Costs{FabricCost: 354, MakingCost: 150, LaborCost: 277.5, TotalCost: 781.5},
		Breakdown: costing.Breakdown{
			MakingCostOptions: []costing.LineItem{{Name: "Pencil pleat", Cost: 150, Calculation: "Drop 220cm in range 201-250cm"}},
		},
		Warnings:   []string{"5 seam(s) required; seam labor adds 2.5 hours"},
		Resolution: calculator.FullyResolved,
		LaborHours: 11.1,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCalculation(&buf, p, res, time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheet}, f.GetSheetList())

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)

	labels := map[string]string{}
	for _, row := range rows {
		if len(row) >= 2 && row[0] != "" {
			labels[row[0]] = row[1]
		}
	}
	assert.Equal(t, "2025-03-01 09:30", labels["Generated"])
	assert.Equal(t, "curtain", labels["Window covering"])
	assert.Equal(t, "6", labels["Widths required"])
	assert.Equal(t, "fully_resolved", labels["Resolution"])

	total, err := f.GetCellValue(sheet, cellOf(t, rows, "Total"), excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "781.5", total)

	var sawWarning bool
	for _, row := range rows {
		if len(row) >= 2 && row[1] == res.Warnings[0] {
			sawWarning = true
		}
	}
	assert.True(t, sawWarning)
}

func cellOf(t *testing.T, rows [][]string, label string) string {
	t.Helper()
	for i, row := range rows {
		if len(row) > 0 && row[0] == label {
			cell, err := excelize.CoordinatesToCellName(2, i+1)
			require.NoError(t, err)
			return cell
		}
	}
	t.Fatalf("no row labelled %q", label)
	return ""
}
