// Package report renders calculation results as spreadsheets.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"fabricquote/internal/calculator"
	"fabricquote/internal/costing"
)

const sheet = "Quote"

// WriteCalculation writes one calculation as a single-sheet workbook: request, fabric usage,
// costs, the two breakdown tables and warnings, top to bottom.
func WriteCalculation(w io.Writer, p calculator.Params, res *calculator.Result, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	sw := &sheetWriter{f: f, bold: bold, money: money}

	sw.heading("Fabric quote")
	sw.pair("Generated", generatedAt.Format("2006-01-02 15:04"))
	sw.pair("Window covering", p.WindowCoveringID)
	sw.pair("Making cost", p.MakingCostID)
	sw.pair("Rail width (cm)", p.Measurements.RailWidth)
	sw.pair("Drop (cm)", p.Measurements.Drop)
	sw.pair("Pooling (cm)", p.Measurements.Pooling)
	sw.pair("Fabric width (cm)", p.FabricDetails.FabricWidth)
	sw.moneyPair("Fabric cost per yard", p.FabricDetails.FabricCostPerYard)
	sw.pair("Resolution", string(res.Resolution))
	sw.blank()

	sw.heading("Fabric usage")
	sw.pair("Orientation", string(res.FabricUsage.Orientation))
	sw.pair("Widths required", res.FabricUsage.WidthsRequired)
	sw.pair("Seams required", res.FabricUsage.SeamsRequired)
	sw.pair("Meters", res.FabricUsage.Meters)
	sw.pair("Yards", res.FabricUsage.Yards)
	sw.pair("Labor hours", res.LaborHours)
	sw.blank()

	sw.heading("Costs")
	sw.moneyPair("Fabric", res.Costs.FabricCost)
	sw.moneyPair("Making", res.Costs.MakingCost)
	sw.moneyPair("Additional options", res.Costs.AdditionalOptionsCost)
	sw.moneyPair("Labor", res.Costs.LaborCost)
	sw.moneyPair("Total", res.Costs.TotalCost)
	sw.blank()

	sw.items("Making cost items", res.Breakdown.MakingCostOptions)
	sw.items("Additional options", res.Breakdown.AdditionalOptions)

	if len(res.Warnings) > 0 {
		sw.heading("Warnings")
		for _, warning := range res.Warnings {
			sw.pair("", warning)
		}
	}

	if sw.err != nil {
		return fmt.Errorf("failed to fill sheet: %w", sw.err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 24); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(sheet, "B", "C", 36); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// sheetWriter appends rows to the quote sheet and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	row   int
	bold  int
	money int
	err   error
}

func (s *sheetWriter) set(col int, value any, style int) {
	if s.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, s.row)
	if err != nil {
		s.err = err
		return
	}
	if s.err = s.f.SetCellValue(sheet, cell, value); s.err != nil {
		return
	}
	if style != 0 {
		s.err = s.f.SetCellStyle(sheet, cell, cell, style)
	}
}

func (s *sheetWriter) heading(title string) {
	s.row++
	s.set(1, title, s.bold)
}

func (s *sheetWriter) pair(label string, value any) {
	s.row++
	s.set(1, label, 0)
	s.set(2, value, 0)
}

func (s *sheetWriter) moneyPair(label string, value float64) {
	s.row++
	s.set(1, label, 0)
	s.set(2, value, s.money)
}

func (s *sheetWriter) blank() {
	s.row++
}

func (s *sheetWriter) items(title string, items []costing.LineItem) {
	if len(items) == 0 {
		return
	}
	s.heading(title)
	s.set(2, "Cost", s.bold)
	s.set(3, "Calculation", s.bold)
	for _, item := range items {
		s.row++
		s.set(1, item.Name, 0)
		s.set(2, item.Cost, s.money)
		s.set(3, item.Calculation, 0)
	}
	s.blank()
}
