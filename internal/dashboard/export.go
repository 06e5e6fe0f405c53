package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const exportSheet = "Job Status"

var exportHeaders = []string{
	"Job ID",
	"Operator",
	"Mold Name",
	"Vehicle",
	"System",
	"Part Count",
	"Status",
	"Start",
	"End",
}

// ExportXLSX renders d as a workbook with one sheet. Each chemical type gets a
// bold header row followed by its jobs; status cells are filled with the
// status color.
func (a *Aggregator) ExportXLSX(d Dashboard) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if _, err := f.NewSheet(exportSheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(exportSheet)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}
	statusStyles := make(map[string]int)
	statusStyle := func(color string) (int, error) {
		if id, ok := statusStyles[color]; ok {
			return id, nil
		}
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(color, "#")}},
		})
		if err != nil {
			return 0, err
		}
		statusStyles[color] = id
		return id, nil
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exportSheet, cell, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	_ = f.SetCellStyle(exportSheet, "A1", last, bold)

	row := 2
	for _, g := range d.Groups {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(exportSheet, cell, "Chemical Type: "+g.ChemicalType)
		_ = f.SetCellStyle(exportSheet, cell, cell, bold)
		row++

		for _, j := range g.Jobs {
			write := func(col int, v any) string {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				_ = f.SetCellValue(exportSheet, cell, v)
				return cell
			}
			operator, moldName, vehicle, system := "N/A", "N/A", "N/A", "N/A"
			if j.Operator != nil {
				operator = j.Operator.Username
			}
			if j.Mold != nil {
				moldName, vehicle, system = j.Mold.MoldName, j.Mold.Vehicle, string(j.Mold.System)
			}
			write(1, j.JobID)
			write(2, operator)
			write(3, moldName)
			write(4, vehicle)
			write(5, system)
			write(6, j.PartCount)
			statusCell := write(7, string(j.DisplayStatus()))
			write(8, j.StartDatetime.Display())
			write(9, j.EndDatetime.Display())

			id, err := statusStyle(StatusColor(j.DisplayStatus()))
			if err != nil {
				return nil, fmt.Errorf("xlsx style: %w", err)
			}
			_ = f.SetCellStyle(exportSheet, statusCell, statusCell, id)
			row++
		}
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 14) // job id
	_ = f.SetColWidth(exportSheet, "B", "B", 16) // operator
	_ = f.SetColWidth(exportSheet, "C", "C", 28) // mold
	_ = f.SetColWidth(exportSheet, "D", "E", 16) // vehicle, system
	_ = f.SetColWidth(exportSheet, "F", "F", 12) // parts
	_ = f.SetColWidth(exportSheet, "G", "G", 14) // status
	_ = f.SetColWidth(exportSheet, "H", "I", 18) // schedule

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	a.log.Info("dashboard exported",
		zap.Int("jobs", d.Total()),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	return buf.Bytes(), nil
}
