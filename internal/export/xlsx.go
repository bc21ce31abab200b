// Package export renders readings into spreadsheet workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/and161185/peakflow/internal/model"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the workbook.
const (
	ReadingsSheet = "Readings"
	AveragesSheet = "Averages"
)

// ReadingsHeader is the first row of the readings sheet.
var ReadingsHeader = []string{
	"Date",
	"Time",
	"Peak Flow (L/min)",
	"Condition",
	"Morning Dose",
	"Evening Dose",
}

// AveragesHeader is the first row of the averages sheet.
var AveragesHeader = []string{
	"Period",
	"Average",
	"Readings",
	"Enough Data",
}

// WriteXLSX writes readings (in the given order) and averages as an XLSX workbook to w.
func WriteXLSX(w io.Writer, readings []model.Reading, averages []model.AverageData) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReadingsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	rows := make([][]any, 0, len(readings))
	for _, r := range readings {
		rows = append(rows, []any{r.Date, r.Time, r.Value, cell(r.Condition), cell(r.MorningDose), cell(r.EveningDose)})
	}
	if err := writeSheet(f, ReadingsSheet, ReadingsHeader, rows, header); err != nil {
		return err
	}

	if len(averages) > 0 {
		if _, err := f.NewSheet(AveragesSheet); err != nil {
			return fmt.Errorf("create sheet: %w", err)
		}
		rows = rows[:0]
		for _, a := range averages {
			enough := "no"
			if a.HasEnoughData {
				enough = "yes"
			}
			rows = append(rows, []any{a.Label, cell(a.Average), a.Count, enough})
		}
		if err := writeSheet(f, AveragesSheet, AveragesHeader, rows, header); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any, headerStyle int) error {
	hdr := make([]any, len(headers))
	for i, h := range headers {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 16); err != nil {
		return fmt.Errorf("%s col width: %w", sheet, err)
	}
	for i := range rows {
		start, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, start, &rows[i]); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

// cell turns an optional integer into a cell value; nil leaves the cell blank.
func cell(p *int) any {
	if p == nil {
		return ""
	}
	return *p
}
