package report

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Worksheet names in the Excel export.
const (
	sheetName        = "Invoice Rows"
	summarySheetName = "Run Summary"
)

// WriteXLSX writes the export rows as an Excel workbook with a styled
// header and columns sized to their content.
func WriteXLSX(w io.Writer, rows []ExportRow) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	f, err := buildWorkbook(rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteXLSXReport writes the export rows plus a second sheet with the
// run summary: status line, vendor totals, and per-invoice totals.
func WriteXLSXReport(w io.Writer, rows []ExportRow, summary Summary) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	f, err := buildWorkbook(rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := addSummarySheet(f, summary); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the export rows to an Excel file at path.
func SaveXLSX(path string, rows []ExportRow) error {
	return saveWorkbook(path, rows, func(w io.Writer) error {
		return WriteXLSX(w, rows)
	})
}

// SaveXLSXReport writes the export rows and run summary to an Excel
// file at path.
func SaveXLSXReport(path string, rows []ExportRow, summary Summary) error {
	return saveWorkbook(path, rows, func(w io.Writer) error {
		return WriteXLSXReport(w, rows, summary)
	})
}

func saveWorkbook(path string, rows []ExportRow, write func(io.Writer) error) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create Excel file: %w", err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return err
	}
	return f.Close()
}

// buildWorkbook creates the workbook with the "Invoice Rows" sheet
// filled in. The caller owns closing the file.
func buildWorkbook(rows []ExportRow) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headers := Headers()
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to resolve last column: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	// Track the widest cell per column while writing so the sheet opens
	// readable without manual resizing.
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}

	for i, row := range rows {
		values := row.values()
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to resolve row cell: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
		for c, v := range values {
			if l := utf8.RuneCountInString(v); l > widths[c] {
				widths[c] = l
			}
		}
	}

	for i, maxLen := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to resolve column: %w", err)
		}
		width := float64(min(max(12, maxLen+2), 60))
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	return f, nil
}

// addSummarySheet appends the "Run Summary" sheet.
func addSummarySheet(f *excelize.File, s Summary) error {
	if _, err := f.NewSheet(summarySheetName); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create summary style: %w", err)
	}

	row := 1
	writeRow := func(cells ...interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		row++
		return f.SetSheetRow(summarySheetName, cell, &cells)
	}
	writeHeading := func(text string) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(summarySheetName, cell, cell, bold); err != nil {
			return err
		}
		return writeRow(text)
	}

	if s.Version != "" {
		if err := writeHeading(s.Version); err != nil {
			return err
		}
	}
	if err := writeRow(s.StatusLine()); err != nil {
		return err
	}
	row++

	if err := writeHeading("Files"); err != nil {
		return err
	}
	counts := []struct {
		label string
		n     int
	}{
		{"Processed", s.Files},
		{"FedEx", s.FedExFiles},
		{"Lightning", s.LightningFiles},
		{"Other", s.OtherFiles},
		{"Skipped", s.Skipped},
		{"Rows", s.Rows},
		{"Errors", len(s.Errors)},
	}
	for _, c := range counts {
		if err := writeRow(c.label, c.n); err != nil {
			return err
		}
	}
	row++

	if len(s.VendorTotals) > 0 {
		if err := writeHeading("Totals per vendor"); err != nil {
			return err
		}
		for _, t := range s.VendorTotals {
			if err := writeRow(t.Vendor, t.Rows, t.Total.Display()); err != nil {
				return err
			}
		}
		row++
	}

	if len(s.InvoiceTotals) > 0 {
		if err := writeHeading("Totals per InvoiceID"); err != nil {
			return err
		}
		for _, t := range s.InvoiceTotals {
			if err := writeRow(t.InvoiceID, t.Total.Display()); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(summarySheetName, "A", "A", 32); err != nil {
		return fmt.Errorf("failed to set summary column width: %w", err)
	}
	return nil
}
