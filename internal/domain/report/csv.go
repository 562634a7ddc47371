package report

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
)

// WriteCSV writes the export rows as CSV with the display-label header.
func WriteCSV(w io.Writer, rows []ExportRow) error {
	if len(rows) == 0 {
		return ErrNoRows
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// SaveCSV writes the export rows to a CSV file at path.
func SaveCSV(path string, rows []ExportRow) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, rows); err != nil {
		return err
	}
	return f.Close()
}
