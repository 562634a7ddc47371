// Package report renders parsed invoice rows into CSV and Excel exports
// and builds the per-run status summary.
package report

import (
	"errors"

	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/parser"
)

// ErrNoRows is returned by the writers when there is nothing to export.
var ErrNoRows = errors.New("no rows to export")

// ExportRow is the flat record written to CSV and Excel. The csv tags carry
// the spreadsheet display labels, so the header row reads the way the
// billing team expects ("Caller/Sender", "Reference") rather than the
// internal field names.
type ExportRow struct {
	InvoiceFileName   string `csv:"InvoiceFileName"`
	Vendor            string `csv:"Vendor"`
	InvoiceID         string `csv:"InvoiceID"`
	InvoiceDate       string `csv:"InvoiceDate"`
	DueDate           string `csv:"DueDate"`
	Description       string `csv:"Description"`
	Quantity          string `csv:"Quantity"`
	UnitPrice         string `csv:"UnitPrice"`
	Amount            string `csv:"Amount"`
	Currency          string `csv:"Currency"`
	Sender            string `csv:"Caller/Sender"`
	CustomerReference string `csv:"Reference"`
	ClientCode        string `csv:"PrimaryClientCode"`
}

// Headers returns the export header labels in column order. The order must
// match the ExportRow field order so CSV and Excel exports line up.
func Headers() []string {
	return []string{
		"InvoiceFileName", "Vendor", "InvoiceID", "InvoiceDate", "DueDate",
		"Description", "Quantity", "UnitPrice", "Amount", "Currency",
		"Caller/Sender", "Reference", "PrimaryClientCode",
	}
}

// values returns the cell values in header order.
func (r ExportRow) values() []string {
	return []string{
		r.InvoiceFileName, r.Vendor, r.InvoiceID, r.InvoiceDate, r.DueDate,
		r.Description, r.Quantity, r.UnitPrice, r.Amount, r.Currency,
		r.Sender, r.CustomerReference, r.ClientCode,
	}
}

// FromParserRow converts a parsed row to its export form. An amount that
// never parsed exports as an empty cell, not as zero.
func FromParserRow(r parser.Row) ExportRow {
	amount := ""
	if r.Amount.Valid {
		amount = r.Amount.Decimal.String()
	}

	return ExportRow{
		InvoiceFileName:   r.InvoiceFileName,
		Vendor:            r.Vendor,
		InvoiceID:         r.InvoiceID,
		InvoiceDate:       r.InvoiceDate,
		DueDate:           r.DueDate,
		Description:       r.Description,
		Quantity:          r.Quantity,
		UnitPrice:         r.UnitPrice,
		Amount:            amount,
		Currency:          r.Currency,
		Sender:            r.Sender,
		CustomerReference: r.CustomerReference,
		ClientCode:        r.ClientCode,
	}
}

// FromParserRows converts a batch of parsed rows.
func FromParserRows(rows []parser.Row) []ExportRow {
	out := make([]ExportRow, len(rows))
	for i, r := range rows {
		out[i] = FromParserRow(r)
	}
	return out
}
