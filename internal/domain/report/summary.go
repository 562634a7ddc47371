package report

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/parser"
	"github.com/FACorreiaa/invoice-runner/pkg/money"
)

// InvoiceTotal is the summed amount of all rows sharing one InvoiceID.
type InvoiceTotal struct {
	InvoiceID string
	Total     *money.Money
}

// VendorTotal is the row count and summed amount for one vendor label.
type VendorTotal struct {
	Vendor string
	Rows   int
	Total  *money.Money
}

// Summary aggregates one batch run for the status line and the summary
// email. Vendor counts come from detection on the extracted text, so a
// file counts as FedEx even when its parse produced no rows.
type Summary struct {
	Version        string
	Files          int
	FedExFiles     int
	LightningFiles int
	OtherFiles     int
	Rows           int
	Skipped        int
	InvoiceTotals  []InvoiceTotal
	VendorTotals   []VendorTotal
	Errors         []string
}

// TotalsByInvoice sums row amounts per InvoiceID in first-appearance
// order. Rows without a parsed amount contribute nothing and never create
// an entry on their own.
func TotalsByInvoice(rows []parser.Row) []InvoiceTotal {
	var totals []InvoiceTotal
	index := make(map[string]int)

	for _, r := range rows {
		if !r.Amount.Valid {
			continue
		}
		amount := money.FromNullDecimal(r.Amount, r.Currency)

		i, ok := index[r.InvoiceID]
		if !ok {
			index[r.InvoiceID] = len(totals)
			totals = append(totals, InvoiceTotal{InvoiceID: r.InvoiceID, Total: amount})
			continue
		}

		sum, err := totals[i].Total.Add(amount)
		if err != nil {
			// Mixed currencies under one invoice cannot be summed; keep
			// the first currency's running total.
			continue
		}
		totals[i].Total = sum
	}

	return totals
}

// TotalsByVendor sums row counts and amounts per vendor label in
// first-appearance order. Rows without a parsed amount still count
// toward the vendor's row total.
func TotalsByVendor(rows []parser.Row) []VendorTotal {
	var totals []VendorTotal
	index := make(map[string]int)

	for _, r := range rows {
		i, ok := index[r.Vendor]
		if !ok {
			i = len(totals)
			index[r.Vendor] = i
			totals = append(totals, VendorTotal{Vendor: r.Vendor})
		}
		totals[i].Rows++

		if !r.Amount.Valid {
			continue
		}
		sum, err := totals[i].Total.Add(money.FromNullDecimal(r.Amount, r.Currency))
		if err != nil {
			continue
		}
		totals[i].Total = sum
	}

	return totals
}

// StatusLine renders the one-line run summary.
func (s Summary) StatusLine() string {
	msg := fmt.Sprintf("Done. Files: %d FedEx: %d Lightning: %d Other(local): %d Rows: %d",
		s.Files, s.FedExFiles, s.LightningFiles, s.OtherFiles, s.Rows)

	parts := make([]string, 0, len(s.InvoiceTotals))
	for _, t := range s.InvoiceTotals {
		if t.InvoiceID == "" {
			continue
		}
		parts = append(parts, t.InvoiceID+"="+t.Total.Display())
	}
	if len(parts) > 0 {
		msg += " Totals (per InvoiceID): " + strings.Join(parts, "; ")
	}

	if len(s.Errors) > 0 {
		msg += fmt.Sprintf(" Errors: %d (see details)", len(s.Errors))
	}

	return msg
}
