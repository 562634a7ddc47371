package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/parser"
	"github.com/FACorreiaa/invoice-runner/pkg/money"
)

func amount(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func sampleRows() []parser.Row {
	return []parser.Row{
		{
			InvoiceFileName:   "fedex_2025-07.pdf",
			Vendor:            parser.VendorFedEx,
			InvoiceID:         "870259123",
			InvoiceDate:       "2025-07-01",
			DueDate:           "2025-07-16",
			Description:       "FedEx",
			Quantity:          "1",
			UnitPrice:         "48.09",
			Amount:            amount("48.09"),
			Currency:          "USD",
			Sender:            "Marine 310-282-5973",
			CustomerReference: "470583746",
			ClientCode:        "ACME01",
		},
		{
			InvoiceFileName: "misc_invoice.pdf",
			Vendor:          "Generic",
			Description:     "Generic Invoice",
		},
	}
}

func TestFromParserRow(t *testing.T) {
	rows := FromParserRows(sampleRows())
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, "fedex_2025-07.pdf", first.InvoiceFileName)
	assert.Equal(t, "FedEx", first.Vendor)
	assert.Equal(t, "48.09", first.Amount)
	assert.Equal(t, "Marine 310-282-5973", first.Sender)
	assert.Equal(t, "470583746", first.CustomerReference)
	assert.Equal(t, "ACME01", first.ClientCode)

	// An amount that never parsed exports as empty, not zero
	assert.Equal(t, "", rows[1].Amount)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, FromParserRows(sampleRows())))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, strings.Join(Headers(), ","), lines[0])
	assert.Contains(t, lines[1], "fedex_2025-07.pdf,FedEx,870259123")
	assert.Contains(t, lines[1], "Marine 310-282-5973")
}

func TestWriteCSVNoRows(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, nil)
	assert.ErrorIs(t, err, ErrNoRows)
	assert.Zero(t, buf.Len())
}

func TestSaveCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice_rows.csv")
	require.NoError(t, SaveCSV(path, FromParserRows(sampleRows())))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "InvoiceFileName,Vendor,InvoiceID"))
	assert.Contains(t, string(data), "Caller/Sender,Reference,PrimaryClientCode")
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, FromParserRows(sampleRows())))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"Invoice Rows"}, f.GetSheetList())

	rows, err := f.GetRows("Invoice Rows")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Headers(), rows[0])
	assert.Equal(t, "fedex_2025-07.pdf", rows[1][0])
	assert.Equal(t, "48.09", rows[1][8])

	// Columns widen with their content but stay within bounds
	width, err := f.GetColWidth("Invoice Rows", "A")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, width, float64(12))
	assert.LessOrEqual(t, width, float64(60))
}

func TestWriteXLSXNoRows(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteXLSX(&buf, nil), ErrNoRows)
}

func TestSaveXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice_rows.xlsx")
	require.NoError(t, SaveXLSX(path, FromParserRows(sampleRows())))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Invoice Rows")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestWriteXLSXReport(t *testing.T) {
	summary := Summary{
		Version:    "SmartInvoiceRunner v3.2",
		Files:      2,
		FedExFiles: 1,
		OtherFiles: 1,
		Rows:       2,
		VendorTotals: []VendorTotal{
			{Vendor: "FedEx", Rows: 1, Total: money.New(4809, money.USD)},
			{Vendor: "Generic", Rows: 1, Total: money.Zero(money.USD)},
		},
		InvoiceTotals: []InvoiceTotal{
			{InvoiceID: "870259123", Total: money.New(4809, money.USD)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSXReport(&buf, FromParserRows(sampleRows()), summary))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"Invoice Rows", "Run Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Run Summary")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "SmartInvoiceRunner v3.2", rows[0][0])
	assert.Equal(t, summary.StatusLine(), rows[1][0])

	flat := make([]string, 0, len(rows))
	for _, r := range rows {
		flat = append(flat, strings.Join(r, "|"))
	}
	joined := strings.Join(flat, "\n")
	assert.Contains(t, joined, "FedEx|1|$48.09")
	assert.Contains(t, joined, "870259123|$48.09")
}

func TestTotalsByInvoice(t *testing.T) {
	rows := []parser.Row{
		{InvoiceID: "870259123", Amount: amount("48.09"), Currency: "USD"},
		{InvoiceID: "INV-2207", Amount: amount("99.01"), Currency: "USD"},
		{InvoiceID: "870259123", Amount: amount("1.91"), Currency: "USD"},
		{InvoiceID: "870259123"}, // no amount, contributes nothing
		{InvoiceID: "", Amount: amount("5.00"), Currency: "USD"},
	}

	totals := TotalsByInvoice(rows)
	require.Len(t, totals, 3)

	// First-appearance order
	assert.Equal(t, "870259123", totals[0].InvoiceID)
	assert.Equal(t, int64(5000), totals[0].Total.Amount())
	assert.Equal(t, "INV-2207", totals[1].InvoiceID)
	assert.Equal(t, int64(9901), totals[1].Total.Amount())
	assert.Equal(t, "", totals[2].InvoiceID)
}

func TestTotalsByInvoiceMixedCurrency(t *testing.T) {
	rows := []parser.Row{
		{InvoiceID: "A", Amount: amount("10.00"), Currency: "USD"},
		{InvoiceID: "A", Amount: amount("5.00"), Currency: "EUR"},
		{InvoiceID: "A", Amount: amount("2.00"), Currency: "USD"},
	}

	totals := TotalsByInvoice(rows)
	require.Len(t, totals, 1)
	assert.Equal(t, int64(1200), totals[0].Total.Amount())
	assert.Equal(t, money.USD, totals[0].Total.Currency())
}

func TestTotalsByVendor(t *testing.T) {
	rows := []parser.Row{
		{Vendor: "FedEx", Amount: amount("48.09"), Currency: "USD"},
		{Vendor: "Lightning Messenger Express", Amount: amount("99.01"), Currency: "USD"},
		{Vendor: "FedEx", Amount: amount("1.91"), Currency: "USD"},
		{Vendor: "Generic"}, // no amount, still counted as a row
	}

	totals := TotalsByVendor(rows)
	require.Len(t, totals, 3)

	assert.Equal(t, "FedEx", totals[0].Vendor)
	assert.Equal(t, 2, totals[0].Rows)
	assert.Equal(t, int64(5000), totals[0].Total.Amount())
	assert.Equal(t, "Lightning Messenger Express", totals[1].Vendor)
	assert.Equal(t, 1, totals[1].Rows)
	assert.Equal(t, "Generic", totals[2].Vendor)
	assert.Equal(t, 1, totals[2].Rows)
	assert.True(t, totals[2].Total.IsZero())
}

func TestStatusLine(t *testing.T) {
	s := Summary{
		Files:          3,
		FedExFiles:     1,
		LightningFiles: 1,
		OtherFiles:     1,
		Rows:           5,
		InvoiceTotals: []InvoiceTotal{
			{InvoiceID: "870259123", Total: money.New(123456, money.USD)},
			{InvoiceID: "", Total: money.New(500, money.USD)},
			{InvoiceID: "INV-2207", Total: money.New(9901, money.USD)},
		},
		Errors: []string{"a.pdf: boom", "b.pdf: boom"},
	}

	got := s.StatusLine()
	assert.Equal(t,
		"Done. Files: 3 FedEx: 1 Lightning: 1 Other(local): 1 Rows: 5"+
			" Totals (per InvoiceID): 870259123=$1,234.56; INV-2207=$99.01"+
			" Errors: 2 (see details)",
		got)
}

func TestStatusLineMinimal(t *testing.T) {
	s := Summary{Files: 1, OtherFiles: 1, Rows: 1}
	assert.Equal(t, "Done. Files: 1 FedEx: 0 Lightning: 0 Other(local): 0 Rows: 1", s.StatusLine())
}
