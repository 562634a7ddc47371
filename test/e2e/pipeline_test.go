// Package e2etest provides end-to-end integration tests for invoice batch flows.
package e2etest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/extract"
	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/parser"
	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/service"
	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/sniffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDataDir = "../../internal/data/invoices"

// extractFixture reads the text layer of a fixture PDF, skipping the test
// when the file is absent or carries no text layer (scanned fixtures need
// OCR, which e2e runs do not configure).
func extractFixture(t *testing.T, name string) extract.Result {
	t.Helper()

	pdfPath := filepath.Join(testDataDir, name)
	if _, err := os.Stat(pdfPath); os.IsNotExist(err) {
		t.Skipf("Test data file not found: %s (add an invoice PDF to run this test)", pdfPath)
	}

	res, err := extract.NewExtractor().Extract(context.Background(), pdfPath)
	if errors.Is(err, extract.ErrNoTextLayer) {
		t.Skipf("Fixture %s has no usable text layer (scanned PDF, OCR not configured here)", name)
	}
	require.NoError(t, err, "Failed to extract text from %s", name)
	require.NotEmpty(t, res.Text, "Extracted text is empty for %s", name)

	t.Logf("%s: source=%s, pages=%d, chars=%d", name, res.Source, res.Pages, len(res.Text))
	return res
}

// TestFedEx_PDFPipeline runs a real FedEx invoice PDF through extraction,
// vendor detection, and the merge parser.
func TestFedEx_PDFPipeline(t *testing.T) {
	res := extractFixture(t, "fedex-invoice.pdf")

	t.Run("DetectVendor", func(t *testing.T) {
		detected := sniffer.NewDetector().Detect(res.Text)

		assert.True(t, detected.IsFedEx(), "Expected FedEx brand plus anchors in fixture")
		assert.False(t, detected.IsLightning(), "FedEx fixture should not look like a courier manifest")

		t.Logf("FedEx evidence: brand=%v, anchors=%d", detected.FedExBrand, detected.FedExAnchors)
	})

	t.Run("ParseRows", func(t *testing.T) {
		rows, err := parser.NewEngine(parser.Config{}).Parse(res.Text, "fedex-invoice.pdf")
		require.NoError(t, err, "Failed to parse FedEx fixture")
		require.NotEmpty(t, rows, "Expected at least one shipment row")

		for _, row := range rows {
			assert.Equal(t, parser.VendorFedEx, row.Vendor)
			assert.True(t, row.Amount.Valid, "FedEx rows always carry a total charge")
		}

		t.Logf("FedEx fixture: %d rows, first ref=%s amount=%s %s",
			len(rows), rows[0].CustomerReference, rows[0].Amount.Decimal, rows[0].Currency)
	})
}

// TestLightning_PDFPipeline runs a real Lightning Messenger Express invoice
// PDF through extraction, vendor detection, and the two-pass block parser.
func TestLightning_PDFPipeline(t *testing.T) {
	res := extractFixture(t, "lightning-invoice.pdf")

	t.Run("DetectVendor", func(t *testing.T) {
		detected := sniffer.NewDetector().Detect(res.Text)

		assert.True(t, detected.IsLightning(), "Expected courier brand or manifest anchors in fixture")

		t.Logf("Lightning evidence: brand=%v, anchors=%d", detected.LightningBrand, detected.LightningAnchors)
	})

	t.Run("ParseRows", func(t *testing.T) {
		rows, err := parser.NewEngine(parser.Config{}).Parse(res.Text, "lightning-invoice.pdf")
		require.NoError(t, err, "Failed to parse Lightning fixture")
		require.NotEmpty(t, rows, "Expected at least one order row")

		for _, row := range rows {
			assert.Equal(t, parser.VendorLightning, row.Vendor)
		}

		t.Logf("Lightning fixture: %d rows, invoice=%s date=%s first ref=%s",
			len(rows), rows[0].InvoiceID, rows[0].InvoiceDate, rows[0].CustomerReference)
	})
}

// TestOther_PDFPipeline runs an invoice from an unknown vendor through the
// pipeline and checks the generic fallback produces its single summary row.
func TestOther_PDFPipeline(t *testing.T) {
	res := extractFixture(t, "misc-invoice.pdf")

	t.Run("DetectVendor", func(t *testing.T) {
		detected := sniffer.NewDetector().Detect(res.Text)

		assert.False(t, detected.IsFedEx(), "Unknown-vendor fixture should not look like FedEx")
		assert.False(t, detected.IsLightning(), "Unknown-vendor fixture should not look like a courier manifest")
	})

	t.Run("ParseRows", func(t *testing.T) {
		rows, err := parser.NewEngine(parser.Config{}).Parse(res.Text, "misc-invoice.pdf")
		require.NoError(t, err, "Generic fallback should not fail on non-empty text")
		require.Len(t, rows, 1, "Generic fallback yields exactly one row per file")

		row := rows[0]
		assert.Equal(t, "misc-invoice.pdf", row.InvoiceFileName)
		if row.Vendor == "" {
			t.Log("No vendor guess for fixture (no corporate suffix or From/Bill-to label found)")
		}

		t.Logf("Generic fixture: vendor=%q, invoice=%s, amount=%s %s",
			row.Vendor, row.InvoiceID, row.Amount.Decimal, row.Currency)
	})
}

// TestIntegration_FullBatchFlow runs the batch service over every fixture in
// the data directory and checks the run-level accounting.
func TestIntegration_FullBatchFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	entries, err := os.ReadDir(testDataDir)
	if os.IsNotExist(err) {
		t.Skipf("Test data directory not found: %s (add invoice PDFs to run this test)", testDataDir)
	}
	require.NoError(t, err)

	pdfCount := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			pdfCount++
		}
	}
	if pdfCount == 0 {
		t.Skipf("No PDF fixtures in %s", testDataDir)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	outDir := t.TempDir()

	svc := service.NewBatchService(extract.NewExtractor().WithLogger(logger), testDataDir, outDir, logger)

	result, err := svc.Run(context.Background())
	require.NoError(t, err, "Batch run should not fail outright")

	summary := result.Summary
	assert.Equal(t, pdfCount, summary.Files, "Every discovered PDF counts toward the file total")
	assert.Equal(t, len(result.Rows), summary.Rows)
	assert.Contains(t, summary.StatusLine(), "Done. Files:")

	if len(result.Rows) > 0 {
		assert.FileExists(t, result.CSVPath, "Expected CSV export when rows were extracted")
		assert.FileExists(t, result.XLSXPath, "Expected XLSX export when rows were extracted")
	}

	t.Logf("Batch flow: %s", summary.StatusLine())
	for _, e := range summary.Errors {
		t.Logf("  per-file error: %s", e)
	}
}
