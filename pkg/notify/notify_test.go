package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/invoice-runner/pkg/money"
)

func TestEnabled(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		to     []string
		want   bool
	}{
		{"no api key", "", []string{"ops@example.com"}, false},
		{"no recipients", "re_123", nil, false},
		{"configured", "re_123", []string{"ops@example.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNotifier(tt.apiKey, "runner@example.com", tt.to, nil)
			assert.Equal(t, tt.want, n.Enabled())
		})
	}

	var nilNotifier *Notifier
	assert.False(t, nilNotifier.Enabled())
}

func TestSendRunSummarySkipsWhenUnconfigured(t *testing.T) {
	n := NewNotifier("", "runner@example.com", []string{"ops@example.com"}, nil)
	err := n.SendRunSummary(RunSummary{Files: 3, Rows: 12})
	require.NoError(t, err)
}

func TestRenderRunSummary(t *testing.T) {
	body := renderRunSummary(RunSummary{
		RunID:          "0b54f4d0-9a3e-47c1-8a36-1fd02a3f1c55",
		Version:        "SmartInvoiceRunner v3.2",
		FinishedAt:     time.Date(2025, 7, 14, 8, 30, 0, 0, time.UTC),
		Duration:       4200 * time.Millisecond,
		Files:          5,
		FedExFiles:     3,
		LightningFiles: 1,
		OtherFiles:     1,
		Rows:           42,
		Totals: []InvoiceTotal{
			{InvoiceID: "870259123", Amount: money.New(123456, money.USD)},
			{InvoiceID: "INV-2207", Amount: money.New(9901, money.USD)},
		},
		Errors: []string{"broken.pdf: no text layer <partial>"},
	})

	assert.Contains(t, body, "5 processed")
	assert.Contains(t, body, "FedEx: 3, Lightning: 1, Other: 1")
	assert.Contains(t, body, "42 extracted in 4.2s")
	assert.Contains(t, body, "870259123")
	assert.Contains(t, body, "$1,234.56")
	assert.Contains(t, body, "$99.01")
	// Error text is escaped before it lands in HTML
	assert.Contains(t, body, "broken.pdf: no text layer &lt;partial&gt;")
	assert.NotContains(t, body, "<partial>")
	assert.Contains(t, body, "0b54f4d0-9a3e-47c1-8a36-1fd02a3f1c55")
	assert.Contains(t, body, "SmartInvoiceRunner v3.2")
}

func TestRenderRunSummaryWithoutErrors(t *testing.T) {
	body := renderRunSummary(RunSummary{Files: 1, Rows: 1})
	assert.NotContains(t, body, "ERRORS")
}
