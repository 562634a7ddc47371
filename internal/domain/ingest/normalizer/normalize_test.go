package normalizer

import (
	"testing"
)

func TestTextNormalizer_Normalize(t *testing.T) {
	n := NewTextNormalizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "nbsp and zero-width become spaces",
			input:    "Total Charge​USD",
			expected: "Total Charge USD",
		},
		{
			name:     "fi ligature expands",
			input:    "ﬁnal notice",
			expected: "final notice",
		},
		{
			name:     "tabs and space runs collapse, newlines survive",
			input:    "Ship Date:\t01/02/2025\nSender   ACME",
			expected: "Ship Date: 01/02/2025\nSender ACME",
		},
		{
			name:     "transportation charges label canonicalized",
			input:    "Total  Transportation   Charges USD $12.00",
			expected: "Total Charge USD $12.00",
		},
		{
			name:     "total charge casing canonicalized",
			input:    "TOTAL CHARGE USD $12.00",
			expected: "Total Charge USD $12.00",
		},
		{
			name:     "totals line en dash becomes hyphen",
			input:    "Totals: Billing Reference 1 – 3119952000 Total: $35.00",
			expected: "Totals: Billing Reference 1 - 3119952000 Total: $35.00",
		},
		{
			name:     "summary anchor rewritten",
			input:    "SUMMARY–BILLING REFERENCE 1",
			expected: "Summary - Billing Reference 1",
		},
		{
			name:     "order total anchor rewritten",
			input:    "order total : $15.00",
			expected: "Order Total: $15.00",
		},
		{
			name:     "bare billing reference rewritten",
			input:    "BILLING  REFERENCE  1 3119952000",
			expected: "Billing Reference 1 3119952000",
		},
		{
			name:     "customer and invoice labels rewritten",
			input:    "CUSTOMER NUMBER 77 INVOICE NUMBER 88 INVOICE PERIOD 9/2025",
			expected: "Customer Number 77 Invoice Number 88 Invoice Period 9/2025",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.input)
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTextNormalizer_Idempotent(t *testing.T) {
	n := NewTextNormalizer()

	inputs := []string{
		"Total Transportation Charges USD $12.00",
		"Totals: Billing Reference 1 – 3119952000 Total: $35.00",
		"summary - billing reference 1\ncustomer number 42",
		"Ship Date:\t01/02/2025\nSender ACME CO",
		"plain text with no anchors at all",
		"",
	}

	for _, input := range inputs {
		once := n.Normalize(input)
		twice := n.Normalize(once)
		if once != twice {
			t.Errorf("normalization not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestTextNormalizer_AddPattern(t *testing.T) {
	n := NewTextNormalizer()

	if err := n.AddPattern(`(?i)net\s*30`, "Net 30"); err != nil {
		t.Fatalf("AddPattern returned error: %v", err)
	}
	if got := n.Normalize("terms NET  30"); got != "terms Net 30" {
		t.Errorf("custom pattern not applied, got %q", got)
	}

	if err := n.AddPattern(`[`, "broken"); err == nil {
		t.Error("expected error for invalid pattern")
	}
}
