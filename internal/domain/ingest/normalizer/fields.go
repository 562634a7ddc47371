// Package normalizer canonicalizes extracted invoice text before parsing.
// fields.go handles cleanup and conversion of individual field values.
package normalizer

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var anySpace = regexp.MustCompile(`\s+`)

// SoftClean collapses all whitespace runs to single spaces and trims.
func SoftClean(s string) string {
	return strings.TrimSpace(anySpace.ReplaceAllString(s, " "))
}

// flexibleDateLayouts is the order used for human-entered header dates.
var flexibleDateLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-1-2",
	"1/2/2006",
}

// ParseFlexibleDate renders a date as ISO 8601 (YYYY-MM-DD) when it matches
// a known layout. Unparseable input comes back trimmed but otherwise intact
// so the caller never loses the original value.
func ParseFlexibleDate(s string) string {
	trimmed := strings.TrimSpace(s)
	for _, layout := range flexibleDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return trimmed
}

// normalizeDateLayouts is the order used for dates found in generic invoices.
var normalizeDateLayouts = []string{
	"1/2/2006",
	"2006-1-2",
	"January 2, 2006",
	"Jan 2, 2006",
}

// NormalizeDate renders a date as ISO 8601, additionally handling range
// strings like "10/16/2025-10/31/2025" by taking the last parseable part.
// Unparseable input comes back trimmed.
func NormalizeDate(s string) string {
	trimmed := strings.TrimSpace(s)
	for _, layout := range normalizeDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if strings.Contains(trimmed, "-") {
		parts := strings.Split(trimmed, "-")
		for i := len(parts) - 1; i >= 0; i-- {
			part := strings.TrimSpace(parts[i])
			if norm := NormalizeDate(part); norm != part {
				return norm
			}
		}
	}
	return trimmed
}

// ParseAmount converts a money string like "1,234.56" or "$45.00" to a
// decimal. Invalid input yields an invalid NullDecimal, never zero, so
// "no charge found" stays distinguishable from "zero charge".
func ParseAmount(s string) decimal.NullDecimal {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.TrimSuffix(cleaned, ".")
	if cleaned == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
