// Package normalizer canonicalizes extracted invoice text before parsing.
// normalize.go handles OCR artifact cleanup and label anchor rewrites.
package normalizer

import (
	"regexp"
	"strings"
)

// LabelPattern defines a pattern for rewriting a degraded label to its
// canonical spelling.
type LabelPattern struct {
	Pattern   *regexp.Regexp
	Canonical string
}

// TextNormalizer cleans up extracted invoice text so downstream parsers can
// rely on exact label spellings. Normalization is idempotent: applying it to
// already-normalized text is a no-op.
type TextNormalizer struct {
	chars  *strings.Replacer
	labels []LabelPattern
}

// NewTextNormalizer creates a normalizer with the default label patterns.
func NewTextNormalizer() *TextNormalizer {
	return &TextNormalizer{
		chars: strings.NewReplacer(
			" ", " ", // non-breaking space
			"​", " ", // zero-width space
			"ﬁ", "fi", // fi ligature
		),
		labels: defaultLabelPatterns(),
	}
}

// Normalize rewrites OCR artifacts and label variants to canonical form.
// Runs of spaces and tabs collapse to a single space; newlines survive.
func (n *TextNormalizer) Normalize(text string) string {
	out := n.chars.Replace(text)
	out = horizontalSpace.ReplaceAllString(out, " ")
	for _, lp := range n.labels {
		out = lp.Pattern.ReplaceAllString(out, lp.Canonical)
	}
	return out
}

// AddPattern adds a custom label rewrite applied after the default set.
func (n *TextNormalizer) AddPattern(pattern, canonical string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	n.labels = append(n.labels, LabelPattern{Pattern: re, Canonical: canonical})
	return nil
}

var horizontalSpace = regexp.MustCompile(`[\t ]+`)

// defaultLabelPatterns returns the label rewrites in application order.
// The charge-label and totals-line rewrites run before the bare
// "Billing Reference 1" rewrite so the more specific form wins.
func defaultLabelPatterns() []LabelPattern {
	return []LabelPattern{
		{regexp.MustCompile(`(?i)Total\s*Transportation\s*Charges`), "Total Charge"},
		{regexp.MustCompile(`(?i)Total\s*Charge`), "Total Charge"},
		{regexp.MustCompile(`(?i)Totals:\s*Billing\s*Reference\s*1\s*[-\x{2013}]\s*`), "Totals: Billing Reference 1 - "},
		{regexp.MustCompile(`(?i)summary\s*[-\x{2013}\x{2014}]?\s*billing\s*reference\s*1`), "Summary - Billing Reference 1"},
		{regexp.MustCompile(`(?i)totals?:\s*billing\s*reference\s*1`), "Totals: Billing Reference 1"},
		{regexp.MustCompile(`(?i)order\s*total\s*:`), "Order Total:"},
		{regexp.MustCompile(`(?i)billing\s*reference\s*1`), "Billing Reference 1"},
		{regexp.MustCompile(`(?i)customer\s*number`), "Customer Number"},
		{regexp.MustCompile(`(?i)invoice\s*number`), "Invoice Number"},
		{regexp.MustCompile(`(?i)invoice\s*period`), "Invoice Period"},
	}
}
