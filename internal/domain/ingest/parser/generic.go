// generic.go is the fallback for statements from vendors without a
// dedicated parser. It always yields exactly one row, however sparse.
package parser

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/normalizer"
)

var (
	genericIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Invoice\s*Number[:\s]*([A-Z0-9\-]+)`),
		regexp.MustCompile(`(?i)Inv(?:oice)?\s*#[:\s]*([A-Z0-9\-]+)`),
	}
	genericDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Invoice\s*Date[:\s]*([0-9]{1,2}/[0-9]{1,2}/[0-9]{2,4})`),
		regexp.MustCompile(`(?i)Date of issue[:\s]*([A-Za-z]+\s+\d{1,2},\s*\d{4})`),
		regexp.MustCompile(`(?i)Date due[:\s]*([A-Za-z]+\s+\d{1,2},\s*\d{4})`),
		regexp.MustCompile(`(?i)Invoice Period[:\s]*([0-9]{1,2}/[0-9]{1,2}/[0-9]{2,4}(?:\s*-\s*[0-9]{1,2}/[0-9]{1,2}/[0-9]{2,4})?)`),
	}
	genericAmountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Total\s*Amount[:\s\$]*([0-9,]+\.\d{2})`),
		regexp.MustCompile(`(?i)Amount\s*Due[:\s\$]*([0-9,]+\.\d{2})`),
		regexp.MustCompile(`(?i)Total[:\s\$]*([0-9,]+\.\d{2})`),
		regexp.MustCompile(`(?i)Amount due\s*\$?([0-9,]+\.\d{2})`),
	}

	genericDueDateRe = regexp.MustCompile(`(?i)Date due[:\s]*([A-Za-z]+\s+\d{1,2},\s*\d{4}|[0-9]{1,2}/[0-9]{1,2}/[0-9]{2,4})`)

	vendorSuffixRe = regexp.MustCompile(`(?i)(Inc\.|LLC|Ltd|Company|Corporation|Collective|Express|Chartmetric)`)
	vendorLabelRe  = regexp.MustCompile(`(?i)(Remit Payment To|From|Bill to|Vendor)`)
	vendorNoiseRe  = regexp.MustCompile(`(?i)Invoice|Date|Number|Amount|Bill to|Ship to|Due`)

	// Currency codes are matched case-sensitively; a lowercase "usd" in
	// body text is not a currency marker.
	currencyCodeRe = regexp.MustCompile(`\b(USD|EUR|GBP|AUD|CAD|JPY|CHF|CNY|INR)\b`)
)

// ParseGeneric extracts whatever common fields it can find. Fields that do
// not match stay empty; the row itself is always produced.
func ParseGeneric(text, fileName string) Row {
	row := Row{
		InvoiceFileName: fileName,
		Description:     descriptionGeneric,
	}

	row.InvoiceID = firstMatch(genericIDPatterns, text)
	if date := firstMatch(genericDatePatterns, text); date != "" {
		row.InvoiceDate = normalizer.NormalizeDate(date)
	}
	row.Amount = normalizer.ParseAmount(firstMatch(genericAmountPatterns, text))

	// The due date keeps its source formatting.
	if m := genericDueDateRe.FindStringSubmatch(text); m != nil {
		row.DueDate = strings.TrimSpace(m[1])
	}

	row.Vendor = extractVendor(text)
	if m := currencyCodeRe.FindStringSubmatch(text); m != nil {
		row.Currency = m[1]
	}
	return row
}

// firstMatch returns the trimmed first capture of the first pattern that
// matches, or "".
func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// extractVendor guesses the issuing company. Lines with a corporate suffix
// are candidates, as is the line after a "From" / "Bill to" / "Remit
// Payment To" label when it is not another form field. The first candidate
// wins; with none, the suffix scan retries over the top of the document.
func extractVendor(text string) string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			lines = append(lines, line)
		}
	}

	var candidates []string
	for i, line := range lines {
		if vendorSuffixRe.MatchString(line) {
			candidates = append(candidates, line)
		}
		if vendorLabelRe.MatchString(line) {
			for j := i + 1; j < min(i+4, len(lines)); j++ {
				if !vendorNoiseRe.MatchString(lines[j]) {
					candidates = append(candidates, lines[j])
					break
				}
			}
		}
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	for _, line := range lines[:min(6, len(lines))] {
		if vendorSuffixRe.MatchString(line) {
			return line
		}
	}
	return ""
}
