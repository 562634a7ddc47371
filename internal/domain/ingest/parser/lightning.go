// lightning.go parses courier statements: one row per billing reference,
// with reference totals collected in a separate pass because the totals
// section sits apart from the reference blocks.
package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/normalizer"
	"github.com/FACorreiaa/invoice-runner/pkg/diag"
)

var (
	lightningHeaderRe    = regexp.MustCompile(`(?i)Invoice\s+Number\s+(\d{3,})\s+(\d{1,2}/\d{1,2}/\d{4})`)
	lightningHeaderAltRe = regexp.MustCompile(`(?i)Customer\s+Number\s+Invoice\s+Number\s+Invoice\s+Date\s+Invoice\s+Amount\s+\d+\s+(\d{3,})\s+(\d{1,2}/\d{1,2}/\d{4})`)

	// "Totals: Billing Reference 1 - 3119952000 Total: $35.00"
	lightningRefTotalRe = regexp.MustCompile(`(?i)Totals:\s*Billing\s*Reference\s*1\s*\-\s*(\d{7,})\s*Total:\s*\$?\s*([\d,]+\.\d{2})`)
	lightningRefStartRe = regexp.MustCompile(`(?i)Billing\s+Reference\s+1\s+(\d{7,})`)

	lightningDateRe = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`)

	// The order id follows its label, e.g. "Order ID 589396.01". Without the
	// label the first numeric token after the block date stands in for it.
	lightningOrderIDRe       = regexp.MustCompile(`(?i)Order\s+ID\s+([0-9]{5,}(?:\.\d{2})?)`)
	lightningOrderFallbackRe = regexp.MustCompile(`\b([0-9]{5,}(?:\.\d{2})?)\b`)
)

const (
	orderFallbackWindow = 160

	callerStopPattern = `\s+(.{2,100}?)\s+(?:Gelfand|SB|City\s+of|Deliver|-|\d{3,})`
	callerTailPattern = `\s+(.{2,60})`
)

// ReferenceBlock is one "Billing Reference 1 <ref>" section of a courier
// statement. The block runs from its anchor to the next one, or to the end
// of the text for the last reference.
type ReferenceBlock struct {
	Reference string
	Text      string
}

// LightningParser extracts one row per billing reference.
type LightningParser struct {
	sink diag.Sink
}

// NewLightningParser creates a parser. A nil sink discards diagnostics.
func NewLightningParser(sink diag.Sink) *LightningParser {
	if sink == nil {
		sink = diag.Nop()
	}
	return &LightningParser{sink: sink}
}

// Parse emits one row per reference block in document order. Amounts come
// from the totals section keyed by reference; a reference without a totals
// line keeps a null amount rather than a zero.
func (p *LightningParser) Parse(text, fileName string) []Row {
	invoiceID, headerDate := lightningHeader(text)
	totals := totalsByReference(text)

	blocks := referenceBlocks(text)
	rows := make([]Row, 0, len(blocks))
	for _, blk := range blocks {
		date := ""
		dateEnd := -1
		if loc := lightningDateRe.FindStringSubmatchIndex(blk.Text); loc != nil {
			date = normalizer.ParseFlexibleDate(blk.Text[loc[2]:loc[3]])
			dateEnd = loc[1]
		}

		orderID := ""
		if m := lightningOrderIDRe.FindStringSubmatch(blk.Text); m != nil {
			orderID = m[1]
		} else if dateEnd >= 0 {
			window := blk.Text[dateEnd:min(dateEnd+orderFallbackWindow, len(blk.Text))]
			if m := lightningOrderFallbackRe.FindStringSubmatch(window); m != nil {
				orderID = m[1]
				p.sink.Record(diag.EventOrderIDFallback, fileName)
			}
		}

		caller := ""
		if orderID != "" {
			caller = callerNear(orderID, blk.Text)
		}

		var amount decimal.NullDecimal
		if total, ok := totals[blk.Reference]; ok {
			amount = decimal.NullDecimal{Decimal: total, Valid: true}
		}

		rows = append(rows, Row{
			InvoiceFileName:   fileName,
			Vendor:            VendorLightning,
			InvoiceID:         invoiceID,
			InvoiceDate:       coalesce(date, headerDate),
			Description:       descriptionLightning,
			Amount:            amount,
			Currency:          "USD",
			Sender:            caller,
			CustomerReference: blk.Reference,
		})
	}
	return rows
}

// lightningHeader tries both header layouts over the document head and
// returns the invoice number and date of the first that matches.
func lightningHeader(text string) (string, string) {
	head := text
	if len(head) > 5000 {
		head = head[:5000]
	}
	for _, re := range []*regexp.Regexp{lightningHeaderRe, lightningHeaderAltRe} {
		if m := re.FindStringSubmatch(head); m != nil {
			return m[1], normalizer.ParseFlexibleDate(m[2])
		}
	}
	return "", ""
}

// totalsByReference collects every totals line into a map keyed by
// reference. A reference repeated across pages keeps its last amount.
func totalsByReference(text string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, m := range lightningRefTotalRe.FindAllStringSubmatch(text, -1) {
		out[m[1]] = normalizer.ParseAmount(m[2]).Decimal
	}
	return out
}

// referenceBlocks splits the text at every reference anchor. Block i spans
// from its anchor to the next one; the final block runs to the end.
func referenceBlocks(text string) []ReferenceBlock {
	matches := lightningRefStartRe.FindAllStringSubmatchIndex(text, -1)
	blocks := make([]ReferenceBlock, 0, len(matches))
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		blocks = append(blocks, ReferenceBlock{
			Reference: text[m[2]:m[3]],
			Text:      text[m[0]:end],
		})
	}
	return blocks
}

// callerNear captures the tokens immediately after the order id, which tend
// to be the caller's name, stopping at the letterhead or the next field.
// Phone digits survive when they sit inside the name span.
func callerNear(orderID, block string) string {
	if orderID == "" {
		return ""
	}
	quoted := regexp.QuoteMeta(orderID)
	if re, err := regexp.Compile(`(?is)` + quoted + callerStopPattern); err == nil {
		if m := re.FindStringSubmatch(block); m != nil {
			return normalizer.SoftClean(m[1])
		}
	}
	if re, err := regexp.Compile(`(?is)` + quoted + callerTailPattern); err == nil {
		if m := re.FindStringSubmatch(block); m != nil {
			return normalizer.SoftClean(m[1])
		}
	}
	return ""
}

// CourierOrder is one delivery order recovered line by line. This form
// tolerates scanned text where the block layout has collapsed.
type CourierOrder struct {
	Reference   string
	OrderID     string
	Caller      string
	Total       decimal.NullDecimal
	Origin      string
	Destination string
	FileName    string
}

var (
	orderRefLineRe    = regexp.MustCompile(`(?i)Billing Reference 1\s*[-:]?\s*([\w\- ]+)`)
	orderIDLineRe     = regexp.MustCompile(`(?i)Order ID\s*([0-9.]+)`)
	orderCallerLineRe = regexp.MustCompile(`(?i)Caller\s*([A-Za-z .]+)`)
	orderTotalLineRe  = regexp.MustCompile(`(?i)Order Total[: ]*\$?([\d,]+\.\d{2})`)
	orderOriginRe     = regexp.MustCompile(`(?i)Origin\s*([A-Za-z0-9 ,&\-.]+)`)
	orderDestRe       = regexp.MustCompile(`(?i)Destination\s*([A-Za-z0-9 ,&\-.]+)`)
	orderBlockEndRe   = regexp.MustCompile(`(?i)Totals?:`)
)

// ParseOrders recovers delivery orders from text one line at a time. A new
// reference or a totals line closes the open order; a trailing open order is
// kept. Lines are whitespace-collapsed before matching so ragged scanner
// output still lines up.
func ParseOrders(text, fileName string) []CourierOrder {
	var orders []CourierOrder
	var cur CourierOrder
	started := false

	flush := func() {
		if !started {
			return
		}
		cur.FileName = fileName
		orders = append(orders, cur)
		cur = CourierOrder{}
		started = false
	}

	for _, raw := range strings.Split(text, "\n") {
		line := normalizer.SoftClean(raw)
		if line == "" {
			continue
		}
		if m := orderRefLineRe.FindStringSubmatch(line); m != nil {
			flush()
			cur.Reference = strings.TrimSpace(m[1])
			started = true
		}
		if m := orderIDLineRe.FindStringSubmatch(line); m != nil {
			cur.OrderID = strings.TrimSpace(m[1])
			started = true
		}
		if m := orderCallerLineRe.FindStringSubmatch(line); m != nil {
			cur.Caller = strings.TrimSpace(m[1])
			started = true
		}
		if m := orderTotalLineRe.FindStringSubmatch(line); m != nil {
			cur.Total = normalizer.ParseAmount(m[1])
			started = true
		}
		if m := orderOriginRe.FindStringSubmatch(line); m != nil {
			cur.Origin = strings.TrimSpace(m[1])
			started = true
		}
		if m := orderDestRe.FindStringSubmatch(line); m != nil {
			cur.Destination = strings.TrimSpace(m[1])
			started = true
		}
		if orderBlockEndRe.MatchString(line) {
			flush()
		}
	}
	flush()
	return orders
}

// OrdersToRows converts line-recovered orders into uniform rows. The
// invoice header comes from the same text the orders were read from;
// origin and destination have no row fields and are dropped.
func OrdersToRows(orders []CourierOrder, text string) []Row {
	invoiceID, headerDate := lightningHeader(text)
	rows := make([]Row, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, Row{
			InvoiceFileName:   o.FileName,
			Vendor:            VendorLightning,
			InvoiceID:         invoiceID,
			InvoiceDate:       headerDate,
			Description:       descriptionLightning,
			Amount:            o.Total,
			Currency:          "USD",
			Sender:            o.Caller,
			CustomerReference: o.Reference,
		})
	}
	return rows
}
