// Package parser turns normalized invoice text into uniform spreadsheet rows.
// fedex.go parses air bill text: "Ship Date:" blocks with a single-slot
// pending register that re-joins shipments split across page breaks.
package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/normalizer"
	"github.com/FACorreiaa/invoice-runner/pkg/diag"
)

const shipDateAnchor = "Ship Date:"

var (
	fedexHeaderRe = regexp.MustCompile(`(?is)Invoice\s+Number\s+(\S+).*?Invoice\s+Date\s+([A-Za-z]{3,9}\s+\d{1,2},\s+\d{4})`)
	fedexTotalRe  = regexp.MustCompile(`(?i)Total\s*(?:Charge|Transportation\s*Charges)\s+USD\s+\$?\s*([\d,]+\.?\d{2})`)

	// Tracking ids and continuation markers drive the page-break merge;
	// they are never emitted on rows.
	fedexTrackingRe     = regexp.MustCompile(`(?i)Tracking\s*ID[:\s]+(\d{9,18})`)
	fedexContinuationRe = regexp.MustCompile(`(?i)continued\s+on\s+next\s+page\nTracking\s*ID[:\s]+\d+\s+continued`)

	fedexCustRefRe = regexp.MustCompile(`(?i)Cust\.\s*Ref\.?\s*:\s*(.+)`)
	fedexSenderRe  = regexp.MustCompile(`(?im)^\s*Sender\s+(.+)$`)

	fedexOtherChargesRe = regexp.MustCompile(`(?i)Other Charges\s*USD\s*\$?\s*([\d,.]+)`)
	fedexLateFeeRe      = regexp.MustCompile(`(?im)Late Fee.*?(\d{2}/\d{2}/\d{2,4}).*?([\d,.]+)$`)

	usdTokenRe = regexp.MustCompile(`(?i)\bUSD\b`)

	// The sender line on these bills runs into the letterhead of the firm
	// the invoices are addressed to; everything from that token on is noise.
	senderPrefixRe    = regexp.MustCompile(`(?i)^\s*Sender\s+`)
	letterheadSplitRe = regexp.MustCompile(`(?i)\bGelfand\b`)
	letterheadTailRe  = regexp.MustCompile(`(?i)\s+Gelfand.*$`)
)

// ShipmentBlock is one "Ship Date:"-delimited slice of an air bill with its
// extracted fields. The slice after the last anchor runs to the end of the
// document, so a shipment on the final page is never lost.
type ShipmentBlock struct {
	CustomerReference string
	Sender            string
	Total             decimal.NullDecimal
	TrackingID        string
	Continued         bool
}

// hasSignal reports whether the block carries anything worth keeping as a
// pending shipment.
func (b ShipmentBlock) hasSignal() bool {
	return b.Sender != "" || b.CustomerReference != "" || b.Continued || b.TrackingID != ""
}

// mergeState names the two states of the page-break merge machine.
type mergeState int

const (
	stateScanning mergeState = iota
	statePendingShipment
)

// FedExParser extracts one row per shipment plus one aggregate
// other-charges row.
type FedExParser struct {
	sink diag.Sink
}

// NewFedExParser creates a parser. A nil sink discards diagnostics.
func NewFedExParser(sink diag.Sink) *FedExParser {
	if sink == nil {
		sink = diag.Nop()
	}
	return &FedExParser{sink: sink}
}

// Parse walks every shipment block in document order and emits rows. A
// shipment split across a page break arrives as two blocks; the pending
// register holds the first until the block with the total shows up. Repeated
// shipments with identical fields each produce their own row; nothing is
// deduplicated.
func (p *FedExParser) Parse(text, fileName string) []Row {
	invoiceID, invoiceDate := p.parseHeader(text)
	currency := ""
	if usdTokenRe.MatchString(text) {
		currency = "USD"
	}

	var rows []Row
	emit := func(sender, custRef string, total decimal.NullDecimal) {
		rows = append(rows, Row{
			InvoiceFileName:   fileName,
			Vendor:            VendorFedEx,
			InvoiceID:         invoiceID,
			InvoiceDate:       invoiceDate,
			Description:       descriptionFedEx,
			Amount:            total,
			Currency:          currency,
			Sender:            sender,
			CustomerReference: normalizer.SoftClean(custRef),
		})
	}

	state := stateScanning
	var pending ShipmentBlock
	for _, blk := range shipmentBlocks(text) {
		if state == statePendingShipment {
			same := blk.TrackingID != "" && pending.TrackingID != "" && blk.TrackingID == pending.TrackingID
			if blk.Total.Valid && (same || blk.Continued || blk.TrackingID == "") {
				emit(coalesce(pending.Sender, blk.Sender),
					coalesce(pending.CustomerReference, blk.CustomerReference),
					blk.Total)
				state = stateScanning
				continue
			}
			if same {
				if pending.CustomerReference == "" {
					pending.CustomerReference = blk.CustomerReference
				}
				if pending.Sender == "" {
					pending.Sender = blk.Sender
				}
				continue
			}
			// A different shipment began; the incomplete pending is dropped
			// without a row.
			p.sink.Record(diag.EventShipmentDropped, fileName)
			state = stateScanning
		}

		if blk.Total.Valid {
			emit(blk.Sender, blk.CustomerReference, blk.Total)
			continue
		}
		if blk.hasSignal() {
			pending = blk
			state = statePendingShipment
		}
	}
	if state == statePendingShipment {
		p.sink.Record(diag.EventShipmentDropped, fileName)
	}

	if oc := p.otherCharges(text); oc.Valid {
		occurrency := ""
		if currency == "USD" || strings.Contains(text, "USD") {
			occurrency = "USD"
		}
		rows = append(rows, Row{
			InvoiceFileName: fileName,
			Vendor:          VendorFedEx,
			InvoiceID:       invoiceID,
			InvoiceDate:     invoiceDate,
			Description:     descriptionOtherCharges,
			Amount:          oc,
			Currency:        occurrency,
		})
	}

	return rows
}

// parseHeader pulls the invoice number and date from the document head.
func (p *FedExParser) parseHeader(text string) (string, string) {
	head := text
	if len(head) > 4000 {
		head = head[:4000]
	}
	m := fedexHeaderRe.FindStringSubmatch(head)
	if m == nil {
		return "", ""
	}
	return strings.TrimSpace(m[1]), normalizer.ParseFlexibleDate(m[2])
}

// otherCharges finds the aggregate amount, preferring the summary line over
// the late-fee form. An unparseable summary amount suppresses the fallback.
func (p *FedExParser) otherCharges(text string) decimal.NullDecimal {
	if m := fedexOtherChargesRe.FindStringSubmatch(text); m != nil {
		return normalizer.ParseAmount(m[1])
	}
	if m := fedexLateFeeRe.FindStringSubmatch(text); m != nil {
		return normalizer.ParseAmount(m[2])
	}
	return decimal.NullDecimal{}
}

// shipmentBlocks splits the text at every "Ship Date:" occurrence. Block i
// spans from its anchor to the next one; the final block's end is the end of
// the text. Text before the first anchor is never scanned for shipments.
func shipmentBlocks(text string) []ShipmentBlock {
	starts := anchorOffsets(text, shipDateAnchor)
	blocks := make([]ShipmentBlock, 0, len(starts))
	for i, start := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		blocks = append(blocks, parseShipmentBlock(text[start:end]))
	}
	return blocks
}

// anchorOffsets returns the byte offsets of every non-overlapping
// case-sensitive occurrence of anchor.
func anchorOffsets(text, anchor string) []int {
	var starts []int
	for from := 0; ; {
		idx := strings.Index(text[from:], anchor)
		if idx < 0 {
			break
		}
		starts = append(starts, from+idx)
		from += idx + len(anchor)
	}
	return starts
}

// parseShipmentBlock extracts the per-shipment fields: first customer
// reference, first sender line, LAST total match, tracking id, and the
// continuation marker.
func parseShipmentBlock(block string) ShipmentBlock {
	var b ShipmentBlock
	if m := fedexCustRefRe.FindStringSubmatch(block); m != nil {
		b.CustomerReference = strings.TrimSpace(m[1])
	}
	if m := fedexSenderRe.FindString(block); m != "" {
		b.Sender = extractSenderName(m)
	}
	if totals := fedexTotalRe.FindAllStringSubmatch(block, -1); len(totals) > 0 {
		b.Total = normalizer.ParseAmount(totals[len(totals)-1][1])
	}
	if m := fedexTrackingRe.FindStringSubmatch(block); m != nil {
		b.TrackingID = strings.TrimSpace(m[1])
	}
	b.Continued = fedexContinuationRe.MatchString(block)
	return b
}

// extractSenderName cleans a raw "Sender ..." line. The name is cut at the
// letterhead token when present; otherwise the first three tokens stand in
// for it. Either way the result is capped at 80 characters.
func extractSenderName(senderLine string) string {
	s := strings.TrimSpace(senderPrefixRe.ReplaceAllString(senderLine, ""))
	cut := strings.TrimSpace(letterheadSplitRe.Split(s, 2)[0])
	if cut != "" {
		cut = strings.TrimSpace(letterheadTailRe.ReplaceAllString(cut, ""))
		return capRunes(cut, 80)
	}
	tokens := strings.Fields(s)
	if len(tokens) > 0 {
		return capRunes(strings.Join(tokens[:min(len(tokens), 3)], " "), 80)
	}
	return capRunes(s, 80)
}

// capRunes truncates s to at most limit characters.
func capRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
