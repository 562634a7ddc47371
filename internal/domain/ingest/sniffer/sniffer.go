// Package sniffer detects which vendor branch an invoice text belongs to.
// Detection keys on brand tokens and structural anchors chosen to survive
// OCR degradation, so a scanned air bill still routes to the right parser.
package sniffer

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// fedexBrand must be present somewhere in the text before any anchor counts.
const fedexBrand = "fedex"

// fedexAnchors are shipment markers; any single one alongside the brand
// confirms the air bill layout.
var fedexAnchors = []string{
	"tracking id",
	"fedex express shipment", "fedex express ship",
	"ship date:", "transportation charge", "total transportation charges",
	"fedex other charges", "earned discount", "fuel surcharge",
	"invoice summary", "total this invoice",
}

// lightningBrands are phrases unique to the courier's letterhead; any one
// is conclusive on its own.
var lightningBrands = []string{
	"lightning messenger express",
	"www.lightningmessengerexpress.com",
	"payment due upon receipt",
}

// lightningAnchors are manifest structure markers; two or more together
// identify the layout even when the letterhead was lost to OCR.
var lightningAnchors = []string{
	"summary - billing reference 1",
	"billing reference 1",
	"order total:",
	"totals: billing reference 1",
	"customer number",
	"invoice number",
	"invoice period",
}

type anchorClass int

const (
	classFedExBrand anchorClass = iota
	classFedExAnchor
	classLightningBrand
	classLightningAnchor
)

// Result describes the vendor evidence found in one document. Anchor counts
// are per distinct anchor, not per occurrence.
type Result struct {
	FedExBrand       bool
	FedExAnchors     int
	LightningBrand   bool
	LightningAnchors int
}

// IsFedEx reports whether the text carries the FedEx brand plus at least
// one structural anchor.
func (r Result) IsFedEx() bool {
	return r.FedExBrand && r.FedExAnchors > 0
}

// IsLightning reports whether the text carries a Lightning brand phrase or
// at least two structural anchors.
func (r Result) IsLightning() bool {
	return r.LightningBrand || r.LightningAnchors >= 2
}

// Detector scans invoice text for vendor evidence using a single
// Aho-Corasick pass over all known tokens.
type Detector struct {
	matcher *ahocorasick.Matcher
	classes [][]anchorClass
}

// NewDetector builds the token automaton once; a Detector is safe for
// concurrent use.
func NewDetector() *Detector {
	type entry struct {
		token string
		class anchorClass
	}
	var entries []entry
	entries = append(entries, entry{fedexBrand, classFedExBrand})
	for _, a := range fedexAnchors {
		entries = append(entries, entry{a, classFedExAnchor})
	}
	for _, b := range lightningBrands {
		entries = append(entries, entry{b, classLightningBrand})
	}
	for _, a := range lightningAnchors {
		entries = append(entries, entry{a, classLightningAnchor})
	}

	// Group duplicate tokens so each automaton pattern carries every class
	// it belongs to.
	tokenToIndex := make(map[string]int)
	var tokens [][]byte
	var classes [][]anchorClass
	for _, e := range entries {
		if idx, ok := tokenToIndex[e.token]; ok {
			classes[idx] = append(classes[idx], e.class)
			continue
		}
		tokenToIndex[e.token] = len(tokens)
		tokens = append(tokens, []byte(e.token))
		classes = append(classes, []anchorClass{e.class})
	}

	return &Detector{
		matcher: ahocorasick.NewMatcher(tokens),
		classes: classes,
	}
}

// Detect scans the text and tallies brand and anchor evidence for both
// vendors. Matching is case-insensitive.
func (d *Detector) Detect(text string) Result {
	var res Result
	if text == "" {
		return res
	}
	hits := d.matcher.Match([]byte(strings.ToLower(text)))
	for _, h := range hits {
		for _, class := range d.classes[h] {
			switch class {
			case classFedExBrand:
				res.FedExBrand = true
			case classFedExAnchor:
				res.FedExAnchors++
			case classLightningBrand:
				res.LightningBrand = true
			case classLightningAnchor:
				res.LightningAnchors++
			}
		}
	}
	return res
}
