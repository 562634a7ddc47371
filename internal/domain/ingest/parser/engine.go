// engine.go routes invoice text to the right parser based on detected
// vendor evidence and fills in client codes afterwards.
package parser

import (
	"strings"

	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/normalizer"
	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/sniffer"
	"github.com/FACorreiaa/invoice-runner/pkg/diag"
)

// ClientResolver maps a customer reference to a primary client code. An
// unknown reference resolves to "".
type ClientResolver interface {
	Resolve(reference string) string
}

// Config carries the engine's optional collaborators.
type Config struct {
	// Resolver fills Row.ClientCode from Row.CustomerReference. Nil leaves
	// client codes empty.
	Resolver ClientResolver
	// Diagnostics receives parser events such as dropped shipments. Nil
	// discards them.
	Diagnostics diag.Sink
}

// Engine turns extracted invoice text into rows.
type Engine struct {
	normalizer *normalizer.TextNormalizer
	detector   *sniffer.Detector
	fedex      *FedExParser
	lightning  *LightningParser
	resolver   ClientResolver
}

// NewEngine builds an engine.
func NewEngine(cfg Config) *Engine {
	sink := cfg.Diagnostics
	if sink == nil {
		sink = diag.Nop()
	}
	return &Engine{
		normalizer: normalizer.NewTextNormalizer(),
		detector:   sniffer.NewDetector(),
		fedex:      NewFedExParser(sink),
		lightning:  NewLightningParser(sink),
		resolver:   cfg.Resolver,
	}
}

// Parse normalizes the text, picks a parser, and returns its rows. A
// confident vendor match commits to that parser even when it finds nothing.
// Without one, both carrier parsers run and the fuller result wins, courier
// rows taking a tie; only when neither finds anything does the generic
// fallback produce its single row.
func (e *Engine) Parse(text, fileName string) ([]Row, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	text = e.normalizer.Normalize(text)

	var rows []Row
	res := e.detector.Detect(text)
	switch {
	case res.IsFedEx():
		rows = e.fedex.Parse(text, fileName)
	case res.IsLightning():
		rows = e.lightning.Parse(text, fileName)
	default:
		fedexRows := e.fedex.Parse(text, fileName)
		lightningRows := e.lightning.Parse(text, fileName)
		switch {
		case len(lightningRows) >= len(fedexRows) && len(lightningRows) > 0:
			rows = lightningRows
		case len(fedexRows) > 0:
			rows = fedexRows
		default:
			rows = []Row{ParseGeneric(text, fileName)}
		}
	}

	e.resolveClientCodes(rows)
	return rows, nil
}

// resolveClientCodes fills ClientCode for rows that carry a reference.
func (e *Engine) resolveClientCodes(rows []Row) {
	if e.resolver == nil {
		return
	}
	for i := range rows {
		if rows[i].CustomerReference == "" {
			continue
		}
		rows[i].ClientCode = e.resolver.Resolve(rows[i].CustomerReference)
	}
}
