// Package diag provides sinks for parser diagnostics. Parsers stay silent
// and deterministic; callers that care about dropped or low-confidence data
// register a sink and read it out of band. Sinks never change row output.
package diag

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Event identifies a diagnostic occurrence worth counting.
type Event string

const (
	// EventShipmentDropped fires when an incomplete pending shipment is
	// discarded without producing a row.
	EventShipmentDropped Event = "shipment_dropped"
	// EventOrderIDFallback fires when an order id came from the positional
	// window after the date instead of its label, which makes the derived
	// caller capture a guess.
	EventOrderIDFallback Event = "order_id_fallback"
)

// Sink receives diagnostic events. Implementations must be safe for
// concurrent use when shared across files.
type Sink interface {
	Record(event Event, fileName string)
}

type nopSink struct{}

func (nopSink) Record(Event, string) {}

// Nop returns a sink that discards every event.
func Nop() Sink {
	return nopSink{}
}

// LogSink writes each event to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink backed by the given logger. A nil logger uses
// the process default.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(event Event, fileName string) {
	s.logger.Warn("parser diagnostic",
		slog.String("event", string(event)),
		slog.String("file", fileName))
}

// CounterSink tallies events in memory, for tests and run summaries.
type CounterSink struct {
	mu     sync.Mutex
	counts map[Event]int
}

// NewCounterSink creates an empty counter sink.
func NewCounterSink() *CounterSink {
	return &CounterSink{counts: make(map[Event]int)}
}

func (s *CounterSink) Record(event Event, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[event]++
}

// Count returns how many times an event was recorded.
func (s *CounterSink) Count(event Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[event]
}

// Total returns the number of recorded events across all kinds.
func (s *CounterSink) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.counts {
		total += n
	}
	return total
}

// PromSink counts events on a Prometheus counter vector labelled by event.
// File names are deliberately not a label to keep cardinality bounded.
type PromSink struct {
	counter *prometheus.CounterVec
}

// NewPromSink registers the diagnostics counter on the given registerer.
func NewPromSink(reg prometheus.Registerer) *PromSink {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "invoicerunner",
		Subsystem: "parser",
		Name:      "diagnostics_total",
		Help:      "Diagnostic events raised while parsing invoices.",
	}, []string{"event"})
	reg.MustRegister(c)
	return &PromSink{counter: c}
}

func (s *PromSink) Record(event Event, _ string) {
	s.counter.WithLabelValues(string(event)).Inc()
}

type multiSink struct {
	sinks []Sink
}

// Multi fans each event out to every given sink, skipping nils.
func Multi(sinks ...Sink) Sink {
	kept := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return multiSink{sinks: kept}
}

func (m multiSink) Record(event Event, fileName string) {
	for _, s := range m.sinks {
		s.Record(event, fileName)
	}
}
