// Package clients maps customer references from parsed invoices to
// primary client codes using an externally maintained two-column table.
package clients

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/normalizer"
)

// ErrTooFewColumns is returned when the client map CSV carries fewer
// than two columns.
var ErrTooFewColumns = errors.New("client map CSV must have at least two columns")

// Entry is one reference-to-code pair, kept in load order.
type Entry struct {
	Reference string
	Code      string
}

// Map resolves customer references to primary client codes. Lookups run
// in three tiers: exact match, case-insensitive equality, then
// substring (a table key contained inside the reference). Ties in the
// later tiers go to the entry loaded first.
type Map struct {
	entries []Entry
	exact   map[string]string
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{exact: make(map[string]string)}
}

// Add inserts a reference/code pair. Both sides are soft-cleaned and
// blank pairs are ignored. Re-adding an existing reference replaces its
// code in place, keeping the original position.
func (m *Map) Add(reference, code string) bool {
	ref := normalizer.SoftClean(reference)
	c := normalizer.SoftClean(code)
	if ref == "" || c == "" {
		return false
	}
	if _, ok := m.exact[ref]; ok {
		m.exact[ref] = c
		for i := range m.entries {
			if m.entries[i].Reference == ref {
				m.entries[i].Code = c
				break
			}
		}
		return true
	}
	m.exact[ref] = c
	m.entries = append(m.entries, Entry{Reference: ref, Code: c})
	return true
}

// Len returns the number of distinct references in the table.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns a copy of the table in load order.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Resolve looks up the client code for a reference. It satisfies the
// parser engine's ClientResolver; an unknown reference resolves to "".
func (m *Map) Resolve(reference string) string {
	if m == nil || len(m.entries) == 0 {
		return ""
	}
	ref := normalizer.SoftClean(reference)
	if ref == "" {
		return ""
	}
	if code, ok := m.exact[ref]; ok {
		return code
	}
	lower := strings.ToLower(ref)
	for _, e := range m.entries {
		if strings.ToLower(e.Reference) == lower {
			return e.Code
		}
	}
	for _, e := range m.entries {
		if strings.Contains(lower, strings.ToLower(e.Reference)) {
			return e.Code
		}
	}
	return ""
}

// LoadStats reports what a load pass saw: rows read from the file and
// pairs that made it into the map. PairsMapped counts every accepted
// row, so with duplicate references it can exceed Len.
type LoadStats struct {
	RowsRead    int
	PairsMapped int
}

// Load reads a client map from CSV. Columns named CustRef and
// PrimaryClientCode are used when present (header match is
// case-insensitive); otherwise the first two columns are. Cells are
// soft-cleaned and rows missing either side are skipped.
func Load(r io.Reader) (*Map, LoadStats, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, LoadStats{}, ErrTooFewColumns
	}
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) < 2 {
		return nil, LoadStats{}, ErrTooFewColumns
	}

	keyCol, valCol := 0, 1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "custref":
			keyCol = i
		case "primaryclientcode":
			valCol = i
		}
	}

	m := NewMap()
	var stats LoadStats
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read row %d: %w", stats.RowsRead+2, err)
		}
		stats.RowsRead++
		if m.Add(cell(record, keyCol), cell(record, valCol)) {
			stats.PairsMapped++
		}
	}

	return m, stats, nil
}

// LoadFile reads a client map from a CSV file on disk.
func LoadFile(path string) (*Map, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("failed to open client map: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}
