package clients

import (
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// SearchDocument is the indexed form of one map entry.
type SearchDocument struct {
	Reference string `json:"reference"`
	Code      string `json:"code"`
}

// SearchResult is a search hit with its relevance score.
type SearchResult struct {
	Reference string
	Code      string
	Score     float64
}

// SearchIndex provides full-text lookup over a client map using an
// in-memory Bleve index. Unlike Resolve it tolerates typos, so it backs
// the interactive map search.
type SearchIndex struct {
	index bleve.Index
	mu    sync.RWMutex
}

// NewSearchIndex builds an empty in-memory index.
func NewSearchIndex() (*SearchIndex, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return &SearchIndex{index: index}, nil
}

// buildIndexMapping maps references for tokenized search and codes for
// exact-term lookup. References need the standard analyzer: many are
// purely numeric and a letter tokenizer would drop them.
func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name

	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("reference", textFieldMapping)
	docMapping.AddFieldMappingsAt("code", keywordFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// IndexMap indexes every entry of the map in one batch. The reference
// doubles as the document ID, so re-indexing the same map is idempotent.
func (si *SearchIndex) IndexMap(m *Map) error {
	si.mu.Lock()
	defer si.mu.Unlock()

	batch := si.index.NewBatch()
	for _, e := range m.Entries() {
		doc := SearchDocument{Reference: e.Reference, Code: e.Code}
		if err := batch.Index(e.Reference, doc); err != nil {
			return fmt.Errorf("failed to index %q: %w", e.Reference, err)
		}
	}
	if err := si.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch index: %w", err)
	}
	return nil
}

// Search runs a match query with one edit of typo tolerance across
// references and codes.
func (si *SearchIndex) Search(query string, limit int) ([]SearchResult, error) {
	si.mu.RLock()
	defer si.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetFuzziness(1)

	searchRequest := bleve.NewSearchRequest(matchQuery)
	searchRequest.Size = limit
	searchRequest.Fields = []string{"*"}

	searchResults, err := si.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return convertResults(searchResults), nil
}

// SearchPrefix matches references by prefix, autocomplete style.
func (si *SearchIndex) SearchPrefix(prefix string, limit int) ([]SearchResult, error) {
	si.mu.RLock()
	defer si.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	prefixQuery := bleve.NewPrefixQuery(prefix)

	searchRequest := bleve.NewSearchRequest(prefixQuery)
	searchRequest.Size = limit
	searchRequest.Fields = []string{"*"}

	searchResults, err := si.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("prefix search failed: %w", err)
	}

	return convertResults(searchResults), nil
}

// convertResults turns Bleve hits into SearchResults.
func convertResults(searchResults *bleve.SearchResult) []SearchResult {
	results := make([]SearchResult, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		r := SearchResult{Score: hit.Score}
		if ref, ok := hit.Fields["reference"].(string); ok {
			r.Reference = ref
		}
		if code, ok := hit.Fields["code"].(string); ok {
			r.Code = code
		}
		results = append(results, r)
	}
	return results
}

// DocumentCount returns the number of indexed entries.
func (si *SearchIndex) DocumentCount() (uint64, error) {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return si.index.DocCount()
}

// Close closes the underlying index.
func (si *SearchIndex) Close() error {
	si.mu.Lock()
	defer si.mu.Unlock()
	if si.index != nil {
		return si.index.Close()
	}
	return nil
}
