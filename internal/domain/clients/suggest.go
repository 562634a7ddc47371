package clients

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/normalizer"
)

// Suggestion is a near-miss match for a reference that did not resolve.
type Suggestion struct {
	Reference string
	Code      string
	Score     int // 0-100, higher is closer
	Distance  int // Levenshtein edit distance
}

// Suggest ranks table entries by similarity to the given reference and
// returns the closest ones. Useful when Resolve comes back empty and a
// human needs candidates to fix the map. Ties keep load order.
func (m *Map) Suggest(reference string, limit int) []Suggestion {
	if m == nil || len(m.entries) == 0 {
		return nil
	}
	normalized := strings.ToUpper(normalizer.SoftClean(reference))
	if normalized == "" {
		return nil
	}

	results := make([]Suggestion, 0, len(m.entries))
	for _, e := range m.entries {
		key := strings.ToUpper(e.Reference)
		results = append(results, Suggestion{
			Reference: e.Reference,
			Code:      e.Code,
			Score:     similarityScore(normalized, key),
			Distance:  levenshteinDistance(normalized, key),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}
	return results
}

// similarityScore rates two strings 0-100. Containment scores by length
// ratio, otherwise the better of an edit-distance score and a
// subsequence rank wins.
func similarityScore(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}
	if strings.Contains(s1, s2) {
		return 75 + (25 * len(s2) / len(s1))
	}
	if strings.Contains(s2, s1) {
		return 75 + (25 * len(s1) / len(s2))
	}

	distance := levenshteinDistance(s1, s2)
	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen == 0 {
		return 0
	}
	levScore := 100 * (maxLen - distance) / maxLen

	rankScore := 0
	if rank := fuzzy.RankMatch(s2, s1); rank >= 0 && rank < len(s1) {
		rankScore = 60 - (rank * 40 / len(s1))
	}

	if levScore > rankScore {
		return levScore
	}
	return rankScore
}

// levenshteinDistance computes the edit distance between two strings
// using a two-row rolling matrix.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)

	for j := 0; j <= len(r2); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}
