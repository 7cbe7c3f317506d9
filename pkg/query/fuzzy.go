package query

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/sahilm/fuzzy"
	"github.com/sw33tLie/biodex/pkg/catalog"
)

type field int

const (
	fieldCommonName field = iota
	fieldScientificName
	fieldHabitats
	fieldDescription
)

var searchFields = []field{fieldCommonName, fieldScientificName, fieldHabitats, fieldDescription}

// Subsequence matching only runs on short fields; over a paragraph almost
// any pattern is a subsequence.
var subsequenceFields = []field{fieldCommonName, fieldScientificName, fieldHabitats}

var fieldWeights = map[field]float64{
	fieldCommonName:     1.0,
	fieldScientificName: 0.9,
	fieldHabitats:       0.6,
	fieldDescription:    0.4,
}

// Match tiers. A field's score is the best tier it reaches.
const (
	scorePrefix      = 1.0
	scoreContains    = 0.9
	scoreTokens      = 0.7
	scoreEditPenalty = 0.05
	scoreTokensFloor = 0.45
	scoreSubsequence = 0.3
)

// minTypoTokenLen keeps short tokens exact; "cat" must not match "bat".
const minTypoTokenLen = 4

func fieldText(u catalog.UnifiedSpecies, f field) string {
	switch f {
	case fieldCommonName:
		return u.CommonName
	case fieldScientificName:
		return u.ScientificName
	case fieldHabitats:
		return strings.Join(u.Habitats, " ")
	case fieldDescription:
		return u.Description
	}
	return ""
}

// fieldSource adapts one field of the collection to fuzzy.Source.
type fieldSource struct {
	species []catalog.UnifiedSpecies
	field   field
}

func (s fieldSource) String(i int) string { return strings.ToLower(fieldText(s.species[i], s.field)) }
func (s fieldSource) Len() int            { return len(s.species) }

// Match returns the records matching query, most relevant first. Records of
// equal relevance keep their collection order.
func (e *Engine) Match(species []catalog.UnifiedSpecies, query string) []catalog.UnifiedSpecies {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		out := make([]catalog.UnifiedSpecies, len(species))
		copy(out, species)
		return out
	}
	tokens := splitWords(q)

	scores := make([]float64, len(species))
	bump := func(i int, s float64) {
		if s > scores[i] {
			scores[i] = s
		}
	}

	for _, f := range subsequenceFields {
		for _, m := range fuzzy.FindFrom(q, fieldSource{species: species, field: f}) {
			bump(m.Index, fieldWeights[f]*subsequenceScore(m.Score, len(q)))
		}
	}

	for i, u := range species {
		for _, f := range searchFields {
			text := strings.ToLower(fieldText(u, f))
			if text == "" {
				continue
			}
			bump(i, fieldWeights[f]*e.textScore(text, q, tokens))
		}
	}

	idx := make([]int, 0, len(species))
	for i, s := range scores {
		if s > 0 {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})

	out := make([]catalog.UnifiedSpecies, len(idx))
	for i, j := range idx {
		out[i] = species[j]
	}
	return out
}

// textScore grades one lower-cased field against the lower-cased query.
func (e *Engine) textScore(text, q string, tokens []string) float64 {
	if strings.HasPrefix(text, q) {
		return scorePrefix
	}
	if strings.Contains(text, q) {
		return scoreContains
	}
	if len(tokens) == 0 {
		return 0
	}

	words := splitWords(text)
	edits := 0
	for _, tok := range tokens {
		best := -1
		for _, w := range words {
			if strings.HasPrefix(w, tok) {
				best = 0
				break
			}
			if d := e.distance(tok, w); d >= 0 && (best < 0 || d < best) {
				best = d
			}
		}
		if best < 0 {
			return 0
		}
		edits += best
	}
	return math.Max(scoreTokens-scoreEditPenalty*float64(edits), scoreTokensFloor)
}

// distance returns the edit distance between tok and word, or -1 when it
// exceeds what the threshold allows for tok.
func (e *Engine) distance(tok, word string) int {
	allowed := e.allowedEdits(tok)
	if allowed == 0 {
		return -1
	}
	// Length gap alone already exceeds the budget.
	if gap := utf8.RuneCountInString(word) - utf8.RuneCountInString(tok); gap > allowed || -gap > allowed {
		return -1
	}
	d := levenshtein.ComputeDistance(tok, word)
	if d > allowed {
		return -1
	}
	return d
}

func (e *Engine) allowedEdits(tok string) int {
	n := utf8.RuneCountInString(tok)
	if n < minTypoTokenLen || e.Threshold <= 0 {
		return 0
	}
	return int(math.Round(float64(n) * e.Threshold))
}

// subsequenceScore maps a sahilm/fuzzy score into the lowest tier, keeping
// the library's relative ranking.
func subsequenceScore(raw, patternLen int) float64 {
	if patternLen == 0 {
		return 0
	}
	norm := float64(raw) / float64(10*patternLen)
	norm = math.Max(0, math.Min(1, norm))
	return scoreSubsequence + 0.1*norm
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
