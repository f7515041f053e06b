package index

import (
	"sort"
	"strings"

	"github.com/utafrali/catalogsearch/internal/domain"
)

// DefaultMaxResults is used when Search is called with a non-positive limit.
const DefaultMaxResults = 100

// Exact-match boosts. Only the first matching field counts per token.
const (
	boostCode     = 3.0
	boostBrand    = 2.0
	boostCategory = 1.5

	phraseBoost   = 1.5
	allTermsBoost = 1.2
)

// Hit is one ranked search result.
type Hit struct {
	Code  string
	Score float64
}

// Search returns up to maxResults product codes ordered by relevance.
func (idx *Index) Search(query string, maxResults int) []string {
	hits := idx.SearchScored(query, maxResults)
	if len(hits) == 0 {
		return nil
	}
	codes := make([]string, len(hits))
	for i, h := range hits {
		codes[i] = h.Code
	}
	return codes
}

// SearchScored is Search with the relevance score of each result. Ties are
// broken by product code so results are deterministic.
func (idx *Index) SearchScored(query string, maxResults int) []Hit {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.initialized {
		return nil
	}

	scores := idx.scoreLocked(tokens, query)
	if len(scores) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, Hit{Code: idx.codes[id], Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Code < hits[j].Code
	})

	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	return hits
}

// scoreLocked accumulates 1.0 x boost per matching query token, then applies
// the phrase pass for multi-token queries. Caller holds the read lock.
func (idx *Index) scoreLocked(tokens []string, query string) map[uint32]float64 {
	scores := make(map[uint32]float64)

	for _, token := range tokens {
		pl, ok := idx.postings[token]
		if !ok {
			continue
		}
		pl.each(func(id uint32) {
			p := idx.records[idx.codes[id]]
			scores[id] += 1.0 * fieldBoost(&p, token)
		})
	}

	if len(tokens) > 1 {
		idx.applyPhraseScoring(scores, tokens, query)
	}
	return scores
}

// fieldBoost checks code, brand and category in that order and returns the
// boost of the first field equal to token.
func fieldBoost(p *domain.Product, token string) float64 {
	switch {
	case strings.ToLower(p.Code) == token:
		return boostCode
	case strings.ToLower(p.Brand) == token:
		return boostBrand
	case strings.ToLower(p.Category) == token:
		return boostCategory
	default:
		return 1.0
	}
}

func (idx *Index) applyPhraseScoring(scores map[uint32]float64, tokens []string, query string) {
	phrase := strings.ToLower(query)

	for id := range scores {
		desc := strings.ToLower(idx.records[idx.codes[id]].Description)
		if desc == "" {
			continue
		}

		if strings.Contains(desc, phrase) {
			scores[id] *= phraseBoost
		}

		all := true
		for _, token := range tokens {
			if !strings.Contains(desc, token) {
				all = false
				break
			}
		}
		if all {
			scores[id] *= allTermsBoost
		}
	}
}
