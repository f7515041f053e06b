package index

import (
	"fmt"
	"sort"

	"github.com/utafrali/catalogsearch/internal/domain"
)

// Stats reports index size and initialization state.
func (idx *Index) Stats() domain.IndexStats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	products := len(idx.ids)
	tokens := len(idx.postings)
	return domain.IndexStats{
		TotalProducts:           products,
		TotalTokens:             tokens,
		IsInitialized:           idx.initialized,
		AverageTokensPerProduct: float64(tokens) / float64(max(products, 1)),
	}
}

// Generation increases on every successful mutation. Callers caching
// search results compare it to detect stale entries.
func (idx *Index) Generation() uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.generation
}

// Contains reports whether code is indexed.
func (idx *Index) Contains(code string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.ids[code]
	return ok
}

// Products returns the cached records for codes, in the same order,
// skipping codes that are not indexed.
func (idx *Index) Products(codes []string) []domain.Product {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]domain.Product, 0, len(codes))
	for _, code := range codes {
		if p, ok := idx.records[code]; ok {
			out = append(out, p.Clone())
		}
	}
	return out
}

// All returns every cached record sorted by product code.
func (idx *Index) All() []domain.Product {
	idx.mu.RLock()
	out := make([]domain.Product, 0, len(idx.records))
	for _, p := range idx.records {
		out = append(out, p.Clone())
	}
	idx.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// checkInvariants verifies the structural invariants of the index: every
// posted id has a record, every record has an id, and no posting list is
// empty. It is used by tests.
func (idx *Index) checkInvariants() error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.ids) != len(idx.codes) || len(idx.ids) != len(idx.records) {
		return fmt.Errorf("code set mismatch: ids=%d codes=%d records=%d",
			len(idx.ids), len(idx.codes), len(idx.records))
	}
	for code, id := range idx.ids {
		if idx.codes[id] != code {
			return fmt.Errorf("id %d maps to %q, want %q", id, idx.codes[id], code)
		}
	}

	posted := make(map[uint32]struct{})
	for token, pl := range idx.postings {
		if pl.isEmpty() {
			return fmt.Errorf("empty posting list for token %q", token)
		}
		var err error
		pl.each(func(id uint32) {
			posted[id] = struct{}{}
			if _, ok := idx.codes[id]; !ok && err == nil {
				err = fmt.Errorf("token %q posts unknown id %d", token, id)
			}
		})
		if err != nil {
			return err
		}
	}

	for code, id := range idx.ids {
		if _, ok := posted[id]; ok {
			continue
		}
		p := idx.records[code]
		if hasTokens(&p) {
			return fmt.Errorf("product %q has tokens but no postings", code)
		}
	}
	return nil
}

func hasTokens(p *domain.Product) bool {
	for _, text := range indexedFields(p) {
		if len(Tokenize(text)) > 0 {
			return true
		}
	}
	return false
}
