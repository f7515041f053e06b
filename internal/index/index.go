// Package index implements the in-process inverted index behind catalog
// search: tokenization, postings maintenance, relevance scoring and prefix
// suggestions.
//
// Every public method runs inside one critical section guarded by the
// index's RWMutex. Mutations take the write lock; reads share the read lock,
// so a reader never observes a posting list mid-mutation.
package index

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/catalogsearch/internal/domain"
)

// BuildResult summarizes one full rebuild.
type BuildResult struct {
	Indexed  int
	Skipped  int
	Duration time.Duration
}

// Index is the inverted index over catalog products. The zero value is not
// usable; create one with New.
type Index struct {
	mu sync.RWMutex

	postings map[string]*postingList
	records  map[string]domain.Product

	// ids and codes intern product codes into posting ids. The key set of
	// ids is the set of indexed product codes.
	ids    map[string]uint32
	codes  map[uint32]string
	nextID uint32

	initialized bool
	generation  uint64

	logger *slog.Logger
}

// New creates an empty, uninitialized index. A nil logger discards output.
func New(logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	idx := &Index{logger: logger}
	idx.reset()
	return idx
}

func (idx *Index) reset() {
	idx.postings = make(map[string]*postingList)
	idx.records = make(map[string]domain.Product)
	idx.ids = make(map[string]uint32)
	idx.codes = make(map[uint32]string)
	idx.nextID = 0
}

// BuildIndex discards the current contents and indexes every record.
// Records without a product code are skipped and counted; they never abort
// the build. Afterwards the index is initialized, even for an empty input.
func (idx *Index) BuildIndex(records []domain.Product) BuildResult {
	start := time.Now()

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.reset()

	var res BuildResult
	for i := range records {
		if !records[i].Valid() {
			res.Skipped++
			idx.logger.Warn("skipping catalog record without product code",
				slog.Int("position", i),
			)
			continue
		}
		idx.addLocked(records[i])
		res.Indexed++
	}

	idx.initialized = true
	idx.generation++
	res.Duration = time.Since(start)

	idx.logger.Info("search index built",
		slog.Int("records", len(records)),
		slog.Int("indexed", res.Indexed),
		slog.Int("skipped", res.Skipped),
		slog.Int("products", len(idx.ids)),
		slog.Int("tokens", len(idx.postings)),
		slog.Duration("duration", res.Duration),
	)

	return res
}

// AddProduct indexes a single product. Adding a code that is already indexed
// replaces the previous version. Products without a code are ignored and
// reported as false.
func (idx *Index) AddProduct(p domain.Product) bool {
	if !p.Valid() {
		return false
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.ids[p.Code]; ok {
		idx.removeLocked(p.Code)
	}
	idx.addLocked(p)
	idx.generation++
	return true
}

// RemoveProduct drops a product and prunes every posting list left empty.
// It reports whether the code was indexed.
func (idx *Index) RemoveProduct(code string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !idx.removeLocked(code) {
		return false
	}
	idx.generation++
	return true
}

// UpdateProduct replaces a product: RemoveProduct followed by AddProduct in
// one critical section, so postings from changed fields never linger.
func (idx *Index) UpdateProduct(p domain.Product) bool {
	if !p.Valid() {
		return false
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeLocked(p.Code)
	idx.addLocked(p)
	idx.generation++
	return true
}

// addLocked must be called with the write lock held and p valid.
func (idx *Index) addLocked(p domain.Product) {
	p = p.Clone()

	id, ok := idx.ids[p.Code]
	if !ok {
		id = idx.nextID
		idx.nextID++
		idx.ids[p.Code] = id
		idx.codes[id] = p.Code
	}
	idx.records[p.Code] = p

	for _, text := range indexedFields(&p) {
		if text == "" {
			continue
		}
		for _, token := range Tokenize(text) {
			pl, ok := idx.postings[token]
			if !ok {
				pl = newPostingList()
				idx.postings[token] = pl
			}
			pl.add(id)
		}
	}
}

// removeLocked must be called with the write lock held. Every posting list
// is scanned; this is the only place token entries are pruned.
func (idx *Index) removeLocked(code string) bool {
	id, ok := idx.ids[code]
	if !ok {
		return false
	}

	delete(idx.ids, code)
	delete(idx.codes, id)
	delete(idx.records, code)

	for token, pl := range idx.postings {
		if pl.remove(id) && pl.isEmpty() {
			delete(idx.postings, token)
		}
	}
	return true
}

// indexedFields lists the text of every searchable field of p: code,
// brand, category, description and each part number.
func indexedFields(p *domain.Product) []string {
	fields := make([]string, 0, 4+len(p.PartNumbers))
	fields = append(fields, p.Code, p.Brand, p.Category, p.Description)
	return append(fields, p.PartNumbers...)
}
