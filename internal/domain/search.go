package domain

// Sort options for search results.
const (
	SortRelevance = "relevance"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNameAsc   = "name_asc"
	SortNameDesc  = "name_desc"
	SortCodeAsc   = "code_asc"
	SortCodeDesc  = "code_desc"
)

// ValidSortOptions returns the list of valid sort options.
func ValidSortOptions() []string {
	return []string{SortRelevance, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc, SortCodeAsc, SortCodeDesc}
}

// SortOption pairs a sort value with a display label.
type SortOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SortOptions returns the labelled sort options offered to clients.
func SortOptions() []SortOption {
	return []SortOption{
		{Value: SortRelevance, Label: "Relevance"},
		{Value: SortPriceAsc, Label: "Price: Low to High"},
		{Value: SortPriceDesc, Label: "Price: High to Low"},
		{Value: SortNameAsc, Label: "Name: A to Z"},
		{Value: SortNameDesc, Label: "Name: Z to A"},
		{Value: SortCodeAsc, Label: "Code: A to Z"},
		{Value: SortCodeDesc, Label: "Code: Z to A"},
	}
}

// IsValidSort checks whether the given sort string is a valid sort option.
func IsValidSort(sort string) bool {
	for _, s := range ValidSortOptions() {
		if s == sort {
			return true
		}
	}
	return false
}

// SearchQuery holds all parameters for a catalog search request.
type SearchQuery struct {
	Query         string   `json:"query"`
	Category      *string  `json:"category,omitempty"`
	Brand         *string  `json:"brand,omitempty"`
	MinPrice      *float64 `json:"min_price,omitempty"`
	MaxPrice      *float64 `json:"max_price,omitempty"`
	AvailableOnly bool     `json:"available_only"`
	SortBy        string   `json:"sort_by"`
	Page          int      `json:"page"`
	PerPage       int      `json:"per_page"`
}

// ScoredProduct is a product together with its relevance score. Score is
// zero when the result was not produced by a ranked query.
type ScoredProduct struct {
	Product
	Score float64 `json:"score"`
}

// SearchResult holds the paginated search response.
type SearchResult struct {
	Products    []ScoredProduct `json:"products"`
	Total       int             `json:"total"`
	Page        int             `json:"page"`
	PerPage     int             `json:"per_page"`
	TotalPages  int             `json:"total_pages"`
	HasNext     bool            `json:"has_next"`
	Query       string          `json:"query"`
	Suggestions []string        `json:"suggestions,omitempty"`
	TookMs      int64           `json:"took_ms"`
}

// IndexStats describes the current state of the search index.
type IndexStats struct {
	TotalProducts           int     `json:"total_products"`
	TotalTokens             int     `json:"total_tokens"`
	IsInitialized           bool    `json:"is_initialized"`
	AverageTokensPerProduct float64 `json:"average_tokens_per_product"`
}

// PriceRange is the span of prices in a set of products.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FilterOptions lists the facet values a client can filter the catalog by.
// Only available products contribute.
type FilterOptions struct {
	Categories  []string     `json:"categories"`
	Brands      []string     `json:"brands"`
	PriceRange  PriceRange   `json:"price_range"`
	SortOptions []SortOption `json:"sort_options"`
}
