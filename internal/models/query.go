package models

import "strings"

// ListFilter narrows a part listing. Zero values mean "no filter".
type ListFilter struct {
	Name      string `json:"name,omitempty"`       // case-insensitive substring
	SKU       string `json:"sku,omitempty"`        // prefix
	IsActive  *int   `json:"is_active,omitempty"`  // 0 or 1
	MinWeight *int   `json:"min_weight,omitempty"` // inclusive
	MaxWeight *int   `json:"max_weight,omitempty"` // inclusive
	Page      int    `json:"page,omitempty"`
	PageSize  int    `json:"page_size,omitempty"`
}

// Validate checks the filter and sets defaults: page 1, page size defaultSize, capped at maxSize.
func (f *ListFilter) Validate(defaultSize, maxSize int) error {
	verr := &ValidationError{}
	if f.IsActive != nil && *f.IsActive != 0 && *f.IsActive != 1 {
		verr.Add("is_active", KindInvalid, "is_active must be 0 or 1")
	}
	if f.MinWeight != nil && *f.MinWeight < 0 {
		verr.Add("min_weight", KindMinValue, "min_weight must be 0 or greater")
	}
	if f.MinWeight != nil && f.MaxWeight != nil && *f.MaxWeight < *f.MinWeight {
		verr.Add("max_weight", KindInvalid, "max_weight must not be less than min_weight")
	}
	if f.Page < 0 {
		verr.Add("page", KindMinValue, "page must be 1 or greater")
	}
	if f.PageSize < 0 {
		verr.Add("page_size", KindMinValue, "page_size must be 1 or greater")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.PageSize == 0 {
		f.PageSize = defaultSize
	}
	if maxSize > 0 && f.PageSize > maxSize {
		f.PageSize = maxSize
	}
	return nil
}

// PartPage is one page of a part listing.
type PartPage struct {
	Items      []*Part `json:"items"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
	TotalItems int64   `json:"total_items"`
}

// SearchQuery is a full-text search request over parts.
type SearchQuery struct {
	Query     string `json:"query"`
	Limit     int    `json:"limit,omitempty"`
	Fuzzy     bool   `json:"fuzzy,omitempty"`
	MinWeight *int   `json:"min_weight,omitempty"`
	MaxWeight *int   `json:"max_weight,omitempty"`
}

// Validate ensures the query is non-empty and clamps limit to [1, maxLimit].
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	verr := &ValidationError{}
	if strings.TrimSpace(q.Query) == "" {
		verr.Add("q", KindRequired, "query cannot be empty")
	}
	if q.MinWeight != nil && q.MaxWeight != nil && *q.MaxWeight < *q.MinWeight {
		verr.Add("max_weight", KindInvalid, "max_weight must not be less than min_weight")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}

// SearchHit is a single search result.
type SearchHit struct {
	Part  *Part   `json:"part"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Query string       `json:"query"`
	Hits  []*SearchHit `json:"hits"`
	Total int          `json:"total"`
	// Suggestions holds "did you mean" corrections when the query matched nothing as typed.
	Suggestions []string `json:"suggestions,omitempty"`
	// AutoFuzzy is set when the exact search found nothing and a fuzzy retry was used.
	AutoFuzzy bool  `json:"auto_fuzzy,omitempty"`
	QueryTime int64 `json:"query_time_ms"`
}
