package listing

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/storefront/internal/category"
)

type Filter string

const (
	FilterNewest       Filter = "newest"
	FilterOldest       Filter = "oldest"
	FilterLowestPrice  Filter = "lowest-price"
	FilterHighestPrice Filter = "highest-price"
)

// CategoryAll is the catalogue pseudo-category that disables category filtering.
const CategoryAll = category.All

// Params is the listing state carried in the URL query string.
type Params struct {
	Query    string `json:"q,omitempty"`
	Filter   Filter `json:"filter,omitempty"`
	Category string `json:"category,omitempty"`
	Page     int    `json:"page"`
}

// FromCtx reads q, filter, category and page from the request query.
func FromCtx(c *fiber.Ctx) Params {
	return FromValues(url.Values{
		"q":        {c.Query("q")},
		"filter":   {c.Query("filter")},
		"category": {c.Query("category")},
		"page":     {c.Query("page")},
	})
}

func FromValues(v url.Values) Params {
	p := Params{
		Query:    strings.TrimSpace(v.Get("q")),
		Filter:   Filter(strings.TrimSpace(v.Get("filter"))),
		Category: normalizeCategory(v.Get("category")),
		Page:     1,
	}
	if p.Filter == FilterNewest {
		p.Filter = ""
	}
	if n, err := strconv.Atoi(v.Get("page")); err == nil && n > 1 {
		p.Page = n
	}
	return p
}

// SortFilter returns the effective filter; unknown and empty values mean newest.
func (p Params) SortFilter(allowPrice bool) Filter {
	switch p.Filter {
	case FilterOldest:
		return FilterOldest
	case FilterLowestPrice, FilterHighestPrice:
		if allowPrice {
			return p.Filter
		}
	}
	return FilterNewest
}

func (p Params) WithSearch(q string) Params {
	p.Query = strings.TrimSpace(q)
	p.Page = 1
	return p
}

func (p Params) WithFilter(f Filter) Params {
	if f == FilterNewest {
		f = ""
	}
	p.Filter = f
	p.Page = 1
	return p
}

func (p Params) WithCategory(name string) Params {
	p.Category = normalizeCategory(name)
	p.Page = 1
	return p
}

// normalizeCategory accepts either display language; All in any language
// clears the filter.
func normalizeCategory(name string) string {
	name = category.Normalize(name)
	if name == CategoryAll {
		return ""
	}
	return name
}

func (p Params) WithPage(n int) Params {
	if n < 1 {
		n = 1
	}
	p.Page = n
	return p
}

// Encode renders the params as a query string without the leading '?'.
// Defaults (newest, All, page 1, empty search) are omitted.
func (p Params) Encode() string {
	v := url.Values{}
	if p.Query != "" {
		v.Set("q", p.Query)
	}
	if p.Filter != "" && p.Filter != FilterNewest {
		v.Set("filter", string(p.Filter))
	}
	if p.Category != "" && p.Category != CategoryAll {
		v.Set("category", p.Category)
	}
	if p.Page > 1 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	return v.Encode()
}

// Offset is the number of rows to skip for a page of the given size.
func (p Params) Offset(size int) int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * size
}

// Limit is the number of rows a repository should fetch: one extra to detect a next page.
func Limit(size int) int {
	return size + 1
}

// Pattern returns the ILIKE pattern for the search query, or "" when no search is set.
func (p Params) Pattern() string {
	if p.Query == "" {
		return ""
	}
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(p.Query) + "%"
}
