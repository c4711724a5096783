package listing

// Page is one page of a listing. IsNext reports whether rows exist past it.
type Page[T any] struct {
	Items      []T        `json:"items"`
	IsNext     bool       `json:"isNext"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	Page   int        `json:"page"`
	IsNext bool       `json:"isNext"`
	Prev   string     `json:"prev,omitempty"`
	Next   string     `json:"next,omitempty"`
	Pages  []PageLink `json:"pages"`
}

// PageLink is one entry of the visible page-number window. Ellipsis entries carry no number.
type PageLink struct {
	Number   int    `json:"number,omitempty"`
	Ellipsis bool   `json:"ellipsis,omitempty"`
	Current  bool   `json:"current,omitempty"`
	Query    string `json:"query,omitempty"`
}

// NewPage trims rows fetched with Limit(size) down to size and fills in pagination.
func NewPage[T any](rows []T, p Params, size int) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	isNext := len(rows) > size
	if isNext {
		rows = rows[:size]
	}
	return Page[T]{
		Items:      rows,
		IsNext:     isNext,
		Pagination: Paginate(p, isNext),
	}
}

func Paginate(p Params, isNext bool) Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	pg := Pagination{Page: p.Page, IsNext: isNext, Pages: []PageLink{}}
	if p.Page > 1 {
		pg.Prev = p.WithPage(p.Page - 1).Encode()
	}
	if isNext {
		pg.Next = p.WithPage(p.Page + 1).Encode()
	}
	for _, n := range Window(p.Page, isNext) {
		if n == 0 {
			pg.Pages = append(pg.Pages, PageLink{Ellipsis: true})
			continue
		}
		pg.Pages = append(pg.Pages, PageLink{
			Number:  n,
			Current: n == p.Page,
			Query:   p.WithPage(n).Encode(),
		})
	}
	return pg
}

// Window returns the page numbers to display around page, with 0 marking an ellipsis.
// A single page with nothing after it yields no window.
func Window(page int, isNext bool) []int {
	if page < 1 {
		page = 1
	}
	if !isNext && page == 1 {
		return nil
	}

	out := make([]int, 0, 7)
	seen := map[int]bool{}
	if page > 3 {
		out = append(out, 1)
		seen[1] = true
		if page > 4 {
			out = append(out, 0)
		}
	}

	start := page - 1
	if start < 1 {
		start = 1
	}
	end := page
	if isNext {
		end = page + 1
	}
	for i := start; i <= end; i++ {
		if !seen[i] {
			out = append(out, i)
			seen[i] = true
		}
	}

	if isNext {
		out = append(out, 0, end+2)
	}
	return out
}

// Slice applies limit and offset to an already filtered and sorted result set.
func Slice[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}
