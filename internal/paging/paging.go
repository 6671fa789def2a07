// Package paging holds the skip/limit arithmetic shared by every list view.
// Pages are 1-based.
package paging

const DefaultLimit = 20

// TotalPages is ceil(total/limit). Zero items means zero pages.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// HasNext reports whether a page after page exists.
func HasNext(page, totalPages int) bool {
	return page < totalPages
}

// HasPrev reports whether a page before page exists.
func HasPrev(page int) bool {
	return page > 1
}

// Skip converts a page number into the backend's skip offset.
func Skip(page, limit int) int {
	if page < 1 {
		page = 1
	}
	if limit < 0 {
		limit = 0
	}
	return (page - 1) * limit
}

// Window describes one rendered page of a list.
type Window struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// NewWindow normalises page and limit and derives the page count.
func NewWindow(page, limit, total int) Window {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return Window{Page: page, Limit: limit, Total: total, TotalPages: TotalPages(total, limit)}
}

func (w Window) HasNext() bool { return HasNext(w.Page, w.TotalPages) }
func (w Window) HasPrev() bool { return HasPrev(w.Page) }
func (w Window) Next() int     { return w.Page + 1 }
func (w Window) Prev() int     { return w.Page - 1 }
