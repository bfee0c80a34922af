package pagination

import (
	"math"
)

// PageRequest holds pagination parameters parsed from query strings.
// A zero PageSize means "everything on one page".
type PageRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=500"`
}

// Defaults fills in default values when page is not provided.
func (p *PageRequest) Defaults() {
	if p.Page == 0 {
		p.Page = 1
	}
}

// Offset returns the index of the first item on the current page.
func (p *PageRequest) Offset() int {
	if p.PageSize == 0 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// PageResponse wraps a paginated list of items with metadata.
type PageResponse[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPageResponse creates a PageResponse from the given data and total count.
func NewPageResponse[T any](data []T, page, pageSize int, totalItems int64) PageResponse[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(math.Ceil(float64(totalItems) / float64(pageSize)))
	}
	if data == nil {
		data = []T{}
	}
	return PageResponse[T]{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

// Slice pages through an in-memory list. Without a page size every item is
// returned on page 1. Pages past the end are empty.
func Slice[T any](items []T, req PageRequest) PageResponse[T] {
	req.Defaults()
	total := len(items)

	if req.PageSize == 0 {
		return NewPageResponse(items, 1, total, int64(total))
	}

	// Compare page numbers before multiplying; a huge page would overflow Offset.
	lastPage := (total + req.PageSize - 1) / req.PageSize
	if req.Page > lastPage {
		return NewPageResponse([]T{}, req.Page, req.PageSize, int64(total))
	}

	start := req.Offset()
	end := start + req.PageSize
	if end > total {
		end = total
	}
	return NewPageResponse(items[start:end], req.Page, req.PageSize, int64(total))
}
