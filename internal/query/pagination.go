// Package query builds tenant-scoped SQL for the generic record surface and
// owns the pagination arithmetic shared by every list endpoint.
package query

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination is a 1-based page window.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Normalize clamps page to >= 1 and page size to 1..MaxPageSize.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset is (page-1) * pageSize.
func (p Pagination) Offset() uint64 {
	n := p.Normalize()
	return uint64(n.Page-1) * uint64(n.PageSize) //nolint:gosec // both clamped positive
}

// Limit is the page size.
func (p Pagination) Limit() uint64 {
	return uint64(p.Normalize().PageSize) //nolint:gosec // clamped positive
}

// LastPage returns the number of the last page for total rows. An empty
// result still has one (empty) page.
func LastPage(total int64, pageSize int) int {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if total <= 0 {
		return 1
	}
	size := int64(pageSize)
	return int((total + size - 1) / size)
}

// HasPage reports whether p.Page is within 1..LastPage for total rows.
func (p Pagination) HasPage(total int64) bool {
	return p.Page >= 1 && p.Page <= LastPage(total, p.Normalize().PageSize)
}

// HasNext reports whether a page after p.Page exists.
func (p Pagination) HasNext(total int64) bool {
	return p.Page < LastPage(total, p.Normalize().PageSize)
}

// HasPrev reports whether a page before p.Page exists.
func (p Pagination) HasPrev() bool {
	return p.Page > 1
}
