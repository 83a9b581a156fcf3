package pagination

// Pagination is the offset page request bound from query parameters.
type Pagination struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// Meta is returned alongside a page of results.
type Meta struct {
	Limit      int   `json:"limit"`
	Page       int   `json:"page"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// Normalize clamps page to at least 1 and size to 1..maxSize, using defaultSize when unset.
func (p Pagination) Normalize(defaultSize, maxSize int) Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultSize
	}
	if maxSize > 0 && p.PageSize > maxSize {
		p.PageSize = maxSize
	}
	return p
}

func (p Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

func BuildMeta(p Pagination, total int64) Meta {
	meta := Meta{Limit: p.PageSize, Page: p.Page, Total: total}
	if p.PageSize > 0 {
		meta.TotalPages = (total + int64(p.PageSize) - 1) / int64(p.PageSize)
	}
	return meta
}
