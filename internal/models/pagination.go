package models

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// Pagination is a 1-based page request as bound from query parameters.
type Pagination struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// Normalize fills defaults for omitted values.
func (p *Pagination) Normalize() {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
}

// PageInfo is the pagination envelope shared by list responses.
type PageInfo struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}
