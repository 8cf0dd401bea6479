package pagination

import (
	"math"

	"gorm.io/gorm"
)

// PageRequest holds optional pagination parameters parsed from query strings.
// A zero PageRequest means "no pagination".
type PageRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

// IsSet reports whether the caller asked for a page at all.
func (p *PageRequest) IsSet() bool {
	return p.Page > 0 || p.PageSize > 0
}

// Defaults fills in default values when page or pageSize are not provided.
func (p *PageRequest) Defaults() {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.PageSize == 0 {
		p.PageSize = 20
	}
}

// Offset returns the SQL OFFSET for the current page.
func (p *PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PageInfo describes the page returned alongside a list response.
type PageInfo struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// NewPageInfo computes page metadata for the given request and total count.
func NewPageInfo(req PageRequest, totalItems int64) PageInfo {
	req.Defaults()
	return PageInfo{
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: int(math.Ceil(float64(totalItems) / float64(req.PageSize))),
	}
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT for the given page request.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		req.Defaults()
		return db.Offset(req.Offset()).Limit(req.PageSize)
	}
}
