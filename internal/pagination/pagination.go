// Package pagination parses zero-based page requests and shapes page metadata.
package pagination

import (
	"math"
	"strings"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps Page*Size within a 32-bit OFFSET.
	MaxPage = math.MaxInt32 / MaxPageSize
)

// Sort directions.
const (
	Asc  = "asc"
	Desc = "desc"
)

// PageRequest holds pagination and sort parameters parsed from query strings.
// Pages are zero-based. Out-of-range values are clamped rather than rejected.
type PageRequest struct {
	Page      int    `form:"page"`
	Size      int    `form:"size"`
	SortBy    string `form:"sortBy"`
	Direction string `form:"direction" binding:"omitempty,sort_direction"`
}

// Normalize clamps page and size into their valid ranges.
func (p *PageRequest) Normalize() {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	p.Direction = strings.ToLower(strings.TrimSpace(p.Direction))
}

// Offset returns the SQL OFFSET for the current page, normalizing first so
// the product cannot overflow.
func (p PageRequest) Offset() int {
	p.Normalize()
	return p.Page * p.Size
}

// SortSpec maps public sort field names to columns and names the default ordering.
type SortSpec struct {
	Columns          map[string]string
	DefaultField     string
	DefaultDirection string
	// Tiebreak is appended to every ordering so pages are stable.
	Tiebreak string
}

// OrderClause resolves the request's sort against sorting. Unknown fields fall
// back to the default field; unknown directions fall back to the default direction.
func (p PageRequest) OrderClause(sorting SortSpec) string {
	column, ok := sorting.Columns[p.SortBy]
	direction := p.Direction
	if !ok {
		column = sorting.Columns[sorting.DefaultField]
		if direction == "" {
			direction = sorting.DefaultDirection
		}
	}
	if direction != Asc && direction != Desc {
		direction = sorting.DefaultDirection
	}
	clause := column + " " + strings.ToUpper(direction)
	if sorting.Tiebreak != "" {
		clause += ", " + sorting.Tiebreak
	}
	return clause
}

// Meta describes where a page sits in the full result set.
type Meta struct {
	CurrentPage   int   `json:"currentPage"`
	PageSize      int   `json:"pageSize"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	IsFirst       bool  `json:"isFirst"`
	IsLast        bool  `json:"isLast"`
	HasNext       bool  `json:"hasNext"`
	HasPrevious   bool  `json:"hasPrevious"`
}

// Page is one page of results plus its metadata.
type Page[T any] struct {
	Content    []T  `json:"content"`
	Pagination Meta `json:"pagination"`
}

// NewMeta computes page metadata for a request over totalElements results.
func NewMeta(req PageRequest, totalElements int64) Meta {
	size := req.Size
	if size <= 0 {
		size = DefaultPageSize
	}
	totalPages := int(math.Ceil(float64(totalElements) / float64(size)))
	return Meta{
		CurrentPage:   req.Page,
		PageSize:      size,
		TotalElements: totalElements,
		TotalPages:    totalPages,
		IsFirst:       req.Page == 0,
		IsLast:        req.Page >= totalPages-1,
		HasNext:       req.Page < totalPages-1,
		HasPrevious:   req.Page > 0,
	}
}

// NewPage wraps content with metadata. A nil slice becomes an empty one.
func NewPage[T any](content []T, req PageRequest, totalElements int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	return Page[T]{Content: content, Pagination: NewMeta(req, totalElements)}
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT for the given page request.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.Offset()).Limit(req.Size)
	}
}
