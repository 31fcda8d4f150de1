package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination is a clamped page request for the ticket and parked lists.
type Pagination struct {
	Page     int
	PageSize int
}

// NewPagination clamps page and pageSize: non-positive values take the
// defaults and pageSize never exceeds MaxPageSize.
func NewPagination(page, pageSize int) Pagination {
	p := Pagination{Page: DefaultPage, PageSize: DefaultPageSize}
	if page > 0 {
		p.Page = page
	}
	if pageSize > 0 {
		p.PageSize = min(pageSize, MaxPageSize)
	}
	return p
}

// ParsePagination reads page and page_size from the query string. Values
// that do not parse are treated as absent.
func ParsePagination(c *gin.Context) Pagination {
	return NewPagination(queryInt(c, "page"), queryInt(c, "page_size"))
}

// Pages reports how many pages total rows fill. An empty list still has
// one page.
func (p Pagination) Pages(total int64) int {
	if total <= 0 || p.PageSize <= 0 {
		return 1
	}
	size := int64(p.PageSize)
	return int((total + size - 1) / size)
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
