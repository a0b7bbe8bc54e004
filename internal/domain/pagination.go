package domain

import (
	"fmt"
	"math"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	MaxPage         = math.MaxInt32
)

type Pagination struct {
	Page     int
	PageSize int
}

// Validate reports out of range page numbers and sizes.
func (p Pagination) Validate() error {
	verr := &ValidationError{}
	switch {
	case p.Page < 1:
		verr.Add("page", "must be at least 1")
	case p.Page > MaxPage:
		verr.Add("page", fmt.Sprintf("must be at most %d", MaxPage))
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		verr.Add("pageSize", fmt.Sprintf("must be between 1 and %d", MaxPageSize))
	}

	if verr.HasIssues() {
		return verr
	}

	return nil
}

func (p Pagination) Limit() int {
	return max(p.PageSize, 0)
}

// Offset saturates at math.MaxInt instead of overflowing.
func (p Pagination) Offset() int {
	if p.Page <= 1 || p.PageSize <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}

	return (p.Page - 1) * p.PageSize
}

// Window returns the half-open index range of items on this page for a
// collection holding total items.
func (p Pagination) Window(total int) (int, int) {
	start := min(p.Offset(), total)
	end := start + min(p.Limit(), total-start)

	return start, end
}
