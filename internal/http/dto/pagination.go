package dto

import (
	"net/url"

	"github.com/cesargomez89/showmover/internal/constants"
)

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit and offset. A missing or zero limit falls back
// to the default page size and larger limits are capped.
func ParsePagination(q url.Values) (Pagination, []ValidationError) {
	var errs []ValidationError

	limit, ok, e := parseNonNegative(q, "limit")
	errs = append(errs, e...)
	if !ok || limit == 0 {
		limit = constants.DefaultPageSize
	}

	offset, _, e := parseNonNegative(q, "offset")
	errs = append(errs, e...)

	return Pagination{Limit: min(limit, constants.MaxPageSize), Offset: offset}, errs
}

// Page is the envelope for list responses.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

func NewPage[T any](items []T, total, limit, offset int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:   items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+len(items) < total,
	}
}
