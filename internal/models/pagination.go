package models

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultPageSize applies when a query does not specify a size.
const DefaultPageSize = 10

// PageQuery selects a zero-based page of teachers with optional filters.
type PageQuery struct {
	Page    int    `json:"page"`
	Size    int    `json:"size"`
	Name    string `json:"name,omitempty"`
	Lavozim string `json:"lavozim,omitempty"`
	College string `json:"college,omitempty"`
}

// Normalize clamps paging values and trims filters.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Size <= 0 {
		q.Size = DefaultPageSize
	}
	q.Name = strings.TrimSpace(q.Name)
	q.Lavozim = strings.TrimSpace(q.Lavozim)
	q.College = strings.TrimSpace(q.College)
	return q
}

// Values encodes the normalized query. Blank filters are omitted.
func (q PageQuery) Values() url.Values {
	n := q.Normalize()
	values := url.Values{}
	values.Set("page", strconv.Itoa(n.Page))
	values.Set("size", strconv.Itoa(n.Size))
	if n.Name != "" {
		values.Set("name", n.Name)
	}
	if n.Lavozim != "" {
		values.Set("lavozim", n.Lavozim)
	}
	if n.College != "" {
		values.Set("college", n.College)
	}
	return values
}

// PageResult is the paginated payload inside the backend envelope.
type PageResult[T any] struct {
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalPage     int   `json:"totalPage"`
	TotalElements int64 `json:"totalElements"`
	Body          []T   `json:"body"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}
