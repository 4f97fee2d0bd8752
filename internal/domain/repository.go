// Package domain provides core business logic interfaces and types
// shared by catalogs, documents and registers.
package domain

import (
	"strings"

	"erpcore/internal/core/id"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search matches code/name fields (ILIKE)
	Search string

	// Status filters documents by lifecycle status
	Status string

	// CustomerID filters documents of one customer
	CustomerID *id.ID

	// OrderBy specifies sorting (e.g., "code", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   defaultLimit,
		OrderBy: "-created_at",
	}
}

// Normalize clamps pagination to sane bounds.
func (f *ListFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.Search = strings.TrimSpace(f.Search)
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// Page slices items according to filter; used by in-memory repositories.
func Page[T any](items []T, filter ListFilter) ListResult[T] {
	res := ListResult[T]{TotalCount: int64(len(items)), Limit: filter.Limit, Offset: filter.Offset}
	if filter.Offset >= len(items) {
		res.Items = []T{}
		return res
	}
	end := len(items)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	res.Items = items[filter.Offset:end]
	return res
}
