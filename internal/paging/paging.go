// Package paging splits ordered collections into fixed-size, 1-indexed pages.
package paging

import (
	"errors"
	"fmt"
)

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 50

// ErrInvalidArgument is returned for a non-positive page size or page number.
var ErrInvalidArgument = errors.New("invalid argument")

// Pages returns the number of pages needed for total items: ceil(total/pageSize), minimum 1.
func Pages(total, pageSize int) (int, error) {
	if pageSize <= 0 {
		return 0, fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidArgument, pageSize)
	}
	n := (total + pageSize - 1) / pageSize
	if n < 1 {
		n = 1
	}
	return n, nil
}

// Paginate returns items grouped by page number together with the page count.
// Empty input yields a single empty page. Pages share the backing array of items.
func Paginate[T any](items []T, pageSize int) (map[int][]T, int, error) {
	n, err := Pages(len(items), pageSize)
	if err != nil {
		return nil, 0, err
	}
	if n == 1 {
		if items == nil {
			items = []T{}
		}
		return map[int][]T{1: items}, 1, nil
	}
	pages := make(map[int][]T, n)
	for i := 0; i < n; i++ {
		start := i * pageSize
		end := min(start+pageSize, len(items))
		pages[i+1] = items[start:end:end]
	}
	return pages, n, nil
}

// Page returns the items on page (1-based) and the page count.
// A page past the last one returns an empty slice.
func Page[T any](items []T, page, pageSize int) ([]T, int, error) {
	n, err := Pages(len(items), pageSize)
	if err != nil {
		return nil, 0, err
	}
	if page < 1 {
		return nil, 0, fmt.Errorf("%w: page must be 1 or greater, got %d", ErrInvalidArgument, page)
	}
	start, end := Bounds(page, pageSize, len(items))
	return items[start:end:end], n, nil
}

// Bounds returns the [start, end) slice indices of page within total items,
// clamped to total. It assumes page >= 1 and pageSize > 0.
func Bounds(page, pageSize, total int) (start, end int) {
	start = min((page-1)*pageSize, total)
	end = min(start+pageSize, total)
	return start, end
}

// Offset returns the row offset of page, for LIMIT/OFFSET queries.
func Offset(page, pageSize int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * pageSize
}
