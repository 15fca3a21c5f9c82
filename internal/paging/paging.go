// Package paging turns ordered lists into bounded pages for choice menus.
package paging

import "errors"

// DefaultPageSize is how many choices fit in one conversational page.
const DefaultPageSize = 50

// ErrOutOfRange is returned for a page index outside [0, TotalPages-1].
// Callers clamp before calling; the helper never clamps silently.
var ErrOutOfRange = errors.New("page index out of range")

// Page is one bounded slice of an ordered list plus navigation metadata.
type Page[T any] struct {
	Items      []T
	Index      int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// Paginate slices items for the given zero-based page index. An empty list
// still has one (empty) page. Stateless: same input, same page.
func Paginate[T any](items []T, index, size int) (Page[T], error) {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := (len(items) + size - 1) / size
	if total == 0 {
		total = 1
	}
	if index < 0 || index >= total {
		return Page[T]{}, ErrOutOfRange
	}
	lo := index * size
	hi := lo + size
	if lo > len(items) {
		lo = len(items)
	}
	if hi > len(items) {
		hi = len(items)
	}
	return Page[T]{
		Items:      items[lo:hi],
		Index:      index,
		TotalPages: total,
		HasPrev:    index > 0,
		HasNext:    index < total-1,
	}, nil
}

// Clamp bounds a requested page index to the valid range for n items.
func Clamp(index, n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := (n + size - 1) / size
	if total == 0 {
		total = 1
	}
	if index < 0 {
		return 0
	}
	if index >= total {
		return total - 1
	}
	return index
}
