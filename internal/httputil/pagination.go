package httputil

import (
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is the paged response shape the UI consumes:
// content plus the page coordinates and the total element count.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
}

// NewPage builds a Page, normalizing nil content to an empty slice so the
// JSON body always carries an array.
func NewPage[T any](content []T, page, size int, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	return Page[T]{Content: content, Page: page, Size: size, TotalElements: total}
}

// ParsePageParams reads ?page= and ?size= with sane bounds. Page numbering
// starts at zero.
func ParsePageParams(r *http.Request) (page, size int) {
	page = 0
	size = defaultPageSize

	if v := r.URL.Query().Get("page"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			page = i
		}
	}
	if v := r.URL.Query().Get("size"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			size = i
		}
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}
