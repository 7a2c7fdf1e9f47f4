package pagination

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/vidtube/backend/internal/apperr"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params is a 1-indexed page request.
type Params struct {
	Page  int
	Limit int
}

// FromQuery reads page and limit from query, applying defaults for absent values.
func FromQuery(query url.Values) (Params, error) {
	page, err := positive(query.Get("page"), DefaultPage)
	if err != nil {
		return Params{}, apperr.BadRequest("page must be a positive integer")
	}
	limit, err := positive(query.Get("limit"), DefaultLimit)
	if err != nil {
		return Params{}, apperr.BadRequest("limit must be a positive integer")
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}, nil
}

func positive(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}

// Offset is the number of items preceding the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Paginate returns the page of items described by p. Pages past the end are empty.
func Paginate[T any](items []T, p Params) []T {
	start := p.Offset()
	if start >= len(items) || p.Limit <= 0 {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
