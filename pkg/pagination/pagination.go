// Package pagination provides types and utilities for paginated data queries.
package pagination

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
)

// ErrInvalidPage indicates page or page size values outside the accepted bounds.
var ErrInvalidPage = errors.New("invalid page request")

// PageRequest represents a client request for a page of data.
// Page is zero-based.
type PageRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Validate reports ErrInvalidPage when Page is negative, when PageSize falls
// outside [1, cfg.MaxPageSize], or when Offset would not fit a 32-bit
// integer.
func (r PageRequest) Validate(cfg Config) error {
	if r.Page < 0 {
		return fmt.Errorf("%w: page %d is negative", ErrInvalidPage, r.Page)
	}
	if r.PageSize < 1 {
		return fmt.Errorf("%w: page_size %d must be positive", ErrInvalidPage, r.PageSize)
	}
	if r.PageSize > cfg.MaxPageSize {
		return fmt.Errorf("%w: page_size %d exceeds %d", ErrInvalidPage, r.PageSize, cfg.MaxPageSize)
	}
	if r.Page > math.MaxInt32/r.PageSize {
		return fmt.Errorf("%w: page %d is out of range", ErrInvalidPage, r.Page)
	}
	return nil
}

// Offset calculates the number of records to skip based on page and page size.
func (r PageRequest) Offset() int {
	return r.Page * r.PageSize
}

// PageRequestFromQuery parses page and page_size from URL query values.
// An absent page_size takes the configured default; an unparsable value
// returns ErrInvalidPage.
func PageRequestFromQuery(values url.Values, cfg Config) (PageRequest, error) {
	req := PageRequest{PageSize: cfg.DefaultPageSize}

	if v := values.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("%w: page %q", ErrInvalidPage, v)
		}
		req.Page = page
	}

	if v := values.Get("page_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("%w: page_size %q", ErrInvalidPage, v)
		}
		req.PageSize = size
	}

	return req, nil
}

// PageResult holds a page of data along with pagination metadata.
type PageResult[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// NewPageResult creates a PageResult with calculated total pages.
func NewPageResult[T any](data []T, total, page, pageSize int) PageResult[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = total / pageSize
		if total%pageSize != 0 {
			totalPages++
		}
	}

	if data == nil {
		data = []T{}
	}

	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
