package tags

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/promptdex/pkg/pagination"
)

// Domain errors for tag operations.
var (
	ErrNotFound    = errors.New("tag not found")
	ErrInvalidName = errors.New("invalid tag name")

	// ErrConflict reports a lost race on the unique tag name. FindOrCreate
	// absorbs it; it never reaches a caller of the registry.
	ErrConflict = errors.New("tag name already exists")
)

// MapHTTPStatus maps tag domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidName), errors.Is(err, pagination.ErrInvalidPage):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
