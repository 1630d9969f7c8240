package prompts

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/promptdex/internal/tags"
	"github.com/JaimeStill/promptdex/pkg/pagination"
)

// Domain errors for prompt operations.
var (
	ErrNotFound         = errors.New("prompt not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// MapHTTPStatus maps prompt domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrReviewNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, tags.ErrInvalidName),
		errors.Is(err, pagination.ErrInvalidPage):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
