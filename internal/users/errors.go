package users

import (
	"errors"
	"net/http"
)

// Domain errors for user operations.
var (
	ErrNotFound        = errors.New("user not found")
	ErrDuplicate       = errors.New("username already registered")
	ErrInvalidUsername = errors.New("invalid username")
)

// MapHTTPStatus maps user domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidUsername):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
