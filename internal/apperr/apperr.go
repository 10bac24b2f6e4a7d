package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the API boundary. Services wrap these with
// fmt.Errorf("...: %w", Err...) and handlers map them to a status
// via StatusOf, so no layer in between needs to know HTTP codes.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidPhoneNumber = errors.New("invalid phone number")
	ErrDuplicateContact   = errors.New("contact already exists")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("access denied")
	ErrMethodNotAllowed   = errors.New("method not allowed")
	ErrUnauthorized       = errors.New("unauthorized")
)

func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrInvalidPhoneNumber),
		errors.Is(err, ErrDuplicateContact),
		errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

func InvalidInputf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidInput)...)
}
