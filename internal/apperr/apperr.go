// Package apperr holds the error taxonomy shared by the services and the
// transports that expose them.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// NotFoundf formats a message and wraps ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

// Conflictf formats a message and wraps ErrConflict.
func Conflictf(format string, args ...any) error {
	return wrap(ErrConflict, format, args...)
}

// Validationf formats a message and wraps ErrValidation.
func Validationf(format string, args ...any) error {
	return wrap(ErrValidation, format, args...)
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}

// HTTPStatus maps err onto a response status. Errors outside the taxonomy
// are internal.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// GRPCCode is the gRPC counterpart of HTTPStatus.
func GRPCCode(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, ErrNotFound):
		return codes.NotFound
	case errors.Is(err, ErrConflict):
		return codes.FailedPrecondition
	case errors.Is(err, ErrValidation):
		return codes.InvalidArgument
	case errors.Is(err, ErrUnauthorized):
		return codes.Unauthenticated
	case errors.Is(err, ErrForbidden):
		return codes.PermissionDenied
	default:
		return codes.Internal
	}
}
