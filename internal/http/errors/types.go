// Package errors define el envelope de error OAuth 2.0 del endpoint
// ({"error": ..., "error_description": ...}, RFC 6749 §5.2).
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError define la estructura estándar para errores HTTP del servicio.
type AppError struct {
	Code        string // código OAuth (invalid_request, invalid_client, ...)
	Description string
	HTTPStatus  int
	Err         error // causa, sólo para logs

	// Header extra a escribir (WWW-Authenticate, Retry-After).
	Headers map[string]string
}

// Error implementa la interfaz error
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Description, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Description)
}

// Unwrap permite acceder al error original
func (e *AppError) Unwrap() error {
	return e.Err
}

// New crea un nuevo AppError
func New(status int, code, description string) *AppError {
	return &AppError{Code: code, Description: description, HTTPStatus: status}
}

// FromError convierte un error genérico en AppError.
// Si no es un AppError devuelve server_error conservando la causa.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrServerError.WithCause(err)
}

// WithDescription devuelve una COPIA con otra descripción.
func (e *AppError) WithDescription(desc string) *AppError {
	newErr := *e
	newErr.Description = desc
	return &newErr
}

// WithCause devuelve una COPIA con la causa.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// WithHeader devuelve una COPIA que además escribe el header k.
func (e *AppError) WithHeader(k, v string) *AppError {
	newErr := *e
	newErr.Headers = make(map[string]string, len(e.Headers)+1)
	for hk, hv := range e.Headers {
		newErr.Headers[hk] = hv
	}
	newErr.Headers[k] = v
	return &newErr
}

var (
	ErrInvalidRequest = &AppError{
		Code:        "invalid_request",
		Description: "missing required parameter 'token'",
		HTTPStatus:  http.StatusBadRequest,
	}

	ErrInvalidClient = &AppError{
		Code:        "invalid_client",
		Description: "client authentication failed",
		HTTPStatus:  http.StatusUnauthorized,
	}

	ErrMethodNotAllowed = &AppError{
		Code:        "invalid_request",
		Description: "method not allowed",
		HTTPStatus:  http.StatusMethodNotAllowed,
	}

	ErrTooManyRequests = &AppError{
		Code:        "too_many_requests",
		Description: "rate limit exceeded",
		HTTPStatus:  http.StatusTooManyRequests,
	}

	ErrServerError = &AppError{
		Code:        "server_error",
		Description: "an unexpected error occurred",
		HTTPStatus:  http.StatusInternalServerError,
	}

	ErrNotFound = &AppError{
		Code:        "not_found",
		Description: "resource not found",
		HTTPStatus:  http.StatusNotFound,
	}
)
