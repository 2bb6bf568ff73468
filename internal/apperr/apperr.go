// Package apperr defines the error kinds surfaced at the request boundary.
package apperr

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies an error for HTTP translation.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindValidation        Kind = "validation"
	KindInsufficientStock Kind = "insufficient_stock"
	KindDuplicateBarcode  Kind = "duplicate_barcode"
	KindConflict          Kind = "conflict"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindInternal          Kind = "internal"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the typed application error.
type Error struct {
	Kind    Kind
	Message string
	// Available is set for KindInsufficientStock.
	Available *int
	Fields    []FieldError

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil && e.Kind == KindInternal {
		return e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Stack renders the captured stack trace.
func (e *Error) Stack() string {
	if e.cause == nil {
		return ""
	}
	return fmt.Sprintf("%+v", e.cause)
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, cause: errors.New(msg)}
}

func NotFound(resource string) *Error {
	return newError(KindNotFound, resource+" not found")
}

func Validation(msg string, fields ...FieldError) *Error {
	e := newError(KindValidation, msg)
	e.Fields = fields
	return e
}

func InsufficientStock(available int) *Error {
	e := newError(KindInsufficientStock, fmt.Sprintf("Insufficient stock! Available: %d", available))
	e.Available = &available
	return e
}

func DuplicateBarcode(barcode string) *Error {
	return newError(KindDuplicateBarcode, fmt.Sprintf("Product with barcode %q already exists", barcode))
}

func Conflict(msg string) *Error {
	return newError(KindConflict, msg)
}

func Unauthorized(msg string) *Error {
	return newError(KindUnauthorized, msg)
}

func Forbidden(msg string) *Error {
	return newError(KindForbidden, msg)
}

// Internal wraps an unexpected failure, keeping the stack of the wrap site.
func Internal(err error, msg string) *Error {
	return &Error{Kind: KindInternal, Message: msg, cause: errors.Wrap(err, msg)}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindInternal for untyped errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to its response code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindInsufficientStock, KindDuplicateBarcode:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
