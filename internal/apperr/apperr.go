// Package apperr holds the error kinds shared by the cart, checkout and order packages.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation       Kind = "VALIDATION_ERROR"
	KindNotFound         Kind = "NOT_FOUND"
	KindUnavailable      Kind = "UNAVAILABLE"
	KindUnavailableItems Kind = "UNAVAILABLE_ITEMS"
	KindEmptyCart        Kind = "EMPTY_CART"
	KindForbidden        Kind = "FORBIDDEN"
	KindUnauthorized     Kind = "UNAUTHORIZED"
	KindStorage          Kind = "STORAGE_ERROR"
	KindInternal         Kind = "INTERNAL_ERROR"
)

// ErrConflict is wrapped by storage errors caused by a stale cart version or order status.
var ErrConflict = errors.New("concurrent modification")

// Error is the typed error returned across package boundaries.
type Error struct {
	Kind    Kind
	Message string
	// ProductIDs lists the offending products for KindUnavailableItems.
	ProductIDs []string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Unavailable(productID string) *Error {
	return &Error{Kind: KindUnavailable, Message: "product is not available", ProductIDs: []string{productID}}
}

func UnavailableItems(productIDs []string) *Error {
	ids := make([]string, len(productIDs))
	copy(ids, productIDs)
	return &Error{Kind: KindUnavailableItems, Message: "some items in cart are no longer available", ProductIDs: ids}
}

func EmptyCart() *Error {
	return &Error{Kind: KindEmptyCart, Message: "cart is empty"}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Message: "unauthorized"}
}

// Storage wraps a persistence failure. A nil err yields nil so callers can write
// `return apperr.Storage("...", err)` after any storage call.
func Storage(msg string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}

// KindOf reports the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// ProductIDsOf returns the product ids attached to err, if any.
func ProductIDsOf(err error) []string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.ProductIDs
	}
	return nil
}

// HTTPStatus maps an error kind to the response status code.
func HTTPStatus(k Kind) int {
	switch k {
	case KindValidation, KindUnavailable, KindUnavailableItems, KindEmptyCart:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
