package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure so handlers can pick a response
type Kind int

// Failure kinds
const (
	KindAuth Kind = iota + 1
	KindForbidden
	KindValidation
	KindNotFound
	KindRule
	KindConflict
	KindUpstream
	KindStore
)

// Error is the error type returned by every workflow in this package
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind and code, so wrapped copies of a
// sentinel still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

var (
	ErrAuthRequired        = &Error{Kind: KindAuth, Code: "AUTH_REQUIRED", Message: "Please log in to continue"}
	ErrAdminRequired       = &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: "Admin access required"}
	ErrInvalidItem         = &Error{Kind: KindValidation, Code: "INVALID_ITEM", Message: "Item is missing a product or custom request id"}
	ErrSelectionIncomplete = &Error{Kind: KindValidation, Code: "SELECTION_INCOMPLETE", Message: "Please select a size and color"}
	ErrUniqueQuantity      = &Error{Kind: KindRule, Code: "UNIQUE_ITEM_QUANTITY", Message: "This is a unique item, quantity is fixed at 1"}
	ErrEmptyCart           = &Error{Kind: KindValidation, Code: "EMPTY_CART", Message: "Your cart is empty"}
	ErrProductReferenced   = &Error{Kind: KindRule, Code: "PRODUCT_REFERENCED", Message: "This product is part of an existing order. Consider marking it as unavailable."}
	ErrNotFound            = &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: "Resource not found"}
	ErrCartConflict        = &Error{Kind: KindConflict, Code: "CART_CONFLICT", Message: "Cart was modified elsewhere, please retry"}
	ErrInvalidTransition   = &Error{Kind: KindRule, Code: "INVALID_STATUS_TRANSITION", Message: "Status transition is not allowed"}
	ErrUnavailable         = &Error{Kind: KindRule, Code: "ITEM_UNAVAILABLE", Message: "This item is no longer available"}
)

// ValidationError reports a request refused before any store call
func ValidationError(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// NotFoundError reports a missing entity by name
func NotFoundError(entity string) *Error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: fmt.Sprintf("%s not found", entity)}
}

// StoreError wraps a persistence or storage failure, keeping the backend
// message so it can be shown to the user.
func StoreError(err error) *Error {
	return &Error{Kind: KindStore, Code: "STORE_ERROR", Message: err.Error(), Err: err}
}

// UpstreamError wraps a failure of a remote collaborator
func UpstreamError(code string, err error) *Error {
	return &Error{Kind: KindUpstream, Code: code, Message: err.Error(), Err: err}
}

// KindOf returns the kind of err, or KindStore for foreign errors
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindStore
}
