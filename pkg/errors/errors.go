package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	// Checkout failures. Messages on these codes are safe to show the shopper verbatim.
	CodeInvalidAddress        Code = "INVALID_ADDRESS"
	CodeInvalidShippingMethod Code = "INVALID_SHIPPING_METHOD"
	CodeEmptyCart             Code = "EMPTY_CART"
	CodeGuestCheckoutDisabled Code = "GUEST_CHECKOUT_DISABLED"
	CodeProductNotFound       Code = "PRODUCT_NOT_FOUND"
	CodeInsufficientStock     Code = "INSUFFICIENT_STOCK"
	CodePaymentSessionFailed  Code = "PAYMENT_SESSION_CREATION_FAILED"
	CodeUnexpected            Code = "UNEXPECTED_ERROR"
)

// Metadata drives the HTTP rendering of a code. Only codes with DetailsAllowed
// ever leak Details to the client.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:    {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", DetailsAllowed: true},
	CodeUnauthorized:  {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required"},
	CodeForbidden:     {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied"},
	CodeNotFound:      {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found"},
	CodeConflict:      {HTTPStatus: http.StatusConflict, PublicMessage: "conflict detected"},
	CodeStateConflict: {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "state transition disallowed", DetailsAllowed: true},
	CodeIdempotency:   {HTTPStatus: http.StatusConflict, PublicMessage: "idempotency key reused", DetailsAllowed: true},
	CodeRateLimit:     {HTTPStatus: http.StatusTooManyRequests, PublicMessage: "rate limit exceeded"},
	CodeInternal:      {HTTPStatus: http.StatusInternalServerError, Retryable: true, PublicMessage: "internal server error"},
	CodeDependency:    {HTTPStatus: http.StatusServiceUnavailable, Retryable: true, PublicMessage: "dependency unavailable", DetailsAllowed: true},

	CodeInvalidAddress:        {HTTPStatus: http.StatusBadRequest, PublicMessage: "invalid address", DetailsAllowed: true},
	CodeInvalidShippingMethod: {HTTPStatus: http.StatusBadRequest, PublicMessage: "invalid shipping method"},
	CodeEmptyCart:             {HTTPStatus: http.StatusConflict, PublicMessage: "cart is empty"},
	CodeGuestCheckoutDisabled: {HTTPStatus: http.StatusForbidden, PublicMessage: "guest checkout is disabled"},
	CodeProductNotFound:       {HTTPStatus: http.StatusConflict, PublicMessage: "product not available", DetailsAllowed: true},
	CodeInsufficientStock:     {HTTPStatus: http.StatusConflict, PublicMessage: "insufficient stock", DetailsAllowed: true},
	CodePaymentSessionFailed:  {HTTPStatus: http.StatusBadGateway, Retryable: true, PublicMessage: "payment session could not be created"},
	CodeUnexpected:            {HTTPStatus: http.StatusInternalServerError, Retryable: true, PublicMessage: "an unexpected error occurred during checkout"},
}

// IsBusiness reports whether the code is a shopper-correctable checkout failure.
func IsBusiness(code Code) bool {
	switch code {
	case CodeInvalidAddress,
		CodeInvalidShippingMethod,
		CodeEmptyCart,
		CodeGuestCheckoutDisabled,
		CodeProductNotFound,
		CodeInsufficientStock,
		CodePaymentSessionFailed:
		return true
	}
	return false
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
