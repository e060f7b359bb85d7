// Package errors defines the application error carried from use cases to
// handlers. Each AppError knows the HTTP status it maps to.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation         ErrorType = "validation_error"
	ErrorTypeNotFound           ErrorType = "not_found"
	ErrorTypeConflict           ErrorType = "conflict"
	ErrorTypeUnauthorized       ErrorType = "unauthorized"
	ErrorTypeInternal           ErrorType = "internal_error"
	ErrorTypeInvalidReference   ErrorType = "invalid_reference"
	ErrorTypePolicyViolation    ErrorType = "policy_violation"
	ErrorTypePaymentRequired    ErrorType = "payment_required"
	ErrorTypeServiceUnavailable ErrorType = "service_unavailable"
)

var statusByType = map[ErrorType]int{
	ErrorTypeValidation:         http.StatusBadRequest,
	ErrorTypeInvalidReference:   http.StatusBadRequest,
	ErrorTypeUnauthorized:       http.StatusUnauthorized,
	ErrorTypePaymentRequired:    http.StatusPaymentRequired,
	ErrorTypeNotFound:           http.StatusNotFound,
	ErrorTypeConflict:           http.StatusConflict,
	ErrorTypePolicyViolation:    http.StatusConflict,
	ErrorTypeInternal:           http.StatusInternalServerError,
	ErrorTypeServiceUnavailable: http.StatusServiceUnavailable,
}

type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
}

// New builds an AppError of the given type. Only the first detail is kept.
func New(errType ErrorType, message string, details ...string) *AppError {
	code, ok := statusByType[errType]
	if !ok {
		code = http.StatusInternalServerError
	}
	e := &AppError{Type: errType, Message: message, Code: code}
	if len(details) > 0 {
		e.Details = details[0]
	}
	return e
}

func NewValidationError(message string, details ...string) *AppError {
	return New(ErrorTypeValidation, message, details...)
}

func NewNotFoundError(message string, details ...string) *AppError {
	return New(ErrorTypeNotFound, message, details...)
}

// NewConflictError signals a concurrent operation on the same resource.
func NewConflictError(message string, details ...string) *AppError {
	return New(ErrorTypeConflict, message, details...)
}

func NewUnauthorizedError(message string, details ...string) *AppError {
	return New(ErrorTypeUnauthorized, message, details...)
}

func NewInternalError(message string, details ...string) *AppError {
	return New(ErrorTypeInternal, message, details...)
}

// NewInvalidReferenceError marks a payment whose correlation token cannot be parsed.
func NewInvalidReferenceError(message string, details ...string) *AppError {
	return New(ErrorTypeInvalidReference, message, details...)
}

// NewPolicyViolationError marks a lifecycle action that the current
// subscription state does not allow.
func NewPolicyViolationError(message string, details ...string) *AppError {
	return New(ErrorTypePolicyViolation, message, details...)
}

func NewPaymentRequiredError(message string, details ...string) *AppError {
	return New(ErrorTypePaymentRequired, message, details...)
}

// NewServiceUnavailableError marks an upstream that is failing fast.
func NewServiceUnavailableError(message string, details ...string) *AppError {
	return New(ErrorTypeServiceUnavailable, message, details...)
}

// GetAppError returns the AppError in err's chain, or nil.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType reports whether err's chain holds an AppError of type t.
func IsType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

func IsConflictError(err error) bool   { return IsType(err, ErrorTypeConflict) }
func IsNotFoundError(err error) bool   { return IsType(err, ErrorTypeNotFound) }
func IsValidationError(err error) bool { return IsType(err, ErrorTypeValidation) }

// duplicateMarkers are the unique-violation messages of the supported drivers.
var duplicateMarkers = []string{
	"Duplicate entry",          // mysql
	"duplicate key",            // postgres
	"unique constraint",        // postgres
	"UNIQUE constraint failed", // sqlite
}

// IsDuplicateError reports whether err is a unique key violation.
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range duplicateMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
