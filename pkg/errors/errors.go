package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound           = NewError("NOT_FOUND", "resource not found", http.StatusNotFound)
	ErrValidation         = NewError("VALIDATION_ERROR", "validation failed", http.StatusBadRequest)
	ErrInternal           = NewError("INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
	ErrUnauthorized       = NewError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized)
	ErrServiceUnavailable = NewError("SERVICE_UNAVAILABLE", "service unavailable", http.StatusServiceUnavailable)
	ErrProvider           = NewError("PROVIDER_ERROR", "enrichment provider call failed", http.StatusBadGateway)
	ErrMalformedMessage   = NewError("MALFORMED_MESSAGE", "queue message could not be decoded", http.StatusUnprocessableEntity)
	ErrUnsupported        = NewError("UNSUPPORTED", "unsupported operation", http.StatusBadRequest)
)

// Codes that never succeed on a second attempt.
var fatalCodes = map[string]bool{
	ErrValidation.Code:       true,
	ErrNotFound.Code:         true,
	ErrMalformedMessage.Code: true,
	ErrUnsupported.Code:      true,
}

type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]interface{}
	Cause   error

	// nil means classify by Cause, then by Code
	retryable *bool
}

func NewError(code, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  status,
		Details: make(map[string]interface{}),
	}
}

// Error prefers the "message" detail over the generic message.
func (e *Error) Error() string {
	msg := e.Message
	if detail, ok := e.Details["message"].(string); ok && detail != "" {
		msg = detail
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) IsRetryable() bool {
	return !e.IsFatal()
}

func (e *Error) IsFatal() bool {
	if e.retryable != nil {
		return !*e.retryable
	}

	var classified interface{ IsFatal() bool }
	if e.Cause != nil && errors.As(e.Cause, &classified) {
		return classified.IsFatal()
	}
	var retryable interface{ IsRetryable() bool }
	if e.Cause != nil && errors.As(e.Cause, &retryable) {
		return !retryable.IsRetryable()
	}

	return fatalCodes[e.Code]
}

func (e *Error) clone() *Error {
	err := *e
	err.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		err.Details[k] = v
	}
	return &err
}

func (e *Error) WithCause(cause error) *Error {
	err := e.clone()
	err.Cause = cause
	return err
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	err := e.clone()
	err.Details[key] = value
	return err
}

func (e *Error) AsRetryable() *Error {
	return e.withRetryable(true)
}

func (e *Error) AsFatal() *Error {
	return e.withRetryable(false)
}

func (e *Error) withRetryable(retryable bool) *Error {
	err := e.clone()
	err.retryable = &retryable
	return err
}

// CodeOf returns the application error code carried by err, or "" when err
// is not one of ours.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func IsNotFound(err error) bool {
	return CodeOf(err) == ErrNotFound.Code
}

func IsValidation(err error) bool {
	return CodeOf(err) == ErrValidation.Code
}

func IsUnauthorized(err error) bool {
	return CodeOf(err) == ErrUnauthorized.Code
}

func IsProvider(err error) bool {
	return CodeOf(err) == ErrProvider.Code
}

func ToHTTPStatus(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

type ErrorResponse struct {
	Error     string                 `json:"error"`
	ErrorCode string                 `json:"error_code"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// ToErrorResponse renders err for an HTTP body. Errors that are not ours
// become internal errors.
func ToErrorResponse(err error) ErrorResponse {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = ErrInternal.WithCause(err)
	}

	resp := ErrorResponse{Error: appErr.Message, ErrorCode: appErr.Code}
	if len(appErr.Details) > 0 {
		resp.Details = appErr.Details
	}
	return resp
}
