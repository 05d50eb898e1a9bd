package provider

import "net/http"

// ErrorDetails describes a transport or API failure. Code is the provider or
// transport error code when one is known.
type ErrorDetails struct {
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// Result is the uniform envelope of every provider call. Success is false
// only for transport or API failures; a well-formed negative answer from the
// provider is Success=true with the negative carried in Data.
type Result[T any] struct {
	Endpoint     string        `json:"endpoint"`
	Method       string        `json:"method"`
	Payload      interface{}   `json:"payload,omitempty"`
	Success      bool          `json:"success"`
	Data         *T            `json:"data,omitempty"`
	Error        string        `json:"error,omitempty"`
	ErrorDetails *ErrorDetails `json:"error_details,omitempty"`
}

// IsAuthFailure reports whether the provider refused the credentials or token.
func (r Result[T]) IsAuthFailure() bool {
	if r.Success || r.ErrorDetails == nil {
		return false
	}
	return r.ErrorDetails.StatusCode == http.StatusUnauthorized || r.ErrorDetails.StatusCode == http.StatusForbidden
}

// Details never returns nil for a failed result.
func (r Result[T]) Details() ErrorDetails {
	if r.ErrorDetails != nil {
		return *r.ErrorDetails
	}
	return ErrorDetails{Message: r.Error}
}

func failed[T any](endpoint, method string, payload interface{}, details ErrorDetails) Result[T] {
	return Result[T]{
		Endpoint:     endpoint,
		Method:       method,
		Payload:      payload,
		Success:      false,
		Error:        details.Message,
		ErrorDetails: &details,
	}
}

func succeeded[T any](endpoint, method string, payload interface{}, data *T) Result[T] {
	return Result[T]{
		Endpoint: endpoint,
		Method:   method,
		Payload:  payload,
		Success:  true,
		Data:     data,
	}
}
