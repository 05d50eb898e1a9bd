package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       *Error
		retryable bool
		fatal     bool
	}{
		{name: "provider errors retry", err: ErrProvider, retryable: true, fatal: false},
		{name: "validation is fatal", err: ErrValidation, retryable: false, fatal: true},
		{name: "malformed message is fatal", err: ErrMalformedMessage, retryable: false, fatal: true},
		{name: "explicit fatal wins", err: ErrProvider.AsFatal(), retryable: false, fatal: true},
		{name: "explicit retryable wins", err: ErrValidation.AsRetryable(), retryable: true, fatal: false},
		{name: "unsupported is fatal", err: ErrUnsupported, retryable: false, fatal: true},
		{name: "cause classification wins over code", err: ErrValidation.WithCause(ErrProvider), retryable: true, fatal: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.err.IsRetryable())
			assert.Equal(t, tt.fatal, tt.err.IsFatal())
		})
	}
}

func TestCodeOfWrapped(t *testing.T) {
	err := fmt.Errorf("submit: %w", ErrUnauthorized.WithCause(stderrors.New("401")))

	assert.Equal(t, "UNAUTHORIZED", CodeOf(err))
	assert.True(t, IsUnauthorized(err))
	assert.False(t, IsProvider(err))
	assert.Equal(t, "", CodeOf(stderrors.New("plain")))
}

func TestToErrorResponse(t *testing.T) {
	err := ErrUnsupported.WithDetail("message", "Unsupported object type 'foo'.")

	assert.Equal(t, http.StatusBadRequest, ToHTTPStatus(err))
	resp := ToErrorResponse(err)
	assert.Equal(t, "UNSUPPORTED", resp.ErrorCode)
	assert.Equal(t, "unsupported operation", resp.Error)
	assert.Equal(t, "Unsupported object type 'foo'.", resp.Details["message"])
	assert.Contains(t, err.Error(), "Unsupported object type 'foo'.")

	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(stderrors.New("boom")))
	assert.Equal(t, "INTERNAL_ERROR", ToErrorResponse(stderrors.New("boom")).ErrorCode)
}

func TestRecoverPanic(t *testing.T) {
	assert.NoError(t, RecoverPanic(nil))

	err := RecoverPanic("nil map write")
	require.Error(t, err)

	var appErr *Error
	require.True(t, stderrors.As(err, &appErr))
	assert.True(t, appErr.IsFatal())
	assert.Equal(t, true, appErr.Details["panic"])
	assert.Contains(t, err.Error(), "nil map write")

	cause := fmt.Errorf("bad")
	assert.ErrorIs(t, RecoverPanic(cause), cause)
}

func TestWithDetail_DoesNotMutateSentinel(t *testing.T) {
	err := ErrValidation.WithDetail("message", "bad input")

	assert.Equal(t, "bad input", err.Details["message"])
	assert.NotContains(t, ErrValidation.Details, "message")
}
