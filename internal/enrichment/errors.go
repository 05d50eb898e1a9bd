package enrichment

import (
	"errors"
	"fmt"

	"enrichsync/internal/enrichment/provider"
	apperrors "enrichsync/pkg/errors"
)

// ErrAuthentication is matched by every error returned when no access token
// could be obtained.
var ErrAuthentication = errors.New("couldn't retrieve access_token")

// AuthenticationError keeps the provider's answer to a failed token request.
type AuthenticationError struct {
	Details provider.ErrorDetails
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAuthentication, describeFailure(e.Details))
}

func (e *AuthenticationError) Unwrap() error {
	return ErrAuthentication
}

func authenticationError(details provider.ErrorDetails) error {
	return apperrors.ErrProvider.
		WithCause(&AuthenticationError{Details: details}).
		WithDetail("message", ErrAuthentication.Error())
}

// failureDetails extracts the provider failure carried by err, if any.
func failureDetails(err error) provider.ErrorDetails {
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return authErr.Details
	}
	return provider.ErrorDetails{Message: err.Error()}
}

// describeFailure renders a transport or API failure the way it is stored
// in the CRM.
func describeFailure(details provider.ErrorDetails) string {
	code := details.Code
	if code == "" {
		code = "n/a"
	}
	return fmt.Sprintf("%s (code: %s)", details.Message, code)
}
