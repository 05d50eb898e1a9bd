package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"enrichsync/internal/config"
	"enrichsync/internal/constants"
	"enrichsync/internal/install"
	"enrichsync/internal/logger"
	apperrors "enrichsync/pkg/errors"
	"enrichsync/pkg/logging"
	"enrichsync/pkg/metrics"
	"enrichsync/pkg/retry"
	"enrichsync/pkg/tracing"
)

// Client writes to the CRM on behalf of one install.
type Client interface {
	WriteUserAttributes(ctx context.Context, identity UserIdentity, attrs AttributeWriteSet) error
	WriteAccountAttributes(ctx context.Context, identity AccountIdentity, attrs AttributeWriteSet) error
	PutStatus(ctx context.Context, status ConnectorStatus) error
}

// Factory binds a Client to install credentials. Workers get the credentials
// from the queued job, the connector from the request headers.
type Factory interface {
	ForInstall(auth install.Auth) Client
}

type HTTPFactory struct {
	scheme string
	client *http.Client
	policy retry.Policy
	logger logger.Logger
}

func NewHTTPFactory(cfg config.CRMConfig, log logger.Logger) *HTTPFactory {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultCRMTimeout
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}

	policy := retry.DefaultPolicy().WithConfig(cfg.Retry)

	return &HTTPFactory{
		scheme: scheme,
		client: &http.Client{Timeout: timeout, Transport: tracing.HTTPTransport(nil)},
		policy: policy,
		logger: log,
	}
}

func (f *HTTPFactory) ForInstall(auth install.Auth) Client {
	return &HTTPClient{
		baseURL: fmt.Sprintf("%s://%s", f.scheme, auth.Organization),
		auth:    auth,
		client:  f.client,
		policy:  f.policy,
		logger:  f.logger,
	}
}

type HTTPClient struct {
	baseURL string
	auth    install.Auth
	client  *http.Client
	policy  retry.Policy
	logger  logger.Logger
}

type traitsRequest struct {
	Identity   interface{}       `json:"identity"`
	Attributes AttributeWriteSet `json:"attributes"`
}

func (c *HTTPClient) WriteUserAttributes(ctx context.Context, identity UserIdentity, attrs AttributeWriteSet) (err error) {
	defer func() { metrics.IncCRMWrite(constants.ObjectTypeUser, err) }()

	if identity.Empty() {
		return apperrors.ErrValidation.WithDetail("message", "user identity is empty")
	}
	return c.send(ctx, http.MethodPost, "/api/v1/users/traits", traitsRequest{Identity: identity, Attributes: attrs})
}

func (c *HTTPClient) WriteAccountAttributes(ctx context.Context, identity AccountIdentity, attrs AttributeWriteSet) (err error) {
	defer func() { metrics.IncCRMWrite(constants.ObjectTypeAccount, err) }()

	if identity.ID == "" && identity.Domain == "" && identity.ExternalID == "" {
		return apperrors.ErrValidation.WithDetail("message", "account identity is empty")
	}
	return c.send(ctx, http.MethodPost, "/api/v1/accounts/traits", traitsRequest{Identity: identity, Attributes: attrs})
}

func (c *HTTPClient) PutStatus(ctx context.Context, status ConnectorStatus) error {
	return c.send(ctx, http.MethodPut, "/api/v1/"+url.PathEscape(c.auth.ID)+"/status", status)
}

// send retries transport failures and 5xx answers; 4xx answers are final.
func (c *HTTPClient) send(ctx context.Context, method, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode crm request: %w", err)
	}

	return retry.RetryWithCallback(ctx, c.policy, func() error {
		return c.do(ctx, method, path, body)
	}, func(attempt int, err error, nextDelay time.Duration) {
		metrics.RetryAttemptsTotal.WithLabelValues("crm", path).Inc()
		c.logger.WarnwCtx(ctx, "Retrying CRM request",
			"attempt", attempt,
			"max_attempts", c.policy.MaxAttempts,
			"next_delay", nextDelay,
			"path", path,
			"error", err,
		)
	})
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return retry.NewFatalError(fmt.Errorf("failed to create crm request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.HeaderInstallID, c.auth.ID)
	req.Header.Set(constants.HeaderInstallSecret, c.auth.Secret)
	req.Header.Set(constants.HeaderOrganization, c.auth.Organization)
	if key := logging.GetCorrelationKey(ctx); key != "" {
		req.Header.Set(constants.HeaderCorrelationID, key)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return retry.NewFatalError(fmt.Errorf("crm request aborted: %w", err))
		}
		return fmt.Errorf("crm request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode >= constants.HTTPStatusOKMin && resp.StatusCode < constants.HTTPStatusOKMax {
		return nil
	}

	statusErr := fmt.Errorf("crm %s %s returned status %d", method, path, resp.StatusCode)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.ErrUnauthorized.WithCause(statusErr).AsFatal()
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return apperrors.ErrServiceUnavailable.WithCause(statusErr).AsRetryable()
	default:
		return apperrors.ErrValidation.WithCause(statusErr).AsFatal()
	}
}
