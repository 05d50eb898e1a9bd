package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"enrichsync/internal/config"
	"enrichsync/internal/constants"
	"enrichsync/pkg/metrics"
	"enrichsync/pkg/tracing"
)

const (
	pathAccessToken   = "/v1/oauth/access_token"
	pathAddURL        = "/v1/add-url-for-search"
	pathEmailsFromURL = "/v1/get-emails-from-url"
	pathDomainSearch  = "/v2/domain-emails-with-info"
	pathUserLists     = "/v1/get-user-lists"
	pathProspectList  = "/v1/prospect-list"

	maxResponseBytes = 4 << 20
)

// Transport error codes used when the failure never reached the provider.
const (
	CodeTimeout     = "ETIMEDOUT"
	CodeCanceled    = "ECANCELED"
	CodeConnRefused = "ECONNREFUSED"
	CodeConnReset   = "ECONNRESET"
	CodeDecode      = "EDECODE"
	CodeCircuitOpen = "ECIRCUITOPEN"
)

// HTTPClient talks to the Snov.io REST API. Each call is bounded by the
// configured timeout through both the http.Client and the request context.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

func NewHTTPClient(cfg config.ProviderConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultProviderTimeout
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = constants.DefaultProviderBaseURL
	}

	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout, Transport: tracing.HTTPTransport(nil)},
		timeout: timeout,
	}
}

func (c *HTTPClient) Authenticate(ctx context.Context, clientID, clientSecret string) Result[AccessToken] {
	return call[AccessToken](ctx, c, request{
		operation: "authenticate",
		method:    http.MethodPost,
		path:      pathAccessToken,
		payload:   map[string]string{"grant_type": "client_credentials", "client_id": clientID},
		body: authRequest{
			GrantType:    "client_credentials",
			ClientID:     clientID,
			ClientSecret: clientSecret,
		},
	})
}

func (c *HTTPClient) SubmitForEnrichment(ctx context.Context, token, lookupURL string) Result[AddURLResponse] {
	return call[AddURLResponse](ctx, c, request{
		operation: "submit",
		method:    http.MethodPost,
		path:      pathAddURL,
		payload:   LookupRequest{URL: lookupURL},
		body:      lookupRequestWithToken{URL: lookupURL, AccessToken: token},
	})
}

func (c *HTTPClient) FetchResult(ctx context.Context, token, lookupURL string) Result[ProspectByURLResponse] {
	return call[ProspectByURLResponse](ctx, c, request{
		operation: "fetch",
		method:    http.MethodPost,
		path:      pathEmailsFromURL,
		payload:   LookupRequest{URL: lookupURL},
		body:      lookupRequestWithToken{URL: lookupURL, AccessToken: token},
	})
}

func (c *HTTPClient) SearchDomain(ctx context.Context, token string, params DomainSearchParams) Result[DomainSearchResponse] {
	if params.Type == "" {
		params.Type = constants.DomainSearchType
	}
	if params.Limit <= 0 {
		params.Limit = constants.DomainSearchSize
	}

	query := url.Values{}
	query.Set("domain", params.Domain)
	query.Set("type", params.Type)
	query.Set("limit", strconv.Itoa(params.Limit))
	query.Set("lastId", strconv.Itoa(params.LastID))
	query.Set("access_token", token)

	return call[DomainSearchResponse](ctx, c, request{
		operation: "domain_search",
		method:    http.MethodGet,
		path:      pathDomainSearch,
		query:     query,
		payload:   params,
	})
}

func (c *HTTPClient) GetUserLists(ctx context.Context, token string) Result[[]UserList] {
	query := url.Values{}
	query.Set("access_token", token)

	return call[[]UserList](ctx, c, request{
		operation: "user_lists",
		method:    http.MethodGet,
		path:      pathUserLists,
		query:     query,
	})
}

func (c *HTTPClient) GetProspectList(ctx context.Context, token string, params ProspectListParams) Result[ProspectListResponse] {
	if params.PerPage <= 0 {
		params.PerPage = constants.ProspectPageSize
	}
	if params.Page <= 0 {
		params.Page = 1
	}

	return call[ProspectListResponse](ctx, c, request{
		operation: "prospect_list",
		method:    http.MethodPost,
		path:      pathProspectList,
		payload:   params,
		body:      prospectListRequest{ProspectListParams: params, AccessToken: token},
	})
}

type request struct {
	operation string
	method    string
	path      string
	query     url.Values
	// payload is what the Result records; body is what goes on the wire
	payload interface{}
	body    interface{}
}

func call[T any](ctx context.Context, c *HTTPClient, req request) Result[T] {
	endpoint := c.baseURL + req.path

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := tracing.GetTracer("enrichment-provider").Start(ctx, "provider."+req.operation)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", req.method),
		attribute.String("http.url", endpoint),
	)

	start := time.Now()
	var out T
	details := c.do(ctx, endpoint, req, &out)
	metrics.ObserveProviderRequest(req.operation, details == nil, time.Since(start))

	if details != nil {
		span.SetStatus(codes.Error, details.Message)
		if details.StatusCode != 0 {
			span.SetAttributes(attribute.Int("http.status_code", details.StatusCode))
		}
		return failed[T](endpoint, req.method, req.payload, *details)
	}

	return succeeded(endpoint, req.method, req.payload, &out)
}

func (c *HTTPClient) do(ctx context.Context, endpoint string, req request, out interface{}) *ErrorDetails {
	target := endpoint
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return &ErrorDetails{Message: fmt.Sprintf("failed to encode request: %v", err)}
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return &ErrorDetails{Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return transportFailure(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return transportFailure(err)
	}

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return apiFailure(resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &ErrorDetails{
			Message:    fmt.Sprintf("failed to decode response: %v", err),
			Code:       CodeDecode,
			StatusCode: resp.StatusCode,
		}
	}

	return nil
}

func transportFailure(err error) *ErrorDetails {
	details := &ErrorDetails{Message: err.Error()}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		details.Code = CodeTimeout
	case errors.Is(err, context.Canceled):
		details.Code = CodeCanceled
	case errors.As(err, &netErr) && netErr.Timeout():
		details.Code = CodeTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		details.Code = CodeConnRefused
	case errors.Is(err, syscall.ECONNRESET):
		details.Code = CodeConnReset
	}

	return details
}

// apiFailure prefers the provider's own message and code when the error
// body carries them.
func apiFailure(status int, raw []byte) *ErrorDetails {
	details := &ErrorDetails{
		Message:    fmt.Sprintf("Request failed with status code %d", status),
		Code:       fmt.Sprintf("HTTP_%d", status),
		StatusCode: status,
	}

	var body struct {
		Message          string      `json:"message"`
		Error            interface{} `json:"error"`
		ErrorDescription string      `json:"error_description"`
		Code             interface{} `json:"code"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return details
	}

	switch {
	case body.Message != "":
		details.Message = body.Message
	case body.ErrorDescription != "":
		details.Message = body.ErrorDescription
	}
	if s, ok := body.Error.(string); ok && s != "" {
		if body.Message == "" && body.ErrorDescription == "" {
			details.Message = s
		}
		details.Code = s
	}
	if body.Code != nil {
		details.Code = fmt.Sprint(body.Code)
	}

	return details
}
