package provider

import (
	"context"
	"errors"
	"fmt"

	"enrichsync/internal/config"
	"enrichsync/pkg/circuitbreaker"
)

var errCallFailed = errors.New("provider call failed")

// CircuitBreakerClient short-circuits provider calls while the provider is
// failing. An open breaker surfaces as a transport failure with
// CodeCircuitOpen so callers take their normal transient-error path.
type CircuitBreakerClient struct {
	next Client
	cb   *circuitbreaker.Breaker
	name string
}

func NewCircuitBreakerClient(next Client, name string, cfg circuitbreaker.Config) *CircuitBreakerClient {
	return &CircuitBreakerClient{
		next: next,
		cb:   circuitbreaker.New(cfg),
		name: name,
	}
}

func (c *CircuitBreakerClient) Authenticate(ctx context.Context, clientID, clientSecret string) Result[AccessToken] {
	return guarded(ctx, c, pathAccessToken, func() Result[AccessToken] {
		return c.next.Authenticate(ctx, clientID, clientSecret)
	})
}

func (c *CircuitBreakerClient) SubmitForEnrichment(ctx context.Context, token, lookupURL string) Result[AddURLResponse] {
	return guarded(ctx, c, pathAddURL, func() Result[AddURLResponse] {
		return c.next.SubmitForEnrichment(ctx, token, lookupURL)
	})
}

func (c *CircuitBreakerClient) FetchResult(ctx context.Context, token, lookupURL string) Result[ProspectByURLResponse] {
	return guarded(ctx, c, pathEmailsFromURL, func() Result[ProspectByURLResponse] {
		return c.next.FetchResult(ctx, token, lookupURL)
	})
}

func (c *CircuitBreakerClient) SearchDomain(ctx context.Context, token string, params DomainSearchParams) Result[DomainSearchResponse] {
	return guarded(ctx, c, pathDomainSearch, func() Result[DomainSearchResponse] {
		return c.next.SearchDomain(ctx, token, params)
	})
}

func (c *CircuitBreakerClient) GetUserLists(ctx context.Context, token string) Result[[]UserList] {
	return guarded(ctx, c, pathUserLists, func() Result[[]UserList] {
		return c.next.GetUserLists(ctx, token)
	})
}

func (c *CircuitBreakerClient) GetProspectList(ctx context.Context, token string, params ProspectListParams) Result[ProspectListResponse] {
	return guarded(ctx, c, pathProspectList, func() Result[ProspectListResponse] {
		return c.next.GetProspectList(ctx, token, params)
	})
}

func guarded[T any](ctx context.Context, c *CircuitBreakerClient, path string, fn func() Result[T]) Result[T] {
	out, err := c.cb.Run(ctx, func() (interface{}, error) {
		result := fn()
		if tripsBreaker(result) {
			return result, errCallFailed
		}
		return result, nil
	})

	if result, ok := out.(Result[T]); ok {
		return result
	}

	details := ErrorDetails{Message: fmt.Sprintf("provider call to %s not attempted: %v", path, err)}
	if circuitbreaker.IsRejection(err) {
		details.Message = fmt.Sprintf("circuit breaker is open for %s", c.name)
		details.Code = CodeCircuitOpen
	} else if ctx.Err() != nil {
		details.Code = CodeCanceled
	}
	return failed[T](path, "", nil, details)
}

// tripsBreaker counts transport failures and 5xx answers against the
// provider; refused credentials and other 4xx answers are the caller's fault.
func tripsBreaker[T any](r Result[T]) bool {
	if r.Success {
		return false
	}
	status := r.Details().StatusCode
	return status == 0 || status >= 500
}

// WrapWithCircuitBreaker guards c with a breaker built from cfg, or returns c
// untouched when breaking is disabled.
func WrapWithCircuitBreaker(c Client, name string, cfg config.CircuitBreakerConfig) Client {
	if !cfg.Enabled {
		return c
	}
	return NewCircuitBreakerClient(c, name, circuitbreaker.FromConfig(name, cfg))
}
