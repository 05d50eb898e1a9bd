package enrichment

import (
	"context"
	"time"

	"enrichsync/internal/enrichment/provider"
	"enrichsync/internal/install"
	"enrichsync/internal/logger"
	"enrichsync/internal/tokencache"
)

// TokenStore is the access token cache.
type TokenStore interface {
	Get(ctx context.Context, installID string) (string, bool, error)
	Set(ctx context.Context, installID, token string, ttl time.Duration) error
	Invalidate(ctx context.Context, installID string) error
}

var _ TokenStore = (*tokencache.Cache)(nil)

// TokenResolver hands out a bearer token per install, authenticating only
// when the cache has none.
type TokenResolver struct {
	store  TokenStore
	client provider.Client
	logger logger.Logger
}

func NewTokenResolver(store TokenStore, client provider.Client, log logger.Logger) *TokenResolver {
	return &TokenResolver{store: store, client: client, logger: log}
}

func (r *TokenResolver) Resolve(ctx context.Context, installID string, settings install.PrivateSettings) (string, error) {
	token, found, err := r.store.Get(ctx, installID)
	if err != nil {
		r.logger.WarnwCtx(ctx, "Token cache unavailable, authenticating",
			"error", err,
		)
	}
	if found {
		return token, nil
	}

	res := r.client.Authenticate(ctx, settings.ClientID, settings.ClientSecret)
	if !res.Success || res.Data == nil || res.Data.AccessToken == "" {
		details := res.Details()
		r.logger.ErrorwCtx(ctx, "Failed to authenticate with enrichment provider",
			"error", details.Message,
			"code", details.Code,
			"status_code", details.StatusCode,
		)
		return "", authenticationError(details)
	}

	ttl := tokencache.TTLFor(res.Data.ExpiresIn)
	if err := r.store.Set(ctx, installID, res.Data.AccessToken, ttl); err != nil {
		r.logger.WarnwCtx(ctx, "Failed to cache access token",
			"error", err,
		)
	}

	r.logger.DebugwCtx(ctx, "Obtained new access token",
		"ttl", ttl,
	)
	return res.Data.AccessToken, nil
}

// Invalidate drops the cached token after the provider rejected it.
func (r *TokenResolver) Invalidate(ctx context.Context, installID string) {
	if err := r.store.Invalidate(ctx, installID); err != nil {
		r.logger.WarnwCtx(ctx, "Failed to invalidate access token",
			"error", err,
		)
	}
}
