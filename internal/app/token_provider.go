package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/transfa/paypal-dashboard/pkg/paypalclient"
)

// tokenExpiryMargin is subtracted from the provider-reported lifetime before caching,
// so a cached token is never handed out close to its expiry.
const tokenExpiryMargin = 60 * time.Second

// TokenFetcher performs the client-credentials exchange.
type TokenFetcher interface {
	FetchToken(ctx context.Context) (*paypalclient.Token, error)
}

// TokenCache stores access tokens until shortly before they expire.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, token string, ttl time.Duration) error
}

// TokenProvider hands out PayPal access tokens. Without a cache every call performs
// exactly one token exchange.
type TokenProvider struct {
	fetcher  TokenFetcher
	cache    TokenCache
	cacheKey string
	logger   *zap.Logger
}

// NewTokenProvider creates an uncached TokenProvider.
func NewTokenProvider(fetcher TokenFetcher, logger *zap.Logger) *TokenProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenProvider{
		fetcher: fetcher,
		logger:  logger.With(zap.String("component", "token_provider")),
	}
}

// SetCache enables caching under the given key.
func (p *TokenProvider) SetCache(cache TokenCache, key string) {
	p.cache = cache
	p.cacheKey = key
}

// AccessToken returns a token valid at call time. Cache failures degrade to a fresh fetch.
func (p *TokenProvider) AccessToken(ctx context.Context) (string, error) {
	if p.cache != nil {
		token, ok, err := p.cache.Get(ctx, p.cacheKey)
		if err != nil {
			p.logger.Warn("token cache read failed; fetching fresh token", zap.Error(err))
		} else if ok && token != "" {
			return token, nil
		}
	}

	token, err := p.fetcher.FetchToken(ctx)
	if err != nil {
		return "", err
	}

	if p.cache != nil {
		if ttl := token.TTL() - tokenExpiryMargin; ttl > 0 {
			if err := p.cache.Set(ctx, p.cacheKey, token.AccessToken, ttl); err != nil {
				p.logger.Warn("token cache write failed", zap.Error(err))
			}
		}
	}

	return token.AccessToken, nil
}
