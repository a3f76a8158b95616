package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"outreach_server/core/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	loginBaseURL = "https://login.microsoftonline.com"
	graphScope   = "https://graph.microsoft.com/.default"

	// refreshMargin refreshes tokens ahead of expiry so one never expires
	// mid-request to the Graph API.
	refreshMargin = 5 * time.Minute
)

// TokenCache acquires and caches the client-credentials bearer token for the
// single configured identity. The cache lives in process memory only and is
// rebuilt after restart. Refreshes are single-flighted under the mutex so
// concurrent fetches never trigger duplicate exchanges.
type TokenCache struct {
	conf *clientcredentials.Config

	mu    sync.Mutex
	token *oauth2.Token

	now func() time.Time // test hook
}

// NewTokenCache builds a cache for the given tenant's token endpoint.
func NewTokenCache(clientID, clientSecret, tenantID string) *TokenCache {
	return newTokenCache(clientID, clientSecret,
		fmt.Sprintf("%s/%s/oauth2/v2.0/token", loginBaseURL, tenantID))
}

func newTokenCache(clientID, clientSecret, tokenURL string) *TokenCache {
	return &TokenCache{
		conf: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{graphScope},
		},
		now: time.Now,
	}
}

// Token returns a valid access token, performing a client-credentials
// exchange when the cached one is missing or within the refresh margin.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != nil && c.now().Before(c.token.Expiry.Add(-refreshMargin)) {
		return c.token.AccessToken, nil
	}

	token, err := c.conf.Token(ctx)
	if err != nil {
		return "", &domain.AuthError{Reason: "client credentials exchange rejected", Err: err}
	}
	c.token = token
	return token.AccessToken, nil
}
