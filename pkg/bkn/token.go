package bkn

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2/clientcredentials"

	rdb "simpeg-sync/pkg/db/redis"
	"simpeg-sync/pkg/syncErrors"
)

const tokenCacheKey = "bkn:token"

// tokenSource wraps client-credentials acquisition with a two-level cache:
// in-process for the current run, redis across runs (the scripts are invoked
// far more often than the token expires). Redis being down only costs a
// fresh token fetch.
type tokenSource struct {
	cc    clientcredentials.Config
	cache *rdb.Store

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func newTokenSource(tokenURL, clientID, clientSecret string, cache *rdb.Store) *tokenSource {
	return &tokenSource{
		cc: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		},
		cache: cache,
	}
}

func (t *tokenSource) get(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && time.Now().Before(t.expiry) {
		return t.token, nil
	}

	if t.cache != nil {
		if tok, err := t.cache.GetValue(tokenCacheKey); err == nil && tok != "" {
			t.token = tok
			// Redis owns the real TTL; recheck there once a minute.
			t.expiry = time.Now().Add(time.Minute)
			return tok, nil
		}
	}

	tok, err := t.cc.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", syncErrors.ErrTokenUnavailable, err)
	}

	t.token = tok.AccessToken
	t.expiry = tok.Expiry
	if t.expiry.IsZero() {
		t.expiry = time.Now().Add(5 * time.Minute)
	}

	if t.cache != nil {
		ttl := time.Until(t.expiry) - 30*time.Second
		if ttl > 0 {
			if err := t.cache.SetValue(tokenCacheKey, tok.AccessToken, ttl); err != nil {
				log.Warnf("bkn: caching token: %v", err)
			}
		}
	}

	return t.token, nil
}

// invalidate drops both cache levels; called once after a 401 so the retry
// runs on a fresh token.
func (t *tokenSource) invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.token = ""
	t.expiry = time.Time{}
	if t.cache != nil {
		if err := t.cache.Delete(tokenCacheKey); err != nil {
			log.Warnf("bkn: dropping cached token: %v", err)
		}
	}
}
