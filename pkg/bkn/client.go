package bkn

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	rdb "simpeg-sync/pkg/db/redis"
)

// Config carries the endpoints and credentials for one BKN API client; the
// orchestrator fills it from the environment.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string

	// Timeout bounds every request including the body read; the legacy
	// scripts had none, which is how a stuck download used to hang a run.
	Timeout time.Duration
}

type Client struct {
	base   string
	http   *http.Client
	tokens *tokenSource
}

func NewClient(cfg Config, cache *rdb.Store) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base:   cfg.BaseURL,
		http:   &http.Client{Timeout: timeout},
		tokens: newTokenSource(cfg.TokenURL, cfg.ClientID, cfg.ClientSecret, cache),
	}
}

// get performs one authenticated request with exactly one token refresh and
// retry on 401, never a retry loop.
func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	do := func(token string) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return c.http.Do(req)
	}

	token, err := c.tokens.get(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := do(token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		c.tokens.invalidate()

		token, err = c.tokens.get(ctx)
		if err != nil {
			return nil, err
		}
		resp, err = do(token)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("bkn: %s returned status %d", rawURL, resp.StatusCode)
	}

	return resp, nil
}

// OpenDocument streams one stored document. The caller owns the body.
func (c *Client) OpenDocument(ctx context.Context, uri string) (io.ReadCloser, error) {
	u := fmt.Sprintf("%s/download-dok?filePath=%s", c.base, url.QueryEscape(uri))
	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// FetchRiwayat returns the raw career-history JSON for one employee.
func (c *Client) FetchRiwayat(ctx context.Context, nip string) ([]byte, error) {
	u := fmt.Sprintf("%s/pns/data-riwayat-jabatan/%s", c.base, url.PathEscape(nip))
	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bkn: reading riwayat for %s: %w", nip, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("bkn: empty riwayat payload for %s", nip)
	}
	return body, nil
}
