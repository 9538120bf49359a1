package bkn

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simpeg-sync/pkg/syncErrors"
)

// tokenServer hands out tok1, tok2, ... and counts issuances.
type tokenServer struct {
	calls int
}

func (s *tokenServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.calls++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"tok%d","token_type":"bearer","expires_in":3600}`, s.calls)
	}
}

func newTestClient(t *testing.T, api http.HandlerFunc) (*Client, *tokenServer) {
	t.Helper()

	tokens := &tokenServer{}
	tokenSrv := httptest.NewServer(tokens.handler())
	t.Cleanup(tokenSrv.Close)

	apiSrv := httptest.NewServer(api)
	t.Cleanup(apiSrv.Close)

	client := NewClient(Config{
		BaseURL:      apiSrv.URL,
		TokenURL:     tokenSrv.URL,
		ClientID:     "cid",
		ClientSecret: "secret",
		Timeout:      5 * time.Second,
	}, nil)
	return client, tokens
}

func TestFetchRiwayat(t *testing.T) {
	var apiCalls int
	client, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		apiCalls++
		assert.Equal(t, "/pns/data-riwayat-jabatan/12345", r.URL.Path)
		assert.Equal(t, "Bearer tok1", r.Header.Get("Authorization"))
		fmt.Fprint(w, `[{"id":"r1"}]`)
	})

	body, err := client.FetchRiwayat(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"r1"}]`, string(body))

	// Second call reuses the in-memory token.
	_, err = client.FetchRiwayat(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, 1, tokens.calls)
	assert.Equal(t, 2, apiCalls)
}

func TestUnauthorizedRetriesOnce(t *testing.T) {
	var apiCalls int
	client, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		apiCalls++
		if r.Header.Get("Authorization") != "Bearer tok2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `[{"id":"r1"}]`)
	})

	body, err := client.FetchRiwayat(context.Background(), "12345")
	require.NoError(t, err)
	assert.NotEmpty(t, body)

	// One rejected request, one fresh token, one successful retry.
	assert.Equal(t, 2, apiCalls)
	assert.Equal(t, 2, tokens.calls)
}

func TestUnauthorizedDoesNotLoop(t *testing.T) {
	var apiCalls int
	client, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		apiCalls++
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.FetchRiwayat(context.Background(), "12345")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	assert.Equal(t, 2, apiCalls)
	assert.Equal(t, 2, tokens.calls)
}

func TestServerErrorSurfaces(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FetchRiwayat(context.Background(), "12345")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestFetchRiwayatRejectsEmptyPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := client.FetchRiwayat(context.Background(), "12345")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty riwayat payload")
}

func TestOpenDocumentEscapesURI(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/download-dok", r.URL.Path)
		assert.Equal(t, "peta/dok berkas/sk.pdf", r.URL.Query().Get("filePath"))
		fmt.Fprint(w, "%PDF-1.4 body")
	})

	body, err := client.OpenDocument(context.Background(), "peta/dok berkas/sk.pdf")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestTokenEndpointFailure(t *testing.T) {
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("api must not be reached without a token")
	}))
	t.Cleanup(apiSrv.Close)
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(tokenSrv.Close)

	client := NewClient(Config{
		BaseURL:  apiSrv.URL,
		TokenURL: tokenSrv.URL,
		ClientID: "cid", ClientSecret: "secret",
	}, nil)

	_, err := client.FetchRiwayat(context.Background(), "12345")
	require.ErrorIs(t, err, syncErrors.ErrTokenUnavailable)
}
