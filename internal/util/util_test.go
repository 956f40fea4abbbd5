package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subhan986/JoJo-Stand-connector/internal/model"
)

func TestNewProxyFunc_NoProxyList(t *testing.T) {
	fn := NewProxyFunc("http://proxy.local:3128", "", "internal.example.com")

	req := &http.Request{URL: &url.URL{Scheme: "https", Host: "cdn.example.com"}}
	got, err := fn(req)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "proxy.local:3128", got.Host)

	req = &http.Request{URL: &url.URL{Scheme: "http", Host: "internal.example.com"}}
	got, err = fn(req)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewHTTPClient_RedirectCap(t *testing.T) {
	var hops atomic.Int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hops.Add(1)
		http.Redirect(w, r, server.URL+"/next", http.StatusFound)
	}))
	defer server.Close()

	client := NewHTTPClient(model.HTTPConfig{Timeout: 5 * time.Second})
	resp, err := client.Get(server.URL)
	if resp != nil {
		_ = resp.Body.Close()
	}
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped after 3 redirects")
	assert.Equal(t, int32(3), hops.Load())
}

func TestRobotsChecker(t *testing.T) {
	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fetches.Add(1)
			_, _ = w.Write([]byte("User-agent: stand-connector\nDisallow: /private/\nCrawl-delay: 2\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	rc := NewRobotsChecker(server.Client(), "stand-connector/0.1", time.Minute)
	ctx := context.Background()

	allowed, delay, err := rc.CanFetch(ctx, server.URL+"/images/a.png")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 2*time.Second, delay)

	assert.False(t, rc.IsAllowed(ctx, server.URL+"/private/b.png"))
	assert.Equal(t, int32(1), fetches.Load(), "robots.txt should be cached per host")
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	rc := NewRobotsChecker(server.Client(), "stand-connector/0.1", time.Minute)
	assert.True(t, rc.IsAllowed(context.Background(), server.URL+"/anything"))
}

func TestNormalizeUserAgent(t *testing.T) {
	assert.Equal(t, "stand-connector", NormalizeUserAgent("stand-connector/0.1 (+https://example.com)"))
	assert.Equal(t, "", NormalizeUserAgent(""))
}
