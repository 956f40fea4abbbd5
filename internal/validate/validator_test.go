package validate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subhan986/JoJo-Stand-connector/internal/model"
)

func newTestChecker(attempts int) *LinkChecker {
	return NewLinkChecker(nil, Options{Attempts: attempts, BaseDelay: time.Millisecond})
}

func TestLinkChecker_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "stand-connector/0.1", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	results := newTestChecker(1).Check(context.Background(), []string{server.URL})
	require.Len(t, results, 1)
	assert.True(t, results[0].Reachable, "%+v", results[0])
	assert.Equal(t, http.StatusOK, results[0].StatusCode)
}

func TestLinkChecker_404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	results := newTestChecker(3).Check(context.Background(), []string{server.URL})
	assert.False(t, results[0].Reachable)
	assert.Equal(t, http.StatusNotFound, results[0].StatusCode)
	assert.NotEmpty(t, results[0].Error)
}

func TestLinkChecker_HeadNotAllowedFallsBackToGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	results := newTestChecker(1).Check(context.Background(), []string{server.URL})
	assert.True(t, results[0].Reachable, "GET fallback: %+v", results[0])
}

func TestLinkChecker_RetriesTransient(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	results := newTestChecker(3).Check(context.Background(), []string{server.URL})
	assert.True(t, results[0].Reachable, "%+v", results[0])
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestLinkChecker_RetryExhausted(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	results := newTestChecker(2).Check(context.Background(), []string{server.URL})
	assert.False(t, results[0].Reachable)
	assert.Equal(t, http.StatusTooManyRequests, results[0].StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestLinkChecker_NetworkError(t *testing.T) {
	results := newTestChecker(1).Check(context.Background(), []string{"http://127.0.0.1:1/nothing"})
	assert.False(t, results[0].Reachable)
	assert.NotEmpty(t, results[0].Error)
}

func TestLinkChecker_PreservesOrder(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(30 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer slow.Close()
	missing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer missing.Close()

	urls := []string{slow.URL, missing.URL, slow.URL + "/again"}
	results := NewLinkChecker(nil, Options{MaxWorkers: 2}).Check(context.Background(), urls)

	require.Len(t, results, len(urls))
	for i, u := range urls {
		assert.Equal(t, u, results[i].URL, "result %d", i)
	}
	assert.True(t, results[0].Reachable)
	assert.False(t, results[1].Reachable)
	assert.True(t, results[2].Reachable)
}

func TestLinkChecker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := newTestChecker(1).Check(ctx, []string{"http://127.0.0.1:1/a", "http://127.0.0.1:1/b"})
	for _, r := range results {
		assert.False(t, r.Reachable, r.URL)
		assert.NotEmpty(t, r.Error, r.URL)
	}
}

func TestLinkChecker_Empty(t *testing.T) {
	assert.Empty(t, newTestChecker(1).Check(context.Background(), nil))
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(model.DefaultConfig().Evidence, "ua", nil)
	assert.Equal(t, 4, opts.MaxWorkers)
	assert.Equal(t, 1, opts.Attempts)
	assert.Equal(t, "ua", opts.UserAgent)
}
