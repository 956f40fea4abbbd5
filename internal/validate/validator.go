// Package validate checks that supporting evidence links are reachable.
package validate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/subhan986/JoJo-Stand-connector/internal/logging"
	"github.com/subhan986/JoJo-Stand-connector/internal/model"
	"github.com/subhan986/JoJo-Stand-connector/internal/retry"
)

// Options tunes a LinkChecker
type Options struct {
	MaxWorkers int
	// Attempts per link; transient failures (5xx, 429, timeouts) are retried
	Attempts  int
	BaseDelay time.Duration
	UserAgent string
	Logger    *zap.Logger
}

// OptionsFromConfig converts the evidence section of the app config
func OptionsFromConfig(c model.EvidenceConfig, userAgent string, logger *zap.Logger) Options {
	return Options{
		MaxWorkers: c.Concurrency,
		Attempts:   c.MaxRetries,
		BaseDelay:  time.Second,
		UserAgent:  userAgent,
		Logger:     logger,
	}
}

// LinkChecker validates links concurrently
type LinkChecker struct {
	httpClient *http.Client
	opts       Options
	logger     *zap.Logger
}

// NewLinkChecker creates a checker on top of client
func NewLinkChecker(client *http.Client, opts Options) *LinkChecker {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 20
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "stand-connector/0.1"
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &LinkChecker{httpClient: client, opts: opts, logger: logging.OrNop(opts.Logger).Named("links")}
}

// statusError lets retry classify a completed response
type statusError int

func (s statusError) Error() string   { return fmt.Sprintf("unexpected status: %d", int(s)) }
func (s statusError) HTTPStatus() int { return int(s) }

// Check returns one status per url, in input order
func (c *LinkChecker) Check(ctx context.Context, urls []string) []model.LinkStatus {
	results := make([]model.LinkStatus, len(urls))
	if len(urls) == 0 {
		return results
	}

	done := make(chan struct{}, len(urls))
	semaphore := make(chan struct{}, c.opts.MaxWorkers)

	for i, u := range urls {
		go func() {
			defer func() { done <- struct{}{} }()

			select {
			case <-ctx.Done():
				results[i] = model.LinkStatus{URL: u, Error: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[i] = c.checkWithRetry(ctx, u)
		}()
	}
	for range urls {
		<-done
	}
	return results
}

func (c *LinkChecker) checkWithRetry(ctx context.Context, u string) model.LinkStatus {
	policy := retry.Policy{Attempts: c.opts.Attempts, BaseDelay: c.opts.BaseDelay}
	code, err := retry.Do(ctx, policy, nil, func(ctx context.Context) (int, error) {
		code, err := c.checkOne(ctx, u)
		if err == nil && (code == http.StatusTooManyRequests || code >= 500) {
			return code, statusError(code)
		}
		return code, err
	})

	status := model.LinkStatus{URL: u, StatusCode: code}
	switch {
	case err != nil && code == 0:
		status.Error = err.Error()
	case code >= 200 && code < 400:
		status.Reachable = true
	default:
		status.Error = statusError(code).Error()
	}
	c.logger.Debug("link checked", zap.String("url", u), zap.Int("status", code), zap.Bool("reachable", status.Reachable))
	return status
}

// checkOne issues a HEAD, falling back to GET for servers that refuse HEAD
func (c *LinkChecker) checkOne(ctx context.Context, u string) (int, error) {
	code, err := c.request(ctx, http.MethodHead, u)
	if err == nil && (code == http.StatusMethodNotAllowed || code == http.StatusNotImplemented) {
		return c.request(ctx, http.MethodGet, u)
	}
	return code, err
}

func (c *LinkChecker) request(ctx context.Context, method, u string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}
