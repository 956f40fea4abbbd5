// Package fetch retrieves remote resources: images as data URIs for the
// discriminator and raw pages for the transcript adapter.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/subhan986/JoJo-Stand-connector/internal/cache"
	"github.com/subhan986/JoJo-Stand-connector/internal/datauri"
	"github.com/subhan986/JoJo-Stand-connector/internal/logging"
	"github.com/subhan986/JoJo-Stand-connector/internal/model"
	"github.com/subhan986/JoJo-Stand-connector/internal/retry"
	"github.com/subhan986/JoJo-Stand-connector/internal/util"
	"github.com/subhan986/JoJo-Stand-connector/internal/worker"
)

var (
	ErrUnsupportedScheme = errors.New("only http and https URLs can be fetched")
	ErrDisallowed        = errors.New("disallowed by robots.txt")
	ErrBodyTooLarge      = errors.New("response body exceeds size limit")
	ErrEmptyBody         = errors.New("response body is empty")
)

// Options tunes a Fetcher. Nil collaborators are simply not used.
type Options struct {
	UserAgent string
	MaxBytes  int64
	Robots    *util.RobotsChecker
	Limiter   *worker.Limiter
	Cache     cache.Cache
	CacheTTL  time.Duration
	Retry     retry.Policy
	Logger    *zap.Logger
}

// Fetcher performs bounded GETs against remote hosts
type Fetcher struct {
	httpClient *http.Client
	opts       Options
	images     singleflight.Group
	logger     *zap.Logger
}

// NewFetcher wraps client with the given options
func NewFetcher(client *http.Client, opts Options) *Fetcher {
	if client == nil {
		client = util.NewHTTPClient(model.HTTPConfig{})
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 10 << 20
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "stand-connector/0.1"
	}
	return &Fetcher{httpClient: client, opts: opts, logger: logging.OrNop(opts.Logger).Named("fetch")}
}

// Response is a fully read, size-capped HTTP response
type Response struct {
	StatusCode  int
	ContentType string
	FinalURL    string
	Body        []byte
}

// FetchImageAsDataURI downloads rawURL and returns its body as a base64 data
// URI. A non-2xx status is a FetchError and a non-image content type is a
// NotAnImageError. Transient failures are retried only as far as the
// configured policy allows.
func (f *Fetcher) FetchImageAsDataURI(ctx context.Context, rawURL string) (string, error) {
	if err := checkScheme(rawURL); err != nil {
		return "", err
	}

	key := cache.Key(cache.NamespaceImage, rawURL)
	if f.opts.Cache != nil {
		if hit, ok := f.opts.Cache.Get(key); ok {
			return string(hit), nil
		}
	}

	v, err, shared := f.images.Do(rawURL, func() (any, error) {
		return retry.Do(ctx, f.opts.Retry, retry.IsTransient, func(ctx context.Context) (string, error) {
			return f.fetchImageOnce(ctx, rawURL)
		})
	})
	if err != nil {
		return "", err
	}
	uri := v.(string)
	if shared {
		f.logger.Debug("image fetch shared", zap.String("url", rawURL))
	}

	if f.opts.Cache != nil {
		if err := f.opts.Cache.Set(key, []byte(uri), f.opts.CacheTTL); err != nil {
			f.logger.Warn("cache image", zap.String("url", rawURL), zap.Error(err))
		}
	}
	return uri, nil
}

func (f *Fetcher) fetchImageOnce(ctx context.Context, rawURL string) (string, error) {
	if f.opts.Robots != nil {
		allowed, delay, err := f.opts.Robots.CanFetch(ctx, rawURL)
		if err != nil {
			return "", &model.FetchError{URL: rawURL, Err: err}
		}
		if !allowed {
			return "", &model.FetchError{URL: rawURL, Err: ErrDisallowed}
		}
		if f.opts.Limiter != nil {
			f.opts.Limiter.ApplyCrawlDelay(rawURL, delay)
		}
	}

	resp, err := f.do(ctx, rawURL, "image/*,*/*;q=0.5", func(r *http.Response) error {
		ct := r.Header.Get("Content-Type")
		if !strings.HasPrefix(datauri.BaseMIMEType(ct), "image/") {
			return &model.NotAnImageError{URL: rawURL, ContentType: ct}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(resp.Body) == 0 {
		return "", &model.FetchError{URL: rawURL, Err: ErrEmptyBody}
	}

	f.logger.Debug("image fetched",
		zap.String("url", rawURL),
		zap.String("content_type", resp.ContentType),
		zap.Int("bytes", len(resp.Body)))
	return datauri.Encode(datauri.BaseMIMEType(resp.ContentType), resp.Body), nil
}

// Get performs one paced GET and reads the whole (capped) body. Non-2xx
// statuses are returned as a FetchError.
func (f *Fetcher) Get(ctx context.Context, rawURL, accept string) (*Response, error) {
	if err := checkScheme(rawURL); err != nil {
		return nil, err
	}
	return f.do(ctx, rawURL, accept, nil)
}

// do issues the request. check, when set, inspects the headers of a 2xx
// response before the body is read.
func (f *Fetcher) do(ctx context.Context, rawURL, accept string, check func(*http.Response) error) (*Response, error) {
	if f.opts.Limiter != nil {
		if err := f.opts.Limiter.Wait(ctx, rawURL); err != nil {
			return nil, &model.FetchError{URL: rawURL, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &model.FetchError{URL: rawURL, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &model.FetchError{URL: rawURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &model.FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	if check != nil {
		if err := check(resp); err != nil {
			return nil, err
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBytes+1))
	if err != nil {
		return nil, &model.FetchError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > f.opts.MaxBytes {
		return nil, &model.FetchError{URL: rawURL, Err: ErrBodyTooLarge}
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
		Body:        body,
	}, nil
}

func checkScheme(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &model.FetchError{URL: rawURL, Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &model.FetchError{URL: rawURL, Err: ErrUnsupportedScheme}
	}
	return nil
}
