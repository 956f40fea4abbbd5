// Package transcript retrieves the caption text of a YouTube video and
// exposes it as a tool the narrative model can call.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/subhan986/JoJo-Stand-connector/internal/cache"
	"github.com/subhan986/JoJo-Stand-connector/internal/fetch"
	"github.com/subhan986/JoJo-Stand-connector/internal/llm"
	"github.com/subhan986/JoJo-Stand-connector/internal/logging"
	"github.com/subhan986/JoJo-Stand-connector/internal/metrics"
	"github.com/subhan986/JoJo-Stand-connector/internal/model"
)

// ToolName is the name the model sees
const ToolName = "getYouTubeTranscript"

// Getter performs a plain GET; *fetch.Fetcher satisfies it
type Getter interface {
	Get(ctx context.Context, rawURL, accept string) (*fetch.Response, error)
}

// Options tunes a Client
type Options struct {
	// Language is the preferred caption language, "en" when empty
	Language string
	// BaseURL is the site root, https://www.youtube.com when empty
	BaseURL  string
	Cache    cache.Cache
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// Client fetches flattened transcripts
type Client struct {
	getter Getter
	opts   Options
	base   *url.URL
	group  singleflight.Group
	logger *zap.Logger
}

// NewClient creates a transcript client on top of getter
func NewClient(getter Getter, opts Options) (*Client, error) {
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://www.youtube.com"
	}
	if opts.Cache == nil {
		opts.Cache = cache.Nop{}
	}
	base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("transcript base url: %w", err)
	}
	return &Client{
		getter: getter,
		opts:   opts,
		base:   base,
		logger: logging.OrNop(opts.Logger).Named("transcript"),
	}, nil
}

// GetYouTubeTranscript returns the whole caption text of the video at
// videoURL, fragments joined by single spaces. Every failure is a
// TranscriptUnavailableError and no partial text is ever returned.
func (c *Client) GetYouTubeTranscript(ctx context.Context, videoURL string) (string, error) {
	id, err := VideoID(videoURL)
	if err != nil {
		metrics.ObserveTranscript("unavailable")
		return "", &model.TranscriptUnavailableError{URL: videoURL, Err: err}
	}

	key := cache.Key(cache.NamespaceTranscript, id+":"+c.opts.Language)
	if hit, ok := c.opts.Cache.Get(key); ok {
		metrics.ObserveTranscript("hit")
		return string(hit), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.fetch(ctx, id)
	})
	if err != nil {
		metrics.ObserveTranscript("unavailable")
		c.logger.Debug("transcript unavailable", zap.String("video", id), zap.Error(err))
		return "", &model.TranscriptUnavailableError{URL: videoURL, Err: err}
	}
	text := v.(string)

	metrics.ObserveTranscript("fetched")
	if err := c.opts.Cache.Set(key, []byte(text), c.opts.CacheTTL); err != nil {
		c.logger.Warn("cache transcript", zap.String("video", id), zap.Error(err))
	}
	return text, nil
}

func (c *Client) fetch(ctx context.Context, id string) (string, error) {
	watch := c.base.JoinPath("watch")
	q := url.Values{"v": {id}, "hl": {c.opts.Language}}
	watch.RawQuery = q.Encode()

	page, err := c.getter.Get(ctx, watch.String(), "text/html")
	if err != nil {
		return "", err
	}
	pr, err := extractPlayerResponse(page.Body)
	if err != nil {
		return "", err
	}
	if s := pr.PlayabilityStatus.Status; s != "" && s != "OK" {
		reason := pr.PlayabilityStatus.Reason
		if reason == "" {
			reason = strings.ToLower(s)
		}
		return "", errors.New(reason)
	}

	tracks := pr.Captions.Renderer.CaptionTracks
	if len(tracks) == 0 {
		return "", ErrNoCaptions
	}
	track := pickTrack(tracks, c.opts.Language)
	ref, err := url.Parse(track.BaseURL)
	if err != nil {
		return "", fmt.Errorf("caption track url: %w", err)
	}

	doc, err := c.getter.Get(ctx, c.base.ResolveReference(ref).String(), "text/xml")
	if err != nil {
		return "", err
	}
	return parseTimedText(doc.Body)
}

// Tool exposes the client to a narrative model
func Tool(c *Client) llm.Tool {
	return llm.Tool{
		Name:        ToolName,
		Description: "Fetches the transcript of a YouTube video from its URL.",
		Params: []llm.Param{
			{Name: "url", Type: "string", Description: "The URL of the YouTube video.", Required: true},
		},
		Call: func(ctx context.Context, args map[string]any) (string, error) {
			u, _ := args["url"].(string)
			if u == "" {
				return "", errors.New("url argument is required")
			}
			return c.GetYouTubeTranscript(ctx, u)
		},
	}
}
