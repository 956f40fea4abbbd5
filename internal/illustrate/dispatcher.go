// Package illustrate renders slideshow frames, one image request per prompt,
// in parallel. A failed frame becomes a placeholder and never fails the batch.
package illustrate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/subhan986/JoJo-Stand-connector/internal/llm"
	"github.com/subhan986/JoJo-Stand-connector/internal/logging"
	"github.com/subhan986/JoJo-Stand-connector/internal/metrics"
	"github.com/subhan986/JoJo-Stand-connector/internal/model"
	"github.com/subhan986/JoJo-Stand-connector/internal/retry"
)

// ErrNoImageGenerator is returned when illustration is disabled in the config
var ErrNoImageGenerator = errors.New("no image provider configured")

const mascotPrompt = "Generate an image of a random JoJo's Bizarre Adventure character, in a chibi (cute) style, dancing. The background should be simple, transparent, and not distracting."

// Options tunes a Dispatcher
type Options struct {
	// Concurrency caps in-flight requests; <= 0 means one per prompt
	Concurrency int
	// Timeout bounds each request, 0 disables the per-request deadline
	Timeout time.Duration
	// Interval is the minimum spacing between request starts, 0 disables pacing
	Interval    time.Duration
	StyleSuffix string
	Placeholder string
	Retry       retry.Policy
	Logger      *zap.Logger
}

// OptionsFromConfig converts the image section of the app config
func OptionsFromConfig(c model.ImageConfig, logger *zap.Logger) Options {
	return Options{
		Concurrency: c.Concurrency,
		Timeout:     c.Timeout,
		Interval:    c.Interval,
		StyleSuffix: c.StyleSuffix,
		Placeholder: c.Placeholder,
		Retry:       retry.FromConfig(c.Retry),
		Logger:      logger,
	}
}

// Dispatcher fans prompts out to an image generator
type Dispatcher struct {
	gen    llm.ImageGenerator
	opts   Options
	pace   *rate.Limiter
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher. A nil generator yields placeholders only.
func NewDispatcher(gen llm.ImageGenerator, opts Options) *Dispatcher {
	if opts.Placeholder == "" {
		opts.Placeholder = model.PlaceholderImage
	}
	d := &Dispatcher{gen: gen, opts: opts, logger: logging.OrNop(opts.Logger).Named("illustrate")}
	if opts.Interval > 0 {
		d.pace = rate.NewLimiter(rate.Every(opts.Interval), 1)
	}
	return d
}

// GenerateSlideshowImages returns one image reference per prompt, in prompt
// order. Frames that fail for any reason hold the placeholder.
func (d *Dispatcher) GenerateSlideshowImages(ctx context.Context, prompts []string) model.IllustrationBatch {
	out := make(model.IllustrationBatch, len(prompts))
	if len(prompts) == 0 {
		return out
	}

	var g errgroup.Group
	if d.opts.Concurrency > 0 {
		g.SetLimit(d.opts.Concurrency)
	}

	start := time.Now()
	for i, prompt := range prompts {
		g.Go(func() error {
			out[i] = d.frame(ctx, i, prompt+d.opts.StyleSuffix)
			return nil
		})
	}
	_ = g.Wait()

	d.logger.Info("slideshow rendered",
		zap.Int("frames", len(out)),
		zap.Int("placeholders", out.Placeholders()),
		zap.Duration("duration", time.Since(start)),
	)
	return out
}

// frame renders one prompt, absorbing every failure including panics
func (d *Dispatcher) frame(ctx context.Context, i int, prompt string) (ref string) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("frame panicked", zap.Int("index", i), zap.Any("panic", r))
			ref = d.opts.Placeholder
		}
		metrics.ObserveIllustration(ref == d.opts.Placeholder)
	}()

	ref, err := d.render(ctx, prompt)
	if err != nil {
		d.logger.Warn("frame failed, using placeholder", zap.Int("index", i), zap.Error(err))
		return d.opts.Placeholder
	}
	return ref
}

// GenerateMascot renders the dancing chibi character. Unlike slideshow
// frames its failure is returned to the caller.
func (d *Dispatcher) GenerateMascot(ctx context.Context) (string, error) {
	return d.render(ctx, mascotPrompt)
}

func (d *Dispatcher) render(ctx context.Context, prompt string) (string, error) {
	if d.gen == nil {
		return "", &model.GenerationServiceError{Op: "illustrate", Err: ErrNoImageGenerator}
	}
	if d.pace != nil {
		if err := d.pace.Wait(ctx); err != nil {
			return "", fmt.Errorf("wait for image slot: %w", err)
		}
	}

	return retry.Do(ctx, d.opts.Retry, nil, func(ctx context.Context) (string, error) {
		if d.opts.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
			defer cancel()
		}
		ref, err := d.gen.GenerateImage(ctx, prompt)
		if err != nil {
			return "", &model.GenerationServiceError{Op: "illustrate", Err: err}
		}
		if strings.TrimSpace(ref) == "" {
			return "", &model.GenerationServiceError{Op: "illustrate", Err: model.ErrNoImage}
		}
		return ref, nil
	})
}
