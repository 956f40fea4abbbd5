// Package pipeline wires the connector components from the app config and
// runs a submission end to end: analysis, then optional illustration.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/subhan986/JoJo-Stand-connector/internal/cache"
	"github.com/subhan986/JoJo-Stand-connector/internal/fetch"
	"github.com/subhan986/JoJo-Stand-connector/internal/illustrate"
	"github.com/subhan986/JoJo-Stand-connector/internal/llm"
	"github.com/subhan986/JoJo-Stand-connector/internal/logging"
	"github.com/subhan986/JoJo-Stand-connector/internal/model"
	"github.com/subhan986/JoJo-Stand-connector/internal/narrative"
	"github.com/subhan986/JoJo-Stand-connector/internal/normalize"
	"github.com/subhan986/JoJo-Stand-connector/internal/render"
	"github.com/subhan986/JoJo-Stand-connector/internal/retry"
	"github.com/subhan986/JoJo-Stand-connector/internal/server"
	"github.com/subhan986/JoJo-Stand-connector/internal/transcript"
	"github.com/subhan986/JoJo-Stand-connector/internal/util"
	"github.com/subhan986/JoJo-Stand-connector/internal/validate"
	"github.com/subhan986/JoJo-Stand-connector/internal/worker"
)

// Pipeline holds the wired components
type Pipeline struct {
	Fetcher     *fetch.Fetcher
	Transcripts *transcript.Client
	Analyzer    *narrative.Analyzer
	Illustrator *illustrate.Dispatcher

	config model.Config
	logger *zap.Logger
}

// New builds every component described by cfg. An empty llm or image
// provider, or one without an API key, leaves that service disabled: analyses
// and frames then fail through their normal error paths instead of at startup.
func New(ctx context.Context, cfg model.Config, logger *zap.Logger) (*Pipeline, error) {
	logger = logging.OrNop(logger)
	client := util.NewHTTPClient(cfg.HTTP)
	store := cache.New(cfg.Cache)

	var robots *util.RobotsChecker
	if cfg.Fetch.RespectRobots {
		robots = util.NewRobotsChecker(client, cfg.HTTP.UserAgent, time.Hour)
	}

	fetcher := fetch.NewFetcher(client, fetch.Options{
		UserAgent: cfg.HTTP.UserAgent,
		MaxBytes:  cfg.HTTP.MaxBodyBytes,
		Robots:    robots,
		Limiter:   worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		Cache:     store,
		CacheTTL:  cfg.Cache.TTL,
		Retry:     retry.FromConfig(cfg.Fetch.Retry),
		Logger:    logger,
	})

	transcripts, err := transcript.NewClient(fetcher, transcript.Options{
		Language: cfg.Transcript.Language,
		BaseURL:  cfg.Transcript.BaseURL,
		Cache:    store,
		CacheTTL: cfg.Cache.TTL,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	provider, err := llm.NewProvider(ctx, llm.ConfigFromModel(cfg.LLM, nil, logger))
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		logger.Warn("narrative provider has no API key", zap.String("provider", cfg.LLM.Provider))
	case err != nil:
		return nil, fmt.Errorf("narrative provider: %w", err)
	}
	if provider == nil {
		logger.Warn("narrative provider disabled, analyses will fail")
	}

	gen, err := llm.NewImageGenerator(ctx, llm.ImageConfigFromModel(cfg.Image, nil, logger))
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		logger.Warn("image generator has no API key", zap.String("provider", cfg.Image.Provider))
	case err != nil:
		return nil, fmt.Errorf("image generator: %w", err)
	}
	if gen == nil {
		logger.Warn("image generator disabled, slideshows will use placeholders")
	}

	opts := narrative.Options{
		Tools:  []llm.Tool{transcript.Tool(transcripts)},
		Logger: logger,
	}
	if cfg.Evidence.CheckLinks {
		opts.Links = validate.NewLinkChecker(client, validate.OptionsFromConfig(cfg.Evidence, cfg.HTTP.UserAgent, logger))
	}

	return &Pipeline{
		Fetcher:     fetcher,
		Transcripts: transcripts,
		Analyzer:    narrative.NewAnalyzer(normalize.NewDiscriminator(fetcher, logger), provider, opts),
		Illustrator: illustrate.NewDispatcher(gen, illustrate.OptionsFromConfig(cfg.Image, logger)),
		config:      cfg,
		logger:      logger,
	}, nil
}

// Submit analyzes one submission into the {data, error} envelope
func (p *Pipeline) Submit(ctx context.Context, s model.Submission) model.AnalysisResult {
	return p.Analyzer.Submit(ctx, s)
}

// Run analyzes s and, when withImages is set and the analysis succeeded,
// renders one frame per step.
func (p *Pipeline) Run(ctx context.Context, s model.Submission, withImages bool) render.Report {
	report := render.Report{Input: s.Summary(), Result: p.Submit(ctx, s)}
	if withImages && !report.Result.Failed() {
		report.Images = p.Illustrator.GenerateSlideshowImages(ctx, report.Result.Data.ImagePrompts())
	}
	return report
}

// Batch returns a processor that analyzes submissions on the configured
// worker pool.
func (p *Pipeline) Batch() *worker.BatchProcessor {
	return worker.NewBatchProcessor(p, p.config.Concurrency.Workers,
		p.config.RateLimiting.RequestsPerSecond, p.config.RateLimiting.BurstSize, p.logger)
}

// Server builds the HTTP API on top of the pipeline
func (p *Pipeline) Server() *server.Server {
	return server.New(p.config.Server, server.Deps{
		Analyzer:    p.Analyzer,
		Illustrator: p.Illustrator,
		Transcripts: p.Transcripts,
	}, p.logger)
}
