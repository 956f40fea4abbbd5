// Package narrative asks the generation service for a JoJo connection and
// turns its reply into a validated NarrativeResult.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/subhan986/JoJo-Stand-connector/internal/llm"
	"github.com/subhan986/JoJo-Stand-connector/internal/logging"
	"github.com/subhan986/JoJo-Stand-connector/internal/metrics"
	"github.com/subhan986/JoJo-Stand-connector/internal/model"
)

// ErrNoProvider is returned when generation is disabled in the config
var ErrNoProvider = errors.New("no narrative provider configured")

// Normalizer turns a submission into a payload; *normalize.Discriminator satisfies it
type Normalizer interface {
	Normalize(ctx context.Context, s model.Submission) (model.Payload, error)
}

// LinkChecker reports reachability of evidence links; *validate.LinkChecker satisfies it
type LinkChecker interface {
	Check(ctx context.Context, urls []string) []model.LinkStatus
}

// Options holds the optional collaborators of an Analyzer
type Options struct {
	// Tools are offered to the model on every analysis
	Tools  []llm.Tool
	Links  LinkChecker
	Logger *zap.Logger
}

// Analyzer dispatches connection requests
type Analyzer struct {
	normalizer Normalizer
	provider   llm.Provider
	opts       Options
	logger     *zap.Logger
}

// NewAnalyzer creates an analyzer. A nil provider makes every request fail
// with ErrNoProvider.
func NewAnalyzer(normalizer Normalizer, provider llm.Provider, opts Options) *Analyzer {
	return &Analyzer{
		normalizer: normalizer,
		provider:   provider,
		opts:       opts,
		logger:     logging.OrNop(opts.Logger).Named("narrative"),
	}
}

// Analyze normalizes s and requests a narrative for it. Malformed input is
// an InvalidInputError; everything after normalization that fails is a
// GenerationServiceError.
func (a *Analyzer) Analyze(ctx context.Context, s model.Submission) (result *model.NarrativeResult, err error) {
	defer func() { metrics.ObserveAnalysis(string(s.Kind()), err) }()

	payload, err := a.normalizer.Normalize(ctx, s)
	if err != nil {
		return nil, err
	}

	req := llm.GenerateRequest{
		System: persona,
		Prompt: analyzePrompt(payload),
		Tools:  a.opts.Tools,
		JSON:   true,
	}
	media, err := payload.Media()
	if err != nil {
		return nil, &model.InvalidInputError{Field: string(payload.Type), Reason: err.Error()}
	}
	if media != nil {
		req.Media = append(req.Media, media)
	}

	result = &model.NarrativeResult{}
	if err := a.generate(ctx, "analyze", req, result); err != nil {
		return nil, err
	}
	if err := result.Validate(); err != nil {
		return nil, &model.GenerationServiceError{Op: "analyze", Err: err}
	}

	if a.opts.Links != nil {
		if links := evidenceLinks(result.SupportingEvidence); len(links) > 0 {
			result.Links = a.opts.Links.Check(ctx, links)
		}
	}

	a.logger.Info("analysis complete",
		zap.String("type", string(payload.Type)),
		zap.String("title", result.Title),
		zap.Int("steps", len(result.Steps)),
		zap.Int("rating", result.BizarrenessRating),
	)
	return result, nil
}

// Submit never fails: any error, including a panic below it, becomes the
// user-facing failure envelope.
func (a *Analyzer) Submit(ctx context.Context, s model.Submission) (res model.AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("analysis panicked", zap.Any("panic", r))
			res = model.NewAnalysisFailure(fmt.Errorf("panic: %v", r))
		}
	}()

	result, err := a.Analyze(ctx, s)
	if err != nil {
		a.logger.Warn("analysis failed", zap.String("input", s.Summary()), zap.Error(err))
		return model.NewAnalysisFailure(err)
	}
	return model.AnalysisResult{Data: result}
}

// GenerateTitle asks for a catchy title given the input and a connection summary
func (a *Analyzer) GenerateTitle(ctx context.Context, input, summary string) (*model.ConnectionTitle, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &model.InvalidInputError{Field: "input", Reason: "must not be empty"}
	}
	title := &model.ConnectionTitle{}
	req := llm.GenerateRequest{Prompt: titlePrompt(input, summary), JSON: true}
	if err := a.generate(ctx, "title", req, title); err != nil {
		return nil, err
	}
	if err := title.Validate(); err != nil {
		return nil, &model.GenerationServiceError{Op: "title", Err: err}
	}
	return title, nil
}

// RateBizarreness rates a connection explanation on the 1 to 5 scale
func (a *Analyzer) RateBizarreness(ctx context.Context, explanation string) (*model.BizarrenessRating, error) {
	if strings.TrimSpace(explanation) == "" {
		return nil, &model.InvalidInputError{Field: "connectionExplanation", Reason: "must not be empty"}
	}
	rating := &model.BizarrenessRating{}
	req := llm.GenerateRequest{Prompt: ratingPrompt(explanation), JSON: true}
	if err := a.generate(ctx, "rate", req, rating); err != nil {
		return nil, err
	}
	if err := rating.Validate(); err != nil {
		return nil, &model.GenerationServiceError{Op: "rate", Err: err}
	}
	return rating, nil
}

// generate runs req and decodes the JSON object in the reply into v
func (a *Analyzer) generate(ctx context.Context, op string, req llm.GenerateRequest, v any) error {
	if a.provider == nil {
		return &model.GenerationServiceError{Op: op, Err: ErrNoProvider}
	}
	resp, err := a.provider.Generate(ctx, req)
	if err != nil {
		return &model.GenerationServiceError{Op: op, Err: err}
	}
	a.logger.Debug("generation finished",
		zap.String("op", op),
		zap.String("provider", a.provider.Name()),
		zap.String("model", resp.Model),
		zap.Int("tokens", resp.TokensUsed),
		zap.Int("tool_calls", resp.ToolCalls),
	)
	if err := llm.DecodeJSON(resp.Text, v); err != nil {
		return &model.GenerationServiceError{Op: op, Err: err}
	}
	return nil
}

// evidenceLinks keeps the http(s) entries; quotes and other text are skipped
func evidenceLinks(evidence []string) []string {
	var links []string
	for _, e := range evidence {
		u, err := url.Parse(strings.TrimSpace(e))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			continue
		}
		links = append(links, u.String())
	}
	return links
}
