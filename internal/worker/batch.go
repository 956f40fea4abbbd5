package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/subhan986/JoJo-Stand-connector/internal/datauri"
	"github.com/subhan986/JoJo-Stand-connector/internal/logging"
	"github.com/subhan986/JoJo-Stand-connector/internal/model"
)

// Analyzer turns one submission into the failure-tolerant result envelope
type Analyzer interface {
	Submit(ctx context.Context, s model.Submission) model.AnalysisResult
}

// AnalysisJob analyzes one submission
type AnalysisJob struct {
	Submission model.Submission
	Analyzer   Analyzer
	Pace       *rate.Limiter
}

// Execute waits for the pacing limiter, then analyzes
func (j *AnalysisJob) Execute(ctx context.Context) Result {
	start := time.Now()
	if j.Pace != nil {
		if err := j.Pace.Wait(ctx); err != nil {
			return &BatchResult{
				Submission: j.Submission,
				Result:     model.NewAnalysisFailure(err),
				Duration:   time.Since(start),
			}
		}
	}
	return &BatchResult{
		Submission: j.Submission,
		Result:     j.Analyzer.Submit(ctx, j.Submission),
		Duration:   time.Since(start),
	}
}

// BatchResult is one analyzed submission
type BatchResult struct {
	Submission model.Submission
	Result     model.AnalysisResult
	Duration   time.Duration
}

// GetError surfaces the envelope's error message
func (r *BatchResult) GetError() error {
	if r.Result.Failed() {
		return errors.New(r.Result.Error)
	}
	return nil
}

// Batch is the outcome of one run
type Batch struct {
	RunID   string
	Results []*BatchResult
}

// Failures counts failed submissions
func (b *Batch) Failures() int {
	n := 0
	for _, r := range b.Results {
		if r.GetError() != nil {
			n++
		}
	}
	return n
}

// BatchProcessor analyzes many submissions on a bounded pool
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	pace        *rate.Limiter
	logger      *zap.Logger
}

// NewBatchProcessor creates a processor. A requestsPerSecond of 0 disables
// pacing of analysis requests.
func NewBatchProcessor(analyzer Analyzer, concurrency int, requestsPerSecond float64, burst int, logger *zap.Logger) *BatchProcessor {
	var pace *rate.Limiter
	if requestsPerSecond > 0 {
		if burst <= 0 {
			burst = 1
		}
		pace = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		pace:        pace,
		logger:      logging.OrNop(logger),
	}
}

// Process analyzes every submission. Results are index-aligned with subs.
func (b *BatchProcessor) Process(ctx context.Context, subs []model.Submission) *Batch {
	batch := &Batch{RunID: uuid.NewString(), Results: make([]*BatchResult, len(subs))}
	if len(subs) == 0 {
		return batch
	}

	log := b.logger.With(zap.String("run_id", batch.RunID), zap.Int("submissions", len(subs)))
	log.Info("batch started", zap.Int("concurrency", b.concurrency))

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	for _, s := range subs {
		pool.Submit(&AnalysisJob{Submission: s, Analyzer: b.analyzer, Pace: b.pace})
	}

	results := pool.Wait()
	for i := range subs {
		if i < len(results) && results[i] != nil {
			batch.Results[i] = results[i].(*BatchResult)
			continue
		}
		// The pool was cancelled before this submission ran
		cause := context.Cause(ctx)
		if cause == nil {
			cause = errors.New("submission was not processed")
		}
		batch.Results[i] = &BatchResult{Submission: subs[i], Result: model.NewAnalysisFailure(cause)}
	}

	log.Info("batch finished", zap.Int("failed", batch.Failures()))
	return batch
}

// ProcessFile reads submissions from path and analyzes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) (*Batch, error) {
	subs, err := ReadSubmissionsFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read submissions: %w", err)
	}
	return b.Process(ctx, subs), nil
}

// ReadSubmissionsFromFile reads one submission per line. Blank lines and
// lines starting with # are skipped, duplicates are dropped. http(s) lines
// are URLs, "@path" lines name a local file (relative to the list file)
// that is uploaded as a data URI, and anything else is free text.
func ReadSubmissionsFromFile(path string) ([]model.Submission, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(path)
	var subs []model.Submission
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || seen[line] {
			continue
		}
		seen[line] = true

		sub, err := parseSubmissionLine(base, line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		subs = append(subs, sub)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return subs, nil
}

func parseSubmissionLine(base, line string) (model.Submission, error) {
	lower := strings.ToLower(line)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return model.NewURLSubmission(line), nil
	case strings.HasPrefix(line, "@"):
		return FileSubmission(resolvePath(base, strings.TrimSpace(line[1:])))
	default:
		return model.NewTextSubmission(line), nil
	}
}

func resolvePath(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// FileSubmission reads a local file into a file submission, sniffing its
// content type.
func FileSubmission(path string) (model.Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Submission{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return model.Submission{}, &model.InvalidInputError{Field: "file", Reason: path + " is empty"}
	}
	return model.NewFileSubmission(datauri.Encode(datauri.BaseMIMEType(http.DetectContentType(data)), data))
}
