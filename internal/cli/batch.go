package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/subhan986/JoJo-Stand-connector/internal/model"
	"github.com/subhan986/JoJo-Stand-connector/internal/render"
)

var (
	concurrency    int
	outputDir      string
	batchFormat    string
	batchTimeout   time.Duration
	batchWithImage bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze many submissions from a file in parallel",
	Long: `Batch analyzes one submission per line of the input file:
- http(s) lines are URLs
- "@path" lines upload a local file (relative to the list file)
- anything else is free text
Blank lines, duplicates and lines starting with # are skipped.

Example:
  stand-connector batch inputs.txt
  stand-connector batch inputs.txt --concurrency 8 --output-dir ./connections --format md`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./stand-reports", "output directory for reports")
	batchCmd.Flags().StringVar(&batchFormat, "format", "json", "report format: json, md, html")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchWithImage, "illustrate", false, "render slideshow images for successful analyses")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	format, err := render.ParseFormat(batchFormat)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	p, logger, err := setup(ctx, func(cfg *model.Config) {
		if concurrency > 0 {
			cfg.Concurrency.Workers = concurrency
		}
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "⚙️  Analyzing submissions from %s...\n", file)
	batch, err := p.Batch().ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	written := 0
	for i, res := range batch.Results {
		report := render.Report{Input: res.Submission.Summary(), Result: res.Result}
		if batchWithImage && !res.Result.Failed() {
			report.Images = p.Illustrator.GenerateSlideshowImages(ctx, res.Result.Data.ImagePrompts())
		}

		name := fmt.Sprintf("%03d-%s.%s", i+1, sanitizeFilename(res.Submission.Summary()), format)
		path := filepath.Join(outputDir, name)
		if err := render.WriteFile(path, report); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write report: %v\n", res.Submission.Summary(), err)
			continue
		}
		written++

		if res.Result.Failed() {
			fmt.Fprintf(os.Stderr, "✗ %s: %s\n", res.Submission.Summary(), res.Result.Error)
			continue
		}
		fmt.Fprintf(os.Stderr, "✓ %s → %q (bizarreness %d/5)\n", res.Submission.Summary(), res.Result.Data.Title, res.Result.Data.BizarrenessRating)
	}

	failures := batch.Failures()
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Run:       %s\n", batch.RunID)
	fmt.Fprintf(os.Stderr, "  Total:     %d submissions\n", len(batch.Results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", len(batch.Results)-failures)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failures)
	fmt.Fprintf(os.Stderr, "  Reports:   %d in %s\n", written, outputDir)

	return nil
}

// sanitizeFilename turns a submission summary into a short file name stem
func sanitizeFilename(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")

	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= 60 {
			break
		}
	}

	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "submission"
	}
	return out
}
