package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/subhan986/JoJo-Stand-connector/internal/model"
	"github.com/subhan986/JoJo-Stand-connector/internal/render"
	"github.com/subhan986/JoJo-Stand-connector/internal/worker"
)

var (
	inText         string
	inURL          string
	inFile         string
	outPath        string
	outFormat      string
	withImages     bool
	analyzeTimeout time.Duration
	llmProvider    string
	llmModel       string
)

// errAnalysisFailed is returned after a failure envelope has been written
var errAnalysisFailed = errors.New("analysis failed")

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Connect one submission to the JoJo universe",
	Long: `Analyze sends one submission to the narrative model and prints the
{data, error} envelope:
- text is analyzed verbatim
- a URL is fetched; images are sent as media, anything else as a link
- a local file is uploaded as an embedded data URI

Example:
  stand-connector analyze --text "my cat knocks things off tables"
  stand-connector analyze --url https://example.com/cat.png --illustrate --out cat.html
  stand-connector analyze --file ./notes.pdf --format md`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&inText, "text", "", "free text to analyze")
	analyzeCmd.Flags().StringVar(&inURL, "url", "", "URL to analyze")
	analyzeCmd.Flags().StringVar(&inFile, "file", "", "local file to upload")
	analyzeCmd.MarkFlagsMutuallyExclusive("text", "url", "file")
	analyzeCmd.MarkFlagsOneRequired("text", "url", "file")

	analyzeCmd.Flags().StringVarP(&outPath, "out", "o", "", "output path (default: stdout); format follows the extension")
	analyzeCmd.Flags().StringVar(&outFormat, "format", "", "output format: json, md, html")
	analyzeCmd.Flags().BoolVar(&withImages, "illustrate", false, "render one slideshow image per step")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 3*time.Minute, "overall timeout")

	analyzeCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "override llm.provider (openai, gemini, anthropic, ollama)")
	analyzeCmd.Flags().StringVar(&llmModel, "llm-model", "", "override llm.model")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	sub, err := submissionFromFlags(inText, inURL, inFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
	defer cancel()

	p, logger, err := setup(ctx, overrideLLM)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Analyzing %s: %s\n", sub.Kind(), sub.Summary())
	}
	report := p.Run(ctx, sub, withImages)
	if verbose && len(report.Images) > 0 {
		fmt.Fprintf(os.Stderr, "✓ Rendered %d frames (%d placeholders)\n", len(report.Images), report.Images.Placeholders())
	}

	if err := writeReport(cmd.OutOrStdout(), outPath, outFormat, report); err != nil {
		return err
	}
	if report.Result.Failed() {
		return errAnalysisFailed
	}
	return nil
}

func overrideLLM(cfg *model.Config) {
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.APIKey, cfg.LLM.BaseURL = providerCredentials(llmProvider, "", cfg.LLM.BaseURL)
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
}

func submissionFromFlags(text, url, file string) (model.Submission, error) {
	switch {
	case text != "":
		return model.NewTextSubmission(text), nil
	case url != "":
		return model.NewURLSubmission(url), nil
	case file != "":
		return worker.FileSubmission(file)
	}
	return model.Submission{}, &model.InvalidInputError{Reason: "one of --text, --url or --file is required"}
}

// writeReport writes r to path, or to stdout when path is empty
func writeReport(stdout io.Writer, path, format string, r render.Report) error {
	f := render.FormatFromPath(path)
	if format != "" {
		var err error
		if f, err = render.ParseFormat(format); err != nil {
			return err
		}
	}
	if path == "" {
		return render.Write(stdout, f, r)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := render.Write(out, f, r); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s: %s\n", f, path)
	}
	return nil
}
