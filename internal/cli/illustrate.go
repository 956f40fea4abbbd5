package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/subhan986/JoJo-Stand-connector/internal/model"
)

var (
	fromReport        string
	mascot            bool
	illustrateTimeout time.Duration
)

// illustrateCmd represents the illustrate command
var illustrateCmd = &cobra.Command{
	Use:   "illustrate [prompt...]",
	Short: "Render slideshow images for a list of prompts",
	Long: `Illustrate renders one image per prompt, in parallel, and prints the
images as a JSON array in prompt order. Frames that fail to render are
replaced with a placeholder.

Example:
  stand-connector illustrate "Jotaro holding a cat" "Star Platinum at the beach"
  stand-connector illustrate --from report.json
  stand-connector illustrate --mascot`,
	RunE: runIllustrate,
}

func init() {
	rootCmd.AddCommand(illustrateCmd)

	illustrateCmd.Flags().StringVar(&fromReport, "from", "", "read prompts from a JSON analysis report")
	illustrateCmd.Flags().BoolVar(&mascot, "mascot", false, "render the dancing mascot instead")
	illustrateCmd.Flags().DurationVar(&illustrateTimeout, "timeout", 3*time.Minute, "overall timeout")
}

func runIllustrate(cmd *cobra.Command, args []string) error {
	prompts := args
	if fromReport != "" {
		var err error
		if prompts, err = promptsFromReport(fromReport); err != nil {
			return err
		}
	}
	if len(prompts) == 0 && !mascot {
		return fmt.Errorf("no prompts given (pass prompts as arguments, --from or --mascot)")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), illustrateTimeout)
	defer cancel()

	p, logger, err := setup(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if mascot {
		uri, err := p.Illustrator.GenerateMascot(ctx)
		if err != nil {
			return err
		}
		return enc.Encode(map[string]string{"imageUrl": uri})
	}

	images := p.Illustrator.GenerateSlideshowImages(ctx, prompts)
	if n := images.Placeholders(); n > 0 {
		fmt.Fprintf(os.Stderr, "⚠️  %d of %d frames fell back to the placeholder\n", n, len(images))
	}
	return enc.Encode(images)
}

// promptsFromReport reads the step prompts of a JSON analysis report
func promptsFromReport(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var report struct {
		Result model.AnalysisResult `json:"result"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if report.Result.Failed() {
		return nil, fmt.Errorf("report holds a failed analysis: %s", report.Result.Error)
	}
	return report.Result.Data.ImagePrompts(), nil
}
