package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/subhan986/JoJo-Stand-connector/internal/model"
)

var (
	transcriptLang    string
	transcriptTimeout time.Duration
)

// transcriptCmd represents the transcript command
var transcriptCmd = &cobra.Command{
	Use:   "transcript <youtube-url>",
	Short: "Print the caption transcript of a YouTube video",
	Long: `Transcript fetches the captions of a YouTube video and prints them as one
line of text, fragments joined by single spaces. This is the same lookup the
narrative model uses when it is handed a video URL.

Example:
  stand-connector transcript https://www.youtube.com/watch?v=dQw4w9WgXcQ
  stand-connector transcript https://youtu.be/dQw4w9WgXcQ --lang ja`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscript,
}

func init() {
	rootCmd.AddCommand(transcriptCmd)

	transcriptCmd.Flags().StringVar(&transcriptLang, "lang", "", "preferred caption language (default: transcript.language)")
	transcriptCmd.Flags().DurationVar(&transcriptTimeout, "timeout", 30*time.Second, "timeout")
}

func runTranscript(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), transcriptTimeout)
	defer cancel()

	p, logger, err := setup(ctx, func(cfg *model.Config) {
		if transcriptLang != "" {
			cfg.Transcript.Language = transcriptLang
		}
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	text, err := p.Transcripts.GetYouTubeTranscript(ctx, args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}
