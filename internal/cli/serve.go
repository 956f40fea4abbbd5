package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/subhan986/JoJo-Stand-connector/internal/model"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON API",
	Long: `Serve exposes the connector over HTTP:

  POST /api/analyze      {"type":"text","text":"..."} → {data, error}
  POST /api/slideshow    {"prompts":[...]}           → {images, placeholders}
  POST /api/title        {"input","connectionSummary"}
  POST /api/rate         {"connectionExplanation"}
  GET  /api/mascot
  GET  /api/transcript?url=...
  GET  /healthz
  GET  /metrics

The server shuts down gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, logger, err := setup(ctx, func(cfg *model.Config) {
			if serveAddr != "" {
				cfg.Server.Addr = serveAddr
			}
		})
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		return p.Server().Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
}
