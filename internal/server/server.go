// Package server exposes the connector operations over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/subhan986/JoJo-Stand-connector/internal/logging"
	"github.com/subhan986/JoJo-Stand-connector/internal/metrics"
	"github.com/subhan986/JoJo-Stand-connector/internal/model"
)

// Analyzer produces narratives, titles and ratings
type Analyzer interface {
	Submit(ctx context.Context, s model.Submission) model.AnalysisResult
	GenerateTitle(ctx context.Context, input, summary string) (*model.ConnectionTitle, error)
	RateBizarreness(ctx context.Context, explanation string) (*model.BizarrenessRating, error)
}

// Illustrator renders slideshow frames and the mascot
type Illustrator interface {
	GenerateSlideshowImages(ctx context.Context, prompts []string) model.IllustrationBatch
	GenerateMascot(ctx context.Context) (string, error)
}

// Transcriber fetches caption text for a YouTube URL
type Transcriber interface {
	GetYouTubeTranscript(ctx context.Context, videoURL string) (string, error)
}

// Deps are the operations the API serves
type Deps struct {
	Analyzer    Analyzer
	Illustrator Illustrator
	Transcripts Transcriber
}

// Server is the HTTP API
type Server struct {
	cfg         model.ServerConfig
	analyzer    Analyzer
	illustrator Illustrator
	transcripts Transcriber
	router      *gin.Engine
	logger      *zap.Logger
}

// New builds the router. Every dependency must be non-nil.
func New(cfg model.ServerConfig, deps Deps, logger *zap.Logger) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	s := &Server{
		cfg:         cfg,
		analyzer:    deps.Analyzer,
		illustrator: deps.Illustrator,
		transcripts: deps.Transcripts,
		logger:      logging.OrNop(logger).Named("server"),
	}

	router := gin.New()
	router.Use(requestID())
	router.Use(ginZapLogger(s.logger))
	router.Use(gin.Recovery())
	router.Use(observe())
	router.Use(cors.New(corsConfig(cfg.AllowOrigins)))

	router.GET("/healthz", s.health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	api.Use(limitBody(cfg.MaxBodyBytes))
	{
		api.POST("/analyze", s.analyze)
		api.POST("/slideshow", s.slideshow)
		api.POST("/title", s.title)
		api.POST("/rate", s.rate)
		api.GET("/mascot", s.mascot)
		api.GET("/transcript", s.transcript)
	}

	s.router = router
	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", requestIDHeader}
	cfg.ExposeHeaders = []string{requestIDHeader}
	cfg.MaxAge = 12 * time.Hour

	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Info("Server exiting")
	return nil
}
