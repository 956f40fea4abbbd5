package cli

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/subhan986/JoJo-Stand-connector/internal/logging"
	"github.com/subhan986/JoJo-Stand-connector/internal/model"
	"github.com/subhan986/JoJo-Stand-connector/internal/pipeline"
)

// setup loads the configuration, lets tweak apply command flags to it, and
// builds the logger and pipeline.
func setup(ctx context.Context, tweak func(*model.Config)) (*pipeline.Pipeline, *zap.Logger, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	if tweak != nil {
		tweak(&cfg)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	p, err := pipeline.New(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("build pipeline: %w", err)
	}
	return p, logger, nil
}
