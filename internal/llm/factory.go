package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/subhan986/JoJo-Stand-connector/internal/model"
)

// NewProvider creates the narrative provider named in config. An empty
// provider name disables generation and returns (nil, nil).
func NewProvider(ctx context.Context, config Config) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch strings.ToLower(config.Provider) {
	case "openai":
		p, err = NewOpenAIProvider(config)
	case "gemini", "google":
		p, err = NewGeminiProvider(ctx, config)
	case "anthropic", "claude":
		p, err = NewAnthropicProvider(config)
	case "ollama":
		p, err = NewOllamaProvider(config)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, gemini, anthropic, ollama)", config.Provider)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewImageGenerator creates the illustration backend named in config. An
// empty provider name disables illustration and returns (nil, nil).
func NewImageGenerator(ctx context.Context, config Config) (ImageGenerator, error) {
	var (
		g   ImageGenerator
		err error
	)
	switch strings.ToLower(config.Provider) {
	case "openai":
		g, err = NewOpenAIProvider(config)
	case "gemini", "google":
		g, err = NewGeminiProvider(ctx, config)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown image provider: %s (supported: openai, gemini)", config.Provider)
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ConfigFromModel converts the narrative section of the app config
func ConfigFromModel(c model.LLMConfig, client *http.Client, logger *zap.Logger) Config {
	return Config{
		Provider:      c.Provider,
		Model:         c.Model,
		APIKey:        c.APIKey,
		BaseURL:       c.BaseURL,
		Timeout:       c.Timeout,
		MaxTokens:     c.MaxTokens,
		Temperature:   c.Temperature,
		MaxToolRounds: c.MaxToolRounds,
		HTTPClient:    client,
		Logger:        logger,
	}
}

// ImageConfigFromModel converts the image section of the app config
func ImageConfigFromModel(c model.ImageConfig, client *http.Client, logger *zap.Logger) Config {
	return Config{
		Provider:   c.Provider,
		Model:      c.Model,
		APIKey:     c.APIKey,
		BaseURL:    c.BaseURL,
		Timeout:    c.Timeout,
		Size:       c.Size,
		HTTPClient: client,
		Logger:     logger,
	}
}
