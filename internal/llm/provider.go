// Package llm talks to the generation services: chat models that write the
// narrative (with tool calling and embedded media) and image models that
// draw the slideshow.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/subhan986/JoJo-Stand-connector/internal/datauri"
	"github.com/subhan986/JoJo-Stand-connector/internal/metrics"
)

var (
	ErrToolRounds       = errors.New("tool call limit exceeded")
	ErrEmptyResponse    = errors.New("empty response from model")
	ErrUnsupportedMedia = errors.New("provider cannot embed this media type")
	ErrMissingAPIKey    = errors.New("API key is required")
)

// Provider generates text from a prompt, optionally calling tools
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate runs one request, including any tool round trips, and returns
	// the final text
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ImageGenerator renders one prompt into an image reference (data URI or URL)
type ImageGenerator interface {
	Name() string
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// GenerateRequest is a provider-neutral generation request
type GenerateRequest struct {
	System string
	Prompt string

	// Media is attached to the user turn as embedded content, not text
	Media []*datauri.DataURI

	Tools []Tool

	// JSON asks for a bare JSON object when the provider supports it
	JSON bool

	Model     string
	MaxTokens int
}

// GenerateResponse is the final model output
type GenerateResponse struct {
	Text       string
	Model      string
	TokensUsed int
	ToolCalls  int
}

// Param is one string/number/boolean argument of a tool
type Param struct {
	Name        string
	Type        string // string, number, integer, boolean
	Description string
	Required    bool
}

// Tool is a function the model may call while generating
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Call        func(ctx context.Context, args map[string]any) (string, error)
}

// JSONSchema describes the tool arguments as a JSON Schema object
func (t Tool) JSONSchema() map[string]any {
	props := make(map[string]any, len(t.Params))
	required := []string{}
	for _, p := range t.Params {
		props[p.Name] = map[string]any{"type": p.Type, "description": p.Description}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "gemini", "anthropic", "ollama", ""
	Provider string
	Model    string
	APIKey   string
	// BaseURL overrides the API endpoint (proxies, Ollama host, tests)
	BaseURL string

	Timeout       time.Duration
	MaxTokens     int
	Temperature   float32
	MaxToolRounds int

	// Size is the image size for image generators, e.g. "512x512"
	Size string

	HTTPClient *http.Client
	Logger     *zap.Logger
}

func (c Config) maxToolRounds() int {
	if c.MaxToolRounds <= 0 {
		return 4
	}
	return c.MaxToolRounds
}

func (c Config) maxTokens(req GenerateRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 2048
}

func (c Config) model(req GenerateRequest, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 60 * time.Second
	}
	return c.Timeout
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: c.timeout()}
}

// invokeTool runs the named tool. Failures are reported back to the model
// as text rather than aborting generation.
func invokeTool(ctx context.Context, tools []Tool, name string, args map[string]any) (string, bool) {
	for _, t := range tools {
		if t.Name != name {
			continue
		}
		out, err := t.Call(ctx, args)
		metrics.ObserveToolCall(name, err)
		if err != nil {
			return fmt.Sprintf("error: %v", err), true
		}
		return out, false
	}
	metrics.ObserveToolCall(name, errUnknownTool)
	return fmt.Sprintf("error: unknown tool %q", name), true
}

var errUnknownTool = errors.New("unknown tool")
