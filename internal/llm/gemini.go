package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/subhan986/JoJo-Stand-connector/internal/datauri"
	"github.com/subhan986/JoJo-Stand-connector/internal/logging"
	"github.com/subhan986/JoJo-Stand-connector/internal/metrics"
)

// GeminiProvider implements Provider and ImageGenerator on the Gemini API
type GeminiProvider struct {
	client *genai.Client
	config Config
	logger *zap.Logger
}

// NewGeminiProvider creates a Gemini client for the API-key backend
func NewGeminiProvider(ctx context.Context, config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini: %w", ErrMissingAPIKey)
	}

	cc := &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: config.httpClient(),
	}
	if config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		config: config,
		logger: logging.OrNop(config.Logger).Named("gemini"),
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable fetches the configured model's metadata
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	if _, err := p.client.Models.Get(ctx, p.config.model(GenerateRequest{}, "gemini-2.0-flash"), nil); err != nil {
		p.logger.Warn("availability check failed", zap.Error(err))
		return false
	}
	return true
}

// Generate calls GenerateContent, answering function calls until the model
// replies with text or the round limit is reached.
func (p *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (resp *GenerateResponse, err error) {
	start := time.Now()
	defer func() { metrics.ObserveProvider(p.Name(), "generate", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, p.config.timeout())
	defer cancel()

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	for _, m := range req.Media {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: m.BaseMIMEType(), Data: m.Data}})
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(p.config.maxTokens(req)),
		Temperature:     genai.Ptr(p.config.Temperature),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  geminiSchema(t),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	} else if req.JSON {
		// Gemini rejects a JSON mime type combined with function calling
		cfg.ResponseMIMEType = "application/json"
	}

	model := p.config.model(req, "gemini-2.0-flash")
	out := &GenerateResponse{Model: model}
	for round := 0; ; round++ {
		result, err := p.client.Models.GenerateContent(ctx, model, contents, cfg)
		if err != nil {
			return nil, fmt.Errorf("Gemini API error: %w", err)
		}
		if result.UsageMetadata != nil {
			out.TokensUsed += int(result.UsageMetadata.TotalTokenCount)
		}
		if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
			return nil, fmt.Errorf("gemini: %w", ErrEmptyResponse)
		}

		reply := result.Candidates[0].Content
		var calls []*genai.FunctionCall
		var text strings.Builder
		for _, part := range reply.Parts {
			switch {
			case part.FunctionCall != nil:
				calls = append(calls, part.FunctionCall)
			case part.Text != "" && !part.Thought:
				text.WriteString(part.Text)
			}
		}

		if len(calls) == 0 {
			out.Text = strings.TrimSpace(text.String())
			if out.Text == "" {
				return nil, fmt.Errorf("gemini: %w", ErrEmptyResponse)
			}
			return out, nil
		}
		if round >= p.config.maxToolRounds() {
			return nil, fmt.Errorf("gemini: %w after %d rounds", ErrToolRounds, round)
		}

		contents = append(contents, reply)
		responses := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			out.ToolCalls++
			res, failed := invokeTool(ctx, req.Tools, call.Name, call.Args)
			key := "output"
			if failed {
				key = "error"
			}
			p.logger.Debug("tool call", zap.String("tool", call.Name), zap.Int("round", round))
			responses = append(responses, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: map[string]any{key: res},
			}})
		}
		contents = append(contents, genai.NewContentFromParts(responses, genai.RoleUser))
	}
}

// GenerateImage asks an image-capable Gemini model for one inline image
func (p *GeminiProvider) GenerateImage(ctx context.Context, prompt string) (uri string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveProvider(p.Name(), "image", start, err) }()

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityText), string(genai.ModalityImage)},
	}
	model := p.config.model(GenerateRequest{}, "gemini-2.0-flash-preview-image-generation")
	result, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("Gemini image API error: %w", err)
	}
	if len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		for _, part := range result.Candidates[0].Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mimeType := part.InlineData.MIMEType
				if mimeType == "" {
					mimeType = "image/png"
				}
				return datauri.Encode(mimeType, part.InlineData.Data), nil
			}
		}
	}
	return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
}

func geminiSchema(t Tool) *genai.Schema {
	s := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(t.Params)),
	}
	for _, p := range t.Params {
		s.Properties[p.Name] = &genai.Schema{Type: geminiType(p.Type), Description: p.Description}
		if p.Required {
			s.Required = append(s.Required, p.Name)
		}
	}
	return s
}

func geminiType(t string) genai.Type {
	switch t {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}
