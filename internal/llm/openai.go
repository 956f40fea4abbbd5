package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/subhan986/JoJo-Stand-connector/internal/datauri"
	"github.com/subhan986/JoJo-Stand-connector/internal/logging"
	"github.com/subhan986/JoJo-Stand-connector/internal/metrics"
)

// OpenAIProvider implements Provider and ImageGenerator on OpenAI-compatible APIs
type OpenAIProvider struct {
	client *openai.Client
	config Config
	logger *zap.Logger
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI: %w", ErrMissingAPIKey)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = config.httpClient()

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		logger: logging.OrNop(config.Logger).Named("openai"),
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable lists models as a lightweight credentials check
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	if _, err := p.client.ListModels(ctx); err != nil {
		p.logger.Warn("availability check failed", zap.Error(err))
		return false
	}
	return true
}

// Generate runs a chat completion, executing requested tool calls until the
// model answers with text or the round limit is reached.
func (p *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (resp *GenerateResponse, err error) {
	start := time.Now()
	defer func() { metrics.ObserveProvider(p.Name(), "generate", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, p.config.timeout())
	defer cancel()

	user, err := openAIUserMessage(req)
	if err != nil {
		return nil, err
	}
	messages := []openai.ChatCompletionMessage{}
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, user)

	chatReq := openai.ChatCompletionRequest{
		Model:       p.config.model(req, openai.GPT4oMini),
		Messages:    messages,
		MaxTokens:   p.config.maxTokens(req),
		Temperature: p.config.Temperature,
	}
	for _, t := range req.Tools {
		chatReq.Tools = append(chatReq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.JSONSchema(),
			},
		})
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	out := &GenerateResponse{}
	for round := 0; ; round++ {
		completion, err := p.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return nil, fmt.Errorf("OpenAI API error: %w", err)
		}
		if len(completion.Choices) == 0 {
			return nil, fmt.Errorf("openai: %w", ErrEmptyResponse)
		}
		out.Model = completion.Model
		out.TokensUsed += completion.Usage.TotalTokens

		msg := completion.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			out.Text = strings.TrimSpace(msg.Content)
			if out.Text == "" {
				return nil, fmt.Errorf("openai: %w", ErrEmptyResponse)
			}
			return out, nil
		}
		if round >= p.config.maxToolRounds() {
			return nil, fmt.Errorf("openai: %w after %d rounds", ErrToolRounds, round)
		}

		chatReq.Messages = append(chatReq.Messages, msg)
		for _, call := range msg.ToolCalls {
			out.ToolCalls++
			var args map[string]any
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				args = map[string]any{}
			}
			result, _ := invokeTool(ctx, req.Tools, call.Function.Name, args)
			p.logger.Debug("tool call", zap.String("tool", call.Function.Name), zap.Int("round", round))
			chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result,
				Name:       call.Function.Name,
				ToolCallID: call.ID,
			})
		}
	}
}

func openAIUserMessage(req GenerateRequest) (openai.ChatCompletionMessage, error) {
	if len(req.Media) == 0 {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt}, nil
	}
	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: req.Prompt}}
	for _, m := range req.Media {
		if !m.IsImage() {
			return openai.ChatCompletionMessage{}, fmt.Errorf("openai: %w: %s", ErrUnsupportedMedia, m.BaseMIMEType())
		}
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: m.String(), Detail: openai.ImageURLDetailAuto},
		})
	}
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts}, nil
}

// GenerateImage renders prompt with the images endpoint and returns a data URI
func (p *OpenAIProvider) GenerateImage(ctx context.Context, prompt string) (uri string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveProvider(p.Name(), "image", start, err) }()

	size := p.config.Size
	if size == "" {
		size = openai.CreateImageSize512x512
	}
	resp, err := p.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          p.config.model(GenerateRequest{}, openai.CreateImageModelDallE2),
		N:              1,
		Size:           size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI image API error: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}

	img := resp.Data[0]
	switch {
	case img.B64JSON != "":
		d, err := datauri.Parse("data:image/png;base64," + img.B64JSON)
		if err != nil {
			return "", fmt.Errorf("openai image payload: %w", err)
		}
		return d.String(), nil
	case img.URL != "":
		return img.URL, nil
	}
	return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
}
