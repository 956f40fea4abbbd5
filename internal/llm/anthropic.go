package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/subhan986/JoJo-Stand-connector/internal/logging"
	"github.com/subhan986/JoJo-Stand-connector/internal/metrics"
)

// AnthropicProvider implements Provider on the Anthropic Messages API
type AnthropicProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	config     Config
	logger     *zap.Logger
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float32            `json:"temperature,omitempty"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

// anthropicBlock covers the text, image, document, tool_use and tool_result
// content block shapes.
type anthropicBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	Source *anthropicSource `json:"source,omitempty"`

	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Input any    `json:"input,omitempty"`

	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	Role       string           `json:"role"`
	Content    []anthropicBlock `json:"content"`
	Model      string           `json:"model"`
	StopReason string           `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// anthropicStatusError keeps the HTTP status so 429/5xx can be retried
type anthropicStatusError struct {
	StatusCode int
	Message    string
}

func (e *anthropicStatusError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func (e *anthropicStatusError) HTTPStatus() int { return e.StatusCode }

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic: %w", ErrMissingAPIKey)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	return &AnthropicProvider{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: config.httpClient(),
		config:     config,
		logger:     logging.OrNop(config.Logger).Named("anthropic"),
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsAvailable makes a minimal one-token request
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	req := anthropicRequest{
		Model:     p.config.model(GenerateRequest{}, "claude-3-5-haiku-20241022"),
		MaxTokens: 1,
		Messages:  []anthropicMessage{{Role: "user", Content: []anthropicBlock{{Type: "text", Text: "Hi"}}}},
	}
	if _, err := p.makeRequest(ctx, req); err != nil {
		p.logger.Warn("availability check failed", zap.Error(err))
		return false
	}
	return true
}

// Generate sends one Messages request and answers tool_use blocks with
// tool_result blocks until the model stops for another reason.
func (p *AnthropicProvider) Generate(ctx context.Context, req GenerateRequest) (resp *GenerateResponse, err error) {
	start := time.Now()
	defer func() { metrics.ObserveProvider(p.Name(), "generate", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, p.config.timeout())
	defer cancel()

	user := []anthropicBlock{}
	for _, m := range req.Media {
		blockType := "image"
		switch {
		case m.IsImage():
		case m.BaseMIMEType() == "application/pdf":
			blockType = "document"
		default:
			return nil, fmt.Errorf("anthropic: %w: %s", ErrUnsupportedMedia, m.BaseMIMEType())
		}
		user = append(user, anthropicBlock{
			Type:   blockType,
			Source: &anthropicSource{Type: "base64", MediaType: m.BaseMIMEType(), Data: m.Base64()},
		})
	}
	prompt := req.Prompt
	if req.JSON {
		prompt += "\n\nRespond with a single JSON object and nothing else."
	}
	user = append(user, anthropicBlock{Type: "text", Text: prompt})

	apiReq := anthropicRequest{
		Model:       p.config.model(req, "claude-3-5-sonnet-20241022"),
		MaxTokens:   p.config.maxTokens(req),
		System:      req.System,
		Messages:    []anthropicMessage{{Role: "user", Content: user}},
		Temperature: p.config.Temperature,
	}
	for _, t := range req.Tools {
		apiReq.Tools = append(apiReq.Tools, anthropicTool{Name: t.Name, Description: t.Description, InputSchema: t.JSONSchema()})
	}

	out := &GenerateResponse{}
	for round := 0; ; round++ {
		apiResp, err := p.makeRequest(ctx, apiReq)
		if err != nil {
			return nil, fmt.Errorf("Anthropic API error: %w", err)
		}
		out.Model = apiResp.Model
		out.TokensUsed += apiResp.Usage.InputTokens + apiResp.Usage.OutputTokens

		var text strings.Builder
		var results []anthropicBlock
		for _, block := range apiResp.Content {
			switch block.Type {
			case "text":
				text.WriteString(block.Text)
			case "tool_use":
				out.ToolCalls++
				args, _ := block.Input.(map[string]any)
				res, failed := invokeTool(ctx, req.Tools, block.Name, args)
				p.logger.Debug("tool call", zap.String("tool", block.Name), zap.Int("round", round))
				results = append(results, anthropicBlock{Type: "tool_result", ToolUseID: block.ID, Content: res, IsError: failed})
			}
		}

		if apiResp.StopReason != "tool_use" || len(results) == 0 {
			out.Text = strings.TrimSpace(text.String())
			if out.Text == "" {
				return nil, fmt.Errorf("anthropic: %w", ErrEmptyResponse)
			}
			return out, nil
		}
		if round >= p.config.maxToolRounds() {
			return nil, fmt.Errorf("anthropic: %w after %d rounds", ErrToolRounds, round)
		}

		apiReq.Messages = append(apiReq.Messages,
			anthropicMessage{Role: "assistant", Content: apiResp.Content},
			anthropicMessage{Role: "user", Content: results},
		)
	}
}

// makeRequest makes an HTTP request to the Anthropic API
func (p *AnthropicProvider) makeRequest(ctx context.Context, apiReq anthropicRequest) (*anthropicResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/messages", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr anthropicError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, &anthropicStatusError{StatusCode: httpResp.StatusCode, Message: apiErr.Error.Type + " - " + apiErr.Error.Message}
		}
		return nil, &anthropicStatusError{StatusCode: httpResp.StatusCode, Message: string(respBody)}
	}

	var resp anthropicResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &resp, nil
}
