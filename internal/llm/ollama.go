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

// OllamaProvider implements Provider for local models served by Ollama
type OllamaProvider struct {
	baseURL    string
	httpClient *http.Client
	config     Config
	logger     *zap.Logger
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
	Format   string          `json:"format,omitempty"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Images    []string         `json:"images,omitempty"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
	ToolName  string           `json:"tool_name,omitempty"`
}

type ollamaTool struct {
	Type     string             `json:"type"`
	Function ollamaToolFunction `json:"function"`
}

type ollamaToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type ollamaToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count,omitempty"`
	EvalCount       int           `json:"eval_count,omitempty"`
}

type ollamaError struct {
	Error string `json:"error"`
}

type ollamaStatusError struct {
	StatusCode int
	Message    string
}

func (e *ollamaStatusError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func (e *ollamaStatusError) HTTPStatus() int { return e.StatusCode }

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3.1:8b, llava)")
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	return &OllamaProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: config.httpClient(),
		config:     config,
		logger:     logging.OrNop(config.Logger).Named("ollama"),
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable checks that the Ollama server answers /api/tags
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		p.logger.Warn("availability check failed", zap.Error(err))
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn("availability check failed", zap.String("base_url", p.baseURL), zap.Error(err))
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		p.logger.Warn("availability check failed", zap.String("base_url", p.baseURL), zap.Int("status", resp.StatusCode))
		return false
	}
	return true
}

// Generate uses /api/chat, feeding tool results back as tool messages
func (p *OllamaProvider) Generate(ctx context.Context, req GenerateRequest) (resp *GenerateResponse, err error) {
	start := time.Now()
	defer func() { metrics.ObserveProvider(p.Name(), "generate", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, p.config.timeout())
	defer cancel()

	user := ollamaMessage{Role: "user", Content: req.Prompt}
	for _, m := range req.Media {
		if !m.IsImage() {
			return nil, fmt.Errorf("ollama: %w: %s", ErrUnsupportedMedia, m.BaseMIMEType())
		}
		user.Images = append(user.Images, m.Base64())
	}

	apiReq := ollamaChatRequest{
		Model:  p.config.model(req, ""),
		Stream: false,
		Options: ollamaOptions{
			Temperature: p.config.Temperature,
			NumPredict:  p.config.maxTokens(req),
		},
	}
	if req.System != "" {
		apiReq.Messages = append(apiReq.Messages, ollamaMessage{Role: "system", Content: req.System})
	}
	apiReq.Messages = append(apiReq.Messages, user)
	for _, t := range req.Tools {
		apiReq.Tools = append(apiReq.Tools, ollamaTool{
			Type:     "function",
			Function: ollamaToolFunction{Name: t.Name, Description: t.Description, Parameters: t.JSONSchema()},
		})
	}
	if req.JSON {
		apiReq.Format = "json"
	}

	out := &GenerateResponse{}
	for round := 0; ; round++ {
		apiResp, err := p.makeRequest(ctx, apiReq)
		if err != nil {
			return nil, fmt.Errorf("ollama API error: %w", err)
		}
		out.Model = apiResp.Model
		out.TokensUsed += apiResp.PromptEvalCount + apiResp.EvalCount

		msg := apiResp.Message
		if len(msg.ToolCalls) == 0 {
			out.Text = strings.TrimSpace(msg.Content)
			if out.Text == "" {
				return nil, fmt.Errorf("ollama: %w", ErrEmptyResponse)
			}
			return out, nil
		}
		if round >= p.config.maxToolRounds() {
			return nil, fmt.Errorf("ollama: %w after %d rounds", ErrToolRounds, round)
		}

		apiReq.Messages = append(apiReq.Messages, msg)
		for _, call := range msg.ToolCalls {
			out.ToolCalls++
			res, _ := invokeTool(ctx, req.Tools, call.Function.Name, call.Function.Arguments)
			p.logger.Debug("tool call", zap.String("tool", call.Function.Name), zap.Int("round", round))
			apiReq.Messages = append(apiReq.Messages, ollamaMessage{Role: "tool", Content: res, ToolName: call.Function.Name})
		}
	}
}

// makeRequest makes an HTTP request to the Ollama chat API
func (p *OllamaProvider) makeRequest(ctx context.Context, apiReq ollamaChatRequest) (*ollamaChatResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

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
		var apiErr ollamaError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return nil, &ollamaStatusError{StatusCode: httpResp.StatusCode, Message: apiErr.Error}
		}
		return nil, &ollamaStatusError{StatusCode: httpResp.StatusCode, Message: string(respBody)}
	}

	var resp ollamaChatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &resp, nil
}
