package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subhan986/JoJo-Stand-connector/internal/datauri"
	"github.com/subhan986/JoJo-Stand-connector/internal/retry"
)

func TestAnthropicProvider_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req anthropicRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "persona", req.System)
		blocks := req.Messages[0].Content
		if assert.Len(t, blocks, 2) {
			assert.Equal(t, "document", blocks[0].Type)
			if assert.NotNil(t, blocks[0].Source) {
				assert.Equal(t, "application/pdf", blocks[0].Source.MediaType)
			}
		}

		_, _ = w.Write([]byte(`{
			"id": "msg_123", "type": "message", "role": "assistant",
			"content": [{"type": "text", "text": "{\"connectionTitle\":\"T\"}"}],
			"model": "claude-3-5-sonnet-20241022", "stop_reason": "end_turn",
			"usage": {"input_tokens": 50, "output_tokens": 50}
		}`))
	}))
	defer server.Close()

	provider, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	pdf, _ := datauri.Parse("data:application/pdf;base64,JVBERi0=")
	resp, err := provider.Generate(context.Background(), GenerateRequest{
		System: "persona",
		Prompt: "read this",
		Media:  []*datauri.DataURI{pdf},
		JSON:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"connectionTitle":"T"}`, resp.Text)
	assert.Equal(t, 100, resp.TokensUsed)
}

func TestAnthropicProvider_Generate_ToolUse(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		if atomic.AddInt32(&calls, 1) == 1 {
			if assert.Len(t, req.Tools, 1) {
				assert.Equal(t, "getYouTubeTranscript", req.Tools[0].Name)
			}
			_, _ = w.Write([]byte(`{
				"content": [{"type": "tool_use", "id": "toolu_1", "name": "getYouTubeTranscript", "input": {"url": "https://youtu.be/x"}}],
				"model": "claude", "stop_reason": "tool_use"
			}`))
			return
		}

		last := req.Messages[len(req.Messages)-1]
		assert.Equal(t, "user", last.Role)
		if assert.Len(t, last.Content, 1) {
			assert.Equal(t, "toolu_1", last.Content[0].ToolUseID)
			assert.Equal(t, "ZA WARUDO", last.Content[0].Content)
		}
		_, _ = w.Write([]byte(`{"content": [{"type": "text", "text": "done"}], "model": "claude", "stop_reason": "end_turn"}`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})

	var asked string
	resp, err := provider.Generate(context.Background(), GenerateRequest{Prompt: "video", Tools: []Tool{transcriptTool(&asked)}})
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Text)
	assert.Equal(t, 1, resp.ToolCalls)
	assert.Equal(t, "https://youtu.be/x", asked)
}

func TestAnthropicProvider_Generate_StatusIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "overloaded_error", "message": "Overloaded"}}`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})

	_, err := provider.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	require.Error(t, err)
	var statusErr *anthropicStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.True(t, retry.IsTransient(err), "503 is transient")
}

func TestAnthropicProvider_Generate_UnsupportedMedia(t *testing.T) {
	provider, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: "http://127.0.0.1:0"})

	audio, _ := datauri.Parse("data:audio/mpeg;base64,SUQz")
	_, err := provider.Generate(context.Background(), GenerateRequest{Prompt: "x", Media: []*datauri.DataURI{audio}})
	assert.ErrorIs(t, err, ErrUnsupportedMedia)
}

func TestAnthropicProvider_Generate_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": [], "stop_reason": "end_turn"}`))
	}))
	defer server.Close()

	provider, _ := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL})

	_, err := provider.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
