package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subhan986/JoJo-Stand-connector/internal/datauri"
)

func newGeminiTestServer(t *testing.T, handler func(body string) string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(handler(string(body))))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGeminiProvider_Generate_Success(t *testing.T) {
	server := newGeminiTestServer(t, func(body string) string {
		assert.Contains(t, body, `"responseMimeType":"application/json"`)
		assert.Contains(t, body, `"inlineData"`)
		return `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"connectionTitle\":\"T\"}"}]}}],"usageMetadata":{"totalTokenCount":12}}`
	})

	provider, err := NewGeminiProvider(context.Background(), Config{APIKey: "test-key", BaseURL: server.URL, Model: "gemini-2.0-flash"})
	require.NoError(t, err)

	audio, _ := datauri.Parse("data:audio/mpeg;base64,SUQz")
	resp, err := provider.Generate(context.Background(), GenerateRequest{Prompt: "listen", Media: []*datauri.DataURI{audio}, JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"connectionTitle":"T"}`, resp.Text)
	assert.Equal(t, 12, resp.TokensUsed)
}

func TestGeminiProvider_Generate_FunctionCall(t *testing.T) {
	var calls int32
	server := newGeminiTestServer(t, func(body string) string {
		if atomic.AddInt32(&calls, 1) == 1 {
			assert.NotContains(t, body, "responseMimeType", "JSON mime type cannot be combined with tools")
			return `{"candidates":[{"content":{"role":"model","parts":[{"functionCall":{"name":"getYouTubeTranscript","args":{"url":"https://youtu.be/z"}}}]}}]}`
		}
		assert.Contains(t, body, `"functionResponse"`)
		assert.Contains(t, body, "ZA WARUDO")
		return `{"candidates":[{"content":{"role":"model","parts":[{"text":"done"}]}}]}`
	})

	provider, _ := NewGeminiProvider(context.Background(), Config{APIKey: "test-key", BaseURL: server.URL})

	var asked string
	resp, err := provider.Generate(context.Background(), GenerateRequest{Prompt: "video", Tools: []Tool{transcriptTool(&asked)}, JSON: true})
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Text)
	assert.Equal(t, 1, resp.ToolCalls)
	assert.Equal(t, "https://youtu.be/z", asked)
}

func TestGeminiProvider_Generate_NoCandidates(t *testing.T) {
	server := newGeminiTestServer(t, func(string) string { return `{"candidates":[]}` })

	provider, _ := NewGeminiProvider(context.Background(), Config{APIKey: "test-key", BaseURL: server.URL})

	_, err := provider.Generate(context.Background(), GenerateRequest{Prompt: "x"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGeminiProvider_GenerateImage(t *testing.T) {
	server := newGeminiTestServer(t, func(body string) string {
		assert.Contains(t, body, "IMAGE")
		return `{"candidates":[{"content":{"role":"model","parts":[{"text":"here"},{"inlineData":{"mimeType":"image/png","data":"iVBORw0KGgo="}}]}}]}`
	})

	provider, _ := NewGeminiProvider(context.Background(), Config{APIKey: "test-key", BaseURL: server.URL})

	uri, err := provider.GenerateImage(context.Background(), "Dio, chibi")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", uri)
}

func TestGeminiProvider_GenerateImage_TextOnly(t *testing.T) {
	server := newGeminiTestServer(t, func(string) string {
		return `{"candidates":[{"content":{"role":"model","parts":[{"text":"I cannot draw that"}]}}]}`
	})

	provider, _ := NewGeminiProvider(context.Background(), Config{APIKey: "test-key", BaseURL: server.URL})

	_, err := provider.GenerateImage(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
