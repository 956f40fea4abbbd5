package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subhan986/JoJo-Stand-connector/internal/model"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantName string
		wantErr  bool
	}{
		{"openai", Config{Provider: "openai", APIKey: "k"}, "openai", false},
		{"gemini", Config{Provider: "gemini", APIKey: "k"}, "gemini", false},
		{"claude alias", Config{Provider: "Claude", APIKey: "k"}, "anthropic", false},
		{"ollama", Config{Provider: "ollama", Model: "llama3.1"}, "ollama", false},
		{"disabled", Config{}, "", false},
		{"unknown", Config{Provider: "bard"}, "", true},
		{"missing key", Config{Provider: "openai"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(context.Background(), tt.config)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			if tt.wantName == "" {
				assert.Nil(t, p)
				return
			}
			require.NotNil(t, p)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestNewProvider_MissingKey(t *testing.T) {
	for _, name := range []string{"openai", "gemini", "anthropic"} {
		p, err := NewProvider(context.Background(), Config{Provider: name})
		assert.ErrorIs(t, err, ErrMissingAPIKey, name)
		assert.Nil(t, p, name)
	}

	g, err := NewImageGenerator(context.Background(), Config{Provider: "gemini"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Nil(t, g)
}

func TestNewImageGenerator(t *testing.T) {
	g, err := NewImageGenerator(context.Background(), Config{Provider: "openai", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai", g.Name())

	_, err = NewImageGenerator(context.Background(), Config{Provider: "ollama", Model: "x"})
	assert.Error(t, err, "ollama cannot render images")

	g, err = NewImageGenerator(context.Background(), Config{})
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestConfigFromModel(t *testing.T) {
	c := ConfigFromModel(model.LLMConfig{
		Provider:      "anthropic",
		Model:         "claude-3-5-sonnet-20241022",
		APIKey:        "k",
		Timeout:       30 * time.Second,
		MaxToolRounds: 2,
	}, nil, nil)
	assert.Equal(t, "anthropic", c.Provider)
	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.Equal(t, 2, c.maxToolRounds())

	img := ImageConfigFromModel(model.DefaultConfig().Image, nil, nil)
	assert.Equal(t, "512x512", img.Size)
	assert.Equal(t, "gemini", img.Provider)
}
