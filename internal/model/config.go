package model

import "time"

// Config is the full application configuration. Keys use snake_case in YAML
// and in viper (mapstructure) so `config init` output can be read back.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Fetch        FetchConfig        `yaml:"fetch" mapstructure:"fetch"`
	Transcript   TranscriptConfig   `yaml:"transcript" mapstructure:"transcript"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Image        ImageConfig        `yaml:"image" mapstructure:"image"`
	Evidence     EvidenceConfig     `yaml:"evidence" mapstructure:"evidence"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// HTTPConfig controls the outbound HTTP client
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// RetryConfig is an attempts/backoff pair. One attempt means no retry.
type RetryConfig struct {
	Attempts  int           `yaml:"attempts" mapstructure:"attempts"`
	BaseDelay time.Duration `yaml:"base_delay" mapstructure:"base_delay"`
}

// FetchConfig controls remote image retrieval
type FetchConfig struct {
	RespectRobots bool        `yaml:"respect_robots" mapstructure:"respect_robots"`
	Retry         RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// TranscriptConfig controls caption retrieval
type TranscriptConfig struct {
	Language string `yaml:"language" mapstructure:"language"`
	BaseURL  string `yaml:"base_url,omitempty" mapstructure:"base_url"` // site root, YouTube when empty
}

// LLMConfig selects and tunes the narrative provider
type LLMConfig struct {
	Provider      string        `yaml:"provider" mapstructure:"provider"` // openai, gemini, anthropic, ollama
	Model         string        `yaml:"model" mapstructure:"model"`
	APIKey        string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL       string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	MaxTokens     int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature   float32       `yaml:"temperature" mapstructure:"temperature"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxToolRounds int           `yaml:"max_tool_rounds" mapstructure:"max_tool_rounds"`
}

// ImageConfig controls slideshow illustration
type ImageConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"` // openai, gemini
	Model       string        `yaml:"model" mapstructure:"model"`
	APIKey      string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Size        string        `yaml:"size" mapstructure:"size"`
	Concurrency int           `yaml:"concurrency" mapstructure:"concurrency"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Interval    time.Duration `yaml:"interval" mapstructure:"interval"` // minimum spacing between requests, 0 disables pacing
	StyleSuffix string        `yaml:"style_suffix" mapstructure:"style_suffix"`
	Placeholder string        `yaml:"placeholder" mapstructure:"placeholder"`
	Retry       RetryConfig   `yaml:"retry" mapstructure:"retry"`
}

// EvidenceConfig controls supporting evidence link checks
type EvidenceConfig struct {
	CheckLinks  bool          `yaml:"check_links" mapstructure:"check_links"`
	Concurrency int           `yaml:"concurrency" mapstructure:"concurrency"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries  int           `yaml:"max_retries" mapstructure:"max_retries"`
}

// CacheConfig controls the in-process and disk caches
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Dir     string        `yaml:"dir" mapstructure:"dir"` // empty disables the disk layer
}

// RateLimitingConfig paces outbound requests per host
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig sizes the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	AllowOrigins    []string      `yaml:"allow_origins" mapstructure:"allow_origins"`
	Mode            string        `yaml:"mode" mapstructure:"mode"` // gin mode: debug, release, test
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level    string `yaml:"level" mapstructure:"level"`
	Encoding string `yaml:"encoding" mapstructure:"encoding"` // json or console
	Output   string `yaml:"output" mapstructure:"output"`
}

// DefaultStyleSuffix is appended to every slideshow prompt
const DefaultStyleSuffix = ", in a chibi (cute) style. The background should be simple, transparent, and not distracting."

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:      15 * time.Second,
			UserAgent:    "stand-connector/0.1",
			MaxBodyBytes: 10 << 20,
		},
		Fetch: FetchConfig{
			Retry: RetryConfig{Attempts: 1, BaseDelay: 500 * time.Millisecond},
		},
		Transcript: TranscriptConfig{
			Language: "en",
		},
		LLM: LLMConfig{
			Provider:      "gemini",
			Model:         "gemini-2.0-flash",
			MaxTokens:     2048,
			Temperature:   0.9,
			Timeout:       60 * time.Second,
			MaxToolRounds: 4,
		},
		Image: ImageConfig{
			Provider:    "gemini",
			Model:       "gemini-2.0-flash-preview-image-generation",
			Size:        "512x512",
			Concurrency: 4,
			Timeout:     60 * time.Second,
			StyleSuffix: DefaultStyleSuffix,
			Placeholder: PlaceholderImage,
			Retry:       RetryConfig{Attempts: 1, BaseDelay: time.Second},
		},
		Evidence: EvidenceConfig{
			Concurrency: 4,
			Timeout:     10 * time.Second,
			MaxRetries:  1,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2.0,
			BurstSize:         4,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			MaxBodyBytes:    10 << 20,
			ShutdownTimeout: 5 * time.Second,
			AllowOrigins:    []string{"*"},
			Mode:            "release",
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
			Output:   "stderr",
		},
	}
}
