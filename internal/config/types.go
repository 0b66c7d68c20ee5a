package config

import "strings"

// Config is the top-level configuration for the relay service.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Prompt    PromptConfig    `mapstructure:"prompt"`
	Providers ProvidersConfig `mapstructure:"providers"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	HTTPAddr string `mapstructure:"http_addr"`
	LogPath  string `mapstructure:"log_path"`
	LLMLog   string `mapstructure:"llm_log_path"`
	LLMDump  bool   `mapstructure:"llm_dump_payload"`
}

type ServerConfig struct {
	MaxUploadBytes      int64 `mapstructure:"max_upload_bytes"`
	ReadTimeoutSeconds  int   `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int   `mapstructure:"write_timeout_seconds"`
}

// RelayConfig controls how requests are forwarded to a provider.
type RelayConfig struct {
	DefaultProvider string `mapstructure:"default_provider"`
	MaxOutputTokens int    `mapstructure:"max_output_tokens"`
	// SystemTemplate names a template in prompt.dir prepended as the
	// system prompt when the request carries none.
	SystemTemplate string `mapstructure:"system_template"`
}

type PromptConfig struct {
	Dir   string `mapstructure:"dir"`
	Watch bool   `mapstructure:"watch"`
}

type ProvidersConfig struct {
	Gemini GeminiConfig   `mapstructure:"gemini"`
	OpenAI []OpenAIConfig `mapstructure:"openai"`
}

// GeminiConfig describes the Google Gemini provider. The API key is only
// ever read from the environment variable named by APIKeyEnv.
type GeminiConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Model          string `mapstructure:"model"`
	APIKeyEnv      string `mapstructure:"api_key_env"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// OpenAIConfig describes one OpenAI-compatible chat-completions endpoint.
type OpenAIConfig struct {
	ID             string            `mapstructure:"id"`
	Enabled        bool              `mapstructure:"enabled"`
	APIURL         string            `mapstructure:"api_url"`
	Model          string            `mapstructure:"model"`
	APIKeyEnv      string            `mapstructure:"api_key_env"`
	TimeoutSeconds int               `mapstructure:"timeout_seconds"`
	MaxRetries     int               `mapstructure:"max_retries"`
	SupportsVision bool              `mapstructure:"supports_vision"`
	Headers        map[string]string `mapstructure:"headers"`
}

// keySet tracks config key paths explicitly present in the file, so
// defaults never clobber values the user set to a zero value.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}
