package config

import "strings"

const (
	defaultAppEnv           = "dev"
	defaultAppLogLevel      = "info"
	defaultAppHTTPAddr      = ":8089"
	defaultMaxUploadBytes   = int64(20 << 20)
	defaultReadTimeoutSecs  = 30
	defaultWriteTimeoutSecs = 120
	defaultProvider         = "gemini"
	defaultPromptDir        = "prompts"
	defaultGeminiModel      = "gemini-2.0-flash"
	defaultGeminiKeyEnv     = "GEMINI_API_KEY"
	defaultGeminiTimeout    = 60
	defaultOpenAIURL        = "https://api.openai.com/v1"
	defaultOpenAIKeyEnv     = "OPENAI_API_KEY"
	defaultOpenAITimeout    = 60
	defaultOpenAIRetries    = 2
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Server.applyDefaults(keys)
	c.Relay.applyDefaults(keys)
	c.Prompt.applyDefaults(keys)
	c.Providers.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
	)
}

func (s *ServerConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		int64FieldDefault("server.max_upload_bytes", &s.MaxUploadBytes, defaultMaxUploadBytes),
		intFieldDefault("server.read_timeout_seconds", &s.ReadTimeoutSeconds, defaultReadTimeoutSecs),
		intFieldDefault("server.write_timeout_seconds", &s.WriteTimeoutSeconds, defaultWriteTimeoutSecs),
	)
}

func (r *RelayConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("relay.default_provider", &r.DefaultProvider, defaultProvider),
	)
}

func (p *PromptConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("prompt.dir", &p.Dir, defaultPromptDir),
	)
}

func (p *ProvidersConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	// Gemini is on unless the file says otherwise; the original harness
	// only ever spoke to Gemini.
	if !keys.isSet("providers.gemini.enabled") {
		p.Gemini.Enabled = true
	}
	applyFieldDefaults(keys,
		stringFieldDefault("providers.gemini.model", &p.Gemini.Model, defaultGeminiModel),
		stringFieldDefault("providers.gemini.api_key_env", &p.Gemini.APIKeyEnv, defaultGeminiKeyEnv),
		intFieldDefault("providers.gemini.timeout_seconds", &p.Gemini.TimeoutSeconds, defaultGeminiTimeout),
	)
	for i := range p.OpenAI {
		o := &p.OpenAI[i]
		if strings.TrimSpace(o.APIURL) == "" {
			o.APIURL = defaultOpenAIURL
		}
		if strings.TrimSpace(o.APIKeyEnv) == "" {
			o.APIKeyEnv = defaultOpenAIKeyEnv
		}
		if o.TimeoutSeconds <= 0 {
			o.TimeoutSeconds = defaultOpenAITimeout
		}
		if o.MaxRetries <= 0 {
			o.MaxRetries = defaultOpenAIRetries
		}
	}
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func int64FieldDefault(key string, target *int64, def int64) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
