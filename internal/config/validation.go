package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.Server.validate(); err != nil {
		return err
	}
	if err := c.Providers.validate(); err != nil {
		return err
	}
	return c.Relay.validate(&c.Providers)
}

func (s *ServerConfig) validate() error {
	if s.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be > 0")
	}
	if s.ReadTimeoutSeconds <= 0 || s.WriteTimeoutSeconds <= 0 {
		return fmt.Errorf("server timeouts must be > 0")
	}
	return nil
}

func (p *ProvidersConfig) validate() error {
	enabled := 0
	if p.Gemini.Enabled {
		enabled++
		if strings.TrimSpace(p.Gemini.Model) == "" {
			return fmt.Errorf("providers.gemini.model cannot be empty")
		}
		if strings.TrimSpace(p.Gemini.APIKeyEnv) == "" {
			return fmt.Errorf("providers.gemini.api_key_env cannot be empty")
		}
	}
	seen := make(map[string]struct{}, len(p.OpenAI))
	for i, o := range p.OpenAI {
		if !o.Enabled {
			continue
		}
		enabled++
		if strings.TrimSpace(o.Model) == "" {
			return fmt.Errorf("providers.openai[%d] missing model", i)
		}
		id := strings.TrimSpace(o.ID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("providers.openai contains duplicate id: %s", id)
		}
		seen[id] = struct{}{}
	}
	if enabled == 0 {
		return fmt.Errorf("providers requires at least one enabled provider")
	}
	return nil
}

func (r *RelayConfig) validate(p *ProvidersConfig) error {
	if r.MaxOutputTokens < 0 {
		return fmt.Errorf("relay.max_output_tokens must be >= 0")
	}
	def := strings.TrimSpace(r.DefaultProvider)
	if def == "" {
		return fmt.Errorf("relay.default_provider cannot be empty")
	}
	if strings.EqualFold(def, "gemini") {
		if !p.Gemini.Enabled {
			return fmt.Errorf("relay.default_provider is gemini but providers.gemini is disabled")
		}
		return nil
	}
	for _, o := range p.OpenAI {
		if !o.Enabled {
			continue
		}
		id := strings.TrimSpace(o.ID)
		if id == "" {
			// Factory derives openai:<model> for entries without an ID.
			id = "openai:" + strings.TrimSpace(o.Model)
		}
		if strings.EqualFold(id, def) {
			return nil
		}
	}
	return fmt.Errorf("relay.default_provider %q does not match any enabled provider", def)
}
