package provider

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"promptrelay/internal/config"
	"promptrelay/internal/logger"
)

// BuildProviders constructs the provider set from config. API keys come
// from the environment only. A missing key is a warning, not a startup
// failure; the first call against that provider reports it.
func BuildProviders(ctx context.Context, cfg *config.ProvidersConfig) ([]ModelProvider, error) {
	var out []ModelProvider

	if cfg.Gemini.Enabled {
		key := os.Getenv(cfg.Gemini.APIKeyEnv)
		if key == "" {
			logger.Warnf("%s is not set; gemini calls will fail", cfg.Gemini.APIKeyEnv)
		}
		gp, err := NewGeminiProvider(ctx, key, cfg.Gemini.Model, time.Duration(cfg.Gemini.TimeoutSeconds)*time.Second)
		if err != nil {
			return nil, err
		}
		out = append(out, gp)
	}

	for _, m := range cfg.OpenAI {
		if !m.Enabled {
			continue
		}
		id := strings.TrimSpace(m.ID)
		if id == "" {
			id = fmt.Sprintf("openai:%s", strings.TrimSpace(m.Model))
			logger.Warnf("providers.openai entry without id, derived %q", id)
		}
		key := os.Getenv(m.APIKeyEnv)
		if key == "" {
			logger.Warnf("%s is not set; %s calls will fail", m.APIKeyEnv, id)
		}
		client := &OpenAIChatClient{
			BaseURL:      m.APIURL,
			APIKey:       key,
			Model:        m.Model,
			Timeout:      time.Duration(m.TimeoutSeconds) * time.Second,
			MaxRetries:   m.MaxRetries,
			ExtraHeaders: m.Headers,
		}
		out = append(out, NewOpenAIModelProvider(id, m.SupportsVision, client))
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no enabled providers configured")
	}
	return out, nil
}
