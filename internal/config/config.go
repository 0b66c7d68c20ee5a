package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML config at path, following include directives, then
// applies defaults for keys the files did not set and validates the result.
func Load(path string) (*Config, error) {
	files, err := resolveConfigIncludes(path)
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigType("yaml")
	for _, file := range files {
		if err := mergeConfigFile(v, file); err != nil {
			return nil, fmt.Errorf("reading config file failed (%s): %w", file, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	setKeys := make(keySet)
	collectSettingsKeys(v.AllSettings(), setKeys)
	cfg.applyDefaults(setKeys)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mergeConfigFile(v *viper.Viper, path string) error {
	tmp := viper.New()
	tmp.SetConfigFile(path)
	if err := tmp.ReadInConfig(); err != nil {
		return err
	}
	return v.MergeConfigMap(tmp.AllSettings())
}

func resolveConfigIncludes(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	stack := make(map[string]bool)
	files, err := collectConfigFiles(abs, seen, stack)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return []string{abs}, nil
	}
	return files, nil
}

// collectConfigFiles returns includes depth-first so later files win merges.
func collectConfigFiles(path string, seen, stack map[string]bool) ([]string, error) {
	path = filepath.Clean(path)
	if stack[path] {
		return nil, fmt.Errorf("include cycle detected: %s", path)
	}
	if seen[path] {
		return nil, nil
	}
	stack[path] = true
	includes, err := parseIncludeList(path)
	if err != nil {
		return nil, fmt.Errorf("parsing include failed (%s): %w", path, err)
	}
	dir := filepath.Dir(path)
	var ordered []string
	for _, inc := range includes {
		inc = strings.TrimSpace(inc)
		if inc == "" {
			continue
		}
		incPath := inc
		if !filepath.IsAbs(inc) {
			incPath = filepath.Join(dir, inc)
		}
		sub, err := collectConfigFiles(incPath, seen, stack)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, sub...)
	}
	delete(stack, path)
	seen[path] = true
	ordered = append(ordered, path)
	return ordered, nil
}

func parseIncludeList(path string) ([]string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	raw := v.Get("include")
	if raw == nil {
		return nil, nil
	}
	switch val := raw.(type) {
	case string:
		return []string{val}, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("include entries must be strings")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("include must be a string or string array")
	}
}

func collectSettingsKeys(settings map[string]any, dest keySet) {
	if dest == nil || len(settings) == 0 {
		return
	}
	flattenConfigKeys("", settings, dest)
}

func flattenConfigKeys(prefix string, node any, dest keySet) {
	switch val := node.(type) {
	case map[string]any:
		for k, v := range val {
			next := strings.ToLower(strings.TrimSpace(k))
			if next == "" {
				continue
			}
			if prefix != "" {
				next = prefix + "." + next
			}
			flattenConfigKeys(next, v, dest)
		}
	case []any:
		if prefix != "" {
			dest.mark(prefix)
		}
		for _, item := range val {
			flattenConfigKeys(prefix, item, dest)
		}
	default:
		if prefix != "" {
			dest.mark(prefix)
		}
	}
}

// Dump renders the effective config as YAML with API key env var names
// left intact (values never live in the config, so nothing to redact).
func (c *Config) Dump() (string, error) {
	out, err := yaml.Marshal(dumpView(c))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func dumpView(c *Config) map[string]any {
	openai := make([]map[string]any, 0, len(c.Providers.OpenAI))
	for _, o := range c.Providers.OpenAI {
		openai = append(openai, map[string]any{
			"id":              o.ID,
			"enabled":         o.Enabled,
			"api_url":         o.APIURL,
			"model":           o.Model,
			"api_key_env":     o.APIKeyEnv,
			"timeout_seconds": o.TimeoutSeconds,
			"max_retries":     o.MaxRetries,
			"supports_vision": o.SupportsVision,
		})
	}
	return map[string]any{
		"app": map[string]any{
			"env":              c.App.Env,
			"log_level":        c.App.LogLevel,
			"http_addr":        c.App.HTTPAddr,
			"log_path":         c.App.LogPath,
			"llm_log_path":     c.App.LLMLog,
			"llm_dump_payload": c.App.LLMDump,
		},
		"server": map[string]any{
			"max_upload_bytes":      c.Server.MaxUploadBytes,
			"read_timeout_seconds":  c.Server.ReadTimeoutSeconds,
			"write_timeout_seconds": c.Server.WriteTimeoutSeconds,
		},
		"relay": map[string]any{
			"default_provider":  c.Relay.DefaultProvider,
			"max_output_tokens": c.Relay.MaxOutputTokens,
			"system_template":   c.Relay.SystemTemplate,
		},
		"prompt": map[string]any{
			"dir":   c.Prompt.Dir,
			"watch": c.Prompt.Watch,
		},
		"providers": map[string]any{
			"gemini": map[string]any{
				"enabled":         c.Providers.Gemini.Enabled,
				"model":           c.Providers.Gemini.Model,
				"api_key_env":     c.Providers.Gemini.APIKeyEnv,
				"timeout_seconds": c.Providers.Gemini.TimeoutSeconds,
			},
			"openai": openai,
		},
	}
}
