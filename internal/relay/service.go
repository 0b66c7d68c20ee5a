// Package relay implements the core forwarding flow: validate the prompt,
// resolve a provider, hand over the payload, time the call, return the text.
package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"promptrelay/internal/config"
	"promptrelay/internal/gateway/provider"
	"promptrelay/internal/logger"
	"promptrelay/internal/pkg/attach"
	"promptrelay/internal/prompt"
)

var (
	ErrEmptyPrompt     = errors.New("prompt cannot be empty")
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrUnsupportedAttachment means the resolved provider cannot take
	// the attachment kind in the request.
	ErrUnsupportedAttachment = errors.New("provider does not support attachment kind")
)

// Request is one relay exchange.
type Request struct {
	RequestID   string
	Prompt      string
	System      string
	Provider    string
	MaxTokens   int
	Attachments []attach.Attachment
}

// Result carries the model's text response back to transport.
type Result struct {
	RequestID string
	Provider  string
	Model     string
	Text      string
	Elapsed   time.Duration
}

// ProviderInfo is the capability summary served by /api/providers.
type ProviderInfo struct {
	ID       string   `json:"id"`
	Model    string   `json:"model"`
	Default  bool     `json:"default"`
	Supports []string `json:"supports"`
}

type Service struct {
	providers map[string]provider.ModelProvider
	order     []string
	defaultID string
	prompts   *prompt.Store
	sysName   string
	maxTokens int
}

func NewService(providers []provider.ModelProvider, cfg config.RelayConfig, prompts *prompt.Store) (*Service, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("relay service requires at least one provider")
	}
	s := &Service{
		providers: make(map[string]provider.ModelProvider, len(providers)),
		prompts:   prompts,
		sysName:   strings.TrimSpace(cfg.SystemTemplate),
		maxTokens: cfg.MaxOutputTokens,
	}
	for _, p := range providers {
		id := strings.ToLower(strings.TrimSpace(p.ID()))
		if id == "" {
			return nil, fmt.Errorf("provider with empty id")
		}
		if _, dup := s.providers[id]; dup {
			return nil, fmt.Errorf("duplicate provider id: %s", id)
		}
		s.providers[id] = p
		s.order = append(s.order, id)
	}
	s.defaultID = strings.ToLower(strings.TrimSpace(cfg.DefaultProvider))
	if _, ok := s.providers[s.defaultID]; !ok {
		return nil, fmt.Errorf("default provider %q is not configured", cfg.DefaultProvider)
	}
	return s, nil
}

// Generate forwards one request to its provider. All validation errors are
// reported before the network call happens.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	promptText := strings.TrimSpace(req.Prompt)
	if promptText == "" {
		return Result{}, ErrEmptyPrompt
	}
	p, err := s.resolve(req.Provider)
	if err != nil {
		return Result{}, err
	}
	for _, att := range req.Attachments {
		if !p.Supports(att.Kind) {
			return Result{}, fmt.Errorf("%w: %s cannot take %s", ErrUnsupportedAttachment, p.ID(), att.Kind)
		}
	}

	payload := provider.ChatPayload{
		System:      s.systemPrompt(req.System),
		User:        promptText,
		Attachments: req.Attachments,
		MaxTokens:   req.MaxTokens,
	}
	if payload.MaxTokens <= 0 {
		payload.MaxTokens = s.maxTokens
	}

	logger.LogLLMRequest(req.RequestID, p.ID(), payload.System, payload.User)
	start := time.Now()
	text, err := p.Call(ctx, payload)
	elapsed := time.Since(start)
	if err != nil {
		logger.Errorf("relay call failed provider=%s request=%s dur=%s: %v", p.ID(), req.RequestID, elapsed, err)
		return Result{}, err
	}
	logger.LogLLMResponse(req.RequestID, p.ID(), text)
	logger.Infof("relay ok provider=%s model=%s request=%s attachments=%d dur=%s",
		p.ID(), p.Model(), req.RequestID, len(req.Attachments), elapsed)

	return Result{
		RequestID: req.RequestID,
		Provider:  p.ID(),
		Model:     p.Model(),
		Text:      text,
		Elapsed:   elapsed,
	}, nil
}

// ListModels asks the named provider (or the default) for its model list.
func (s *Service) ListModels(ctx context.Context, providerID string) ([]provider.ModelInfo, error) {
	p, err := s.resolve(providerID)
	if err != nil {
		return nil, err
	}
	return p.ListModels(ctx)
}

// Providers returns capability summaries in registration order.
func (s *Service) Providers() []ProviderInfo {
	out := make([]ProviderInfo, 0, len(s.order))
	for _, id := range s.order {
		p := s.providers[id]
		var kinds []string
		for _, k := range []attach.Kind{attach.KindImage, attach.KindDocument, attach.KindAudio} {
			if p.Supports(k) {
				kinds = append(kinds, string(k))
			}
		}
		out = append(out, ProviderInfo{
			ID:       p.ID(),
			Model:    p.Model(),
			Default:  id == s.defaultID,
			Supports: kinds,
		})
	}
	return out
}

func (s *Service) resolve(id string) (provider.ModelProvider, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		id = s.defaultID
	}
	p, ok := s.providers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, id)
	}
	return p, nil
}

func (s *Service) systemPrompt(override string) string {
	if sys := strings.TrimSpace(override); sys != "" {
		return sys
	}
	if s.prompts == nil || s.sysName == "" {
		return ""
	}
	if txt, ok := s.prompts.Get(s.sysName); ok {
		return txt
	}
	return ""
}
