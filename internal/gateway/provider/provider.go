package provider

import (
	"context"

	"promptrelay/internal/pkg/attach"
)

// ChatPayload is one relay exchange handed to a provider.
type ChatPayload struct {
	System      string
	User        string
	Attachments []attach.Attachment
	MaxTokens   int
}

// ModelInfo describes one model a provider can serve.
type ModelInfo struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name,omitempty"`
	Description   string `json:"description,omitempty"`
	InputTokenMax int    `json:"input_token_limit,omitempty"`
}

// ModelProvider is a single upstream generative-AI endpoint.
type ModelProvider interface {
	ID() string
	Model() string
	Enabled() bool
	Supports(kind attach.Kind) bool

	Call(ctx context.Context, payload ChatPayload) (string, error)
	ListModels(ctx context.Context) ([]ModelInfo, error)
}
