package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"promptrelay/internal/pkg/attach"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiProvider speaks to Google Gemini through the official SDK.
// It accepts image, document and audio attachments as inline blob parts.
type GeminiProvider struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiProvider(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiProvider, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("gemini: model cannot be empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiProvider{client: client, model: model, timeout: timeout}, nil
}

func (p *GeminiProvider) ID() string    { return "gemini" }
func (p *GeminiProvider) Model() string { return p.model }
func (p *GeminiProvider) Enabled() bool { return true }

func (p *GeminiProvider) Supports(kind attach.Kind) bool {
	switch kind {
	case attach.KindImage, attach.KindDocument, attach.KindAudio:
		return true
	}
	return false
}

func (p *GeminiProvider) Call(ctx context.Context, payload ChatPayload) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	model := p.client.GenerativeModel(p.model)
	if sys := strings.TrimSpace(payload.System); sys != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(sys)}}
	}
	if payload.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(payload.MaxTokens))
	}

	parts := make([]genai.Part, 0, len(payload.Attachments)+1)
	parts = append(parts, genai.Text(payload.User))
	for _, att := range payload.Attachments {
		parts = append(parts, genai.Blob{MIMEType: att.MIME, Data: att.Data})
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	return extractGeminiText(resp)
}

func extractGeminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini: response contains no candidates")
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", fmt.Errorf("gemini: candidate has no content (finish reason: %v)", cand.FinishReason)
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	out := b.String()
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("gemini: candidate contains no text parts")
	}
	return out, nil
}

func (p *GeminiProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var out []ModelInfo
	it := p.client.ListModels(ctx)
	for {
		m, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gemini: listing models: %w", err)
		}
		out = append(out, ModelInfo{
			ID:            strings.TrimPrefix(m.Name, "models/"),
			DisplayName:   m.DisplayName,
			Description:   m.Description,
			InputTokenMax: int(m.InputTokenLimit),
		})
	}
	return out, nil
}

// Close releases the underlying SDK client.
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}
