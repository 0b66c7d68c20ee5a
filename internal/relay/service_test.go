package relay

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"promptrelay/internal/config"
	"promptrelay/internal/gateway/provider"
	"promptrelay/internal/pkg/attach"
	"promptrelay/internal/prompt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProvider struct {
	mock.Mock
	id     string
	model  string
	vision bool
}

func (m *MockProvider) ID() string    { return m.id }
func (m *MockProvider) Model() string { return m.model }
func (m *MockProvider) Enabled() bool { return true }

func (m *MockProvider) Supports(kind attach.Kind) bool {
	return kind == attach.KindImage && m.vision
}

func (m *MockProvider) Call(ctx context.Context, payload provider.ChatPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.ModelInfo), args.Error(1)
}

func newTestService(t *testing.T, providers ...provider.ModelProvider) *Service {
	t.Helper()
	svc, err := NewService(providers, config.RelayConfig{DefaultProvider: providers[0].ID()}, nil)
	require.NoError(t, err)
	return svc
}

func TestGenerateForwardsToDefaultProvider(t *testing.T) {
	p := &MockProvider{id: "gemini", model: "gemini-2.0-flash"}
	p.On("Call", mock.Anything, mock.MatchedBy(func(pl provider.ChatPayload) bool {
		return pl.User == "say hello"
	})).Return("hello!", nil)

	svc := newTestService(t, p)
	res, err := svc.Generate(context.Background(), Request{RequestID: "r1", Prompt: "say hello"})
	require.NoError(t, err)

	assert.Equal(t, "hello!", res.Text)
	assert.Equal(t, "gemini", res.Provider)
	assert.Equal(t, "gemini-2.0-flash", res.Model)
	assert.Equal(t, "r1", res.RequestID)
	p.AssertExpectations(t)
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	svc := newTestService(t, &MockProvider{id: "gemini"})
	_, err := svc.Generate(context.Background(), Request{Prompt: "   "})
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestGenerateRejectsUnknownProvider(t *testing.T) {
	svc := newTestService(t, &MockProvider{id: "gemini"})
	_, err := svc.Generate(context.Background(), Request{Prompt: "hi", Provider: "nope"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestGenerateRejectsUnsupportedAttachment(t *testing.T) {
	p := &MockProvider{id: "openai:gpt-4o", vision: true}
	svc := newTestService(t, p)

	_, err := svc.Generate(context.Background(), Request{
		Prompt:      "listen",
		Attachments: []attach.Attachment{{Kind: attach.KindAudio, MIME: "audio/mpeg"}},
	})
	assert.ErrorIs(t, err, ErrUnsupportedAttachment)
	p.AssertNotCalled(t, "Call", mock.Anything, mock.Anything)
}

func TestGeneratePassesProviderErrorThrough(t *testing.T) {
	p := &MockProvider{id: "gemini"}
	wantErr := errors.New("upstream exploded")
	p.On("Call", mock.Anything, mock.Anything).Return("", wantErr)

	svc := newTestService(t, p)
	_, err := svc.Generate(context.Background(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, wantErr)
}

func TestGenerateAppliesSystemTemplate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assistant.txt"), []byte("be brief"), 0o644))
	store, err := prompt.NewStore(dir, false)
	require.NoError(t, err)
	defer store.Close()

	p := &MockProvider{id: "gemini"}
	p.On("Call", mock.Anything, mock.MatchedBy(func(pl provider.ChatPayload) bool {
		return pl.System == "be brief"
	})).Return("ok", nil)

	svc, err := NewService([]provider.ModelProvider{p},
		config.RelayConfig{DefaultProvider: "gemini", SystemTemplate: "assistant"}, store)
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	p.AssertExpectations(t)
}

func TestGenerateRequestSystemOverridesTemplate(t *testing.T) {
	p := &MockProvider{id: "gemini"}
	p.On("Call", mock.Anything, mock.MatchedBy(func(pl provider.ChatPayload) bool {
		return pl.System == "custom"
	})).Return("ok", nil)

	svc := newTestService(t, p)
	_, err := svc.Generate(context.Background(), Request{Prompt: "hi", System: "custom"})
	require.NoError(t, err)
	p.AssertExpectations(t)
}

func TestGenerateUsesConfiguredMaxTokens(t *testing.T) {
	p := &MockProvider{id: "gemini"}
	p.On("Call", mock.Anything, mock.MatchedBy(func(pl provider.ChatPayload) bool {
		return pl.MaxTokens == 256
	})).Return("ok", nil)

	svc, err := NewService([]provider.ModelProvider{p},
		config.RelayConfig{DefaultProvider: "gemini", MaxOutputTokens: 256}, nil)
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	p.AssertExpectations(t)
}

func TestProvidersReportsCapabilities(t *testing.T) {
	gemini := &MockProvider{id: "gemini", model: "gemini-2.0-flash"}
	svc := newTestService(t, gemini, &MockProvider{id: "openai:gpt-4o", model: "gpt-4o", vision: true})

	infos := svc.Providers()
	require.Len(t, infos, 2)
	assert.Equal(t, "gemini", infos[0].ID)
	assert.True(t, infos[0].Default)
	assert.False(t, infos[1].Default)
	assert.Equal(t, []string{"image"}, infos[1].Supports)
}

func TestListModelsResolvesProvider(t *testing.T) {
	p := &MockProvider{id: "gemini"}
	p.On("ListModels", mock.Anything).Return([]provider.ModelInfo{{ID: "gemini-2.0-flash"}}, nil)

	svc := newTestService(t, p)
	models, err := svc.ListModels(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "gemini-2.0-flash", models[0].ID)
}
