package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"promptrelay/internal/pkg/attach"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func TestCallChatReturnsContent(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		gotBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, chatResponse("hello there"))
	}))
	defer srv.Close()

	c := &OpenAIChatClient{BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-4o-mini"}
	out, err := c.CallChat(context.Background(), ChatPayload{System: "be brief", User: "hi", MaxTokens: 64})
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)

	assert.Equal(t, "gpt-4o-mini", gjson.GetBytes(gotBody, "model").String())
	assert.Equal(t, "system", gjson.GetBytes(gotBody, "messages.0.role").String())
	assert.Equal(t, "hi", gjson.GetBytes(gotBody, "messages.1.content").String())
	assert.Equal(t, int64(64), gjson.GetBytes(gotBody, "max_tokens").Int())
}

func TestCallChatEncodesAttachmentsAsDataURIs(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, chatResponse("a cat"))
	}))
	defer srv.Close()

	c := &OpenAIChatClient{BaseURL: srv.URL, Model: "gpt-4o"}
	att := attach.Attachment{Kind: attach.KindImage, MIME: "image/png", Data: []byte{1, 2, 3}}
	_, err := c.CallChat(context.Background(), ChatPayload{User: "what is this", Attachments: []attach.Attachment{att}})
	require.NoError(t, err)

	content := gjson.GetBytes(gotBody, "messages.0.content")
	assert.Equal(t, "text", content.Get("0.type").String())
	assert.Equal(t, "image_url", content.Get("1.type").String())
	assert.Equal(t, "data:image/png;base64,AQID", content.Get("1.image_url.url").String())
}

func TestCallChatRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, `{"error":{"message":"slow down"}}`)
			return
		}
		io.WriteString(w, chatResponse("second try"))
	}))
	defer srv.Close()

	c := &OpenAIChatClient{BaseURL: srv.URL, Model: "m", MaxRetries: 2, Timeout: 5 * time.Second}
	out, err := c.CallChat(context.Background(), ChatPayload{User: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "second try", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCallChatSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"invalid api key"}}`)
	}))
	defer srv.Close()

	c := &OpenAIChatClient{BaseURL: srv.URL, Model: "m"}
	_, err := c.CallChat(context.Background(), ChatPayload{User: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestCallChatNormalizesBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		io.WriteString(w, chatResponse("ok"))
	}))
	defer srv.Close()

	// Config already carries the completions path; the client must not double it.
	c := &OpenAIChatClient{BaseURL: srv.URL + "/v1/chat/completions", Model: "m"}
	_, err := c.CallChat(context.Background(), ChatPayload{User: "hi"})
	require.NoError(t, err)
}

func TestListChatModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		io.WriteString(w, `{"data":[{"id":"gpt-4o"},{"id":"gpt-4o-mini"}]}`)
	}))
	defer srv.Close()

	c := &OpenAIChatClient{BaseURL: srv.URL, Model: "m"}
	models, err := c.ListChatModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "gpt-4o", models[0].ID)
}

func TestOpenAIModelProviderCapabilities(t *testing.T) {
	p := NewOpenAIModelProvider("openai:gpt-4o", true, &OpenAIChatClient{Model: "gpt-4o"})
	assert.True(t, p.Supports(attach.KindImage))
	assert.False(t, p.Supports(attach.KindDocument))
	assert.False(t, p.Supports(attach.KindAudio))

	novision := NewOpenAIModelProvider("openai:gpt-3.5", false, &OpenAIChatClient{Model: "gpt-3.5"})
	assert.False(t, novision.Supports(attach.KindImage))
}
