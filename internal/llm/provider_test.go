package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/taskcap-cli/internal/config"
)

func TestOpenAI_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"task_content\":\"x\"}"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAI("groq", config.ProviderConfig{APIKey: "sk-test", Model: "m1", BaseURL: srv.URL + "/"})
	out, err := p.Complete(context.Background(), Request{System: "sys", Prompt: "hello"})
	require.NoError(t, err)

	assert.Equal(t, `{"task_content":"x"}`, out)
	assert.Equal(t, "groq", p.Name())
	assert.Equal(t, "m1", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "hello", got.Messages[1].Content)
}

func TestOpenAI_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewOpenAI("openai", config.ProviderConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	_, err := p.Complete(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestAnthropic_Complete(t *testing.T) {
	var got messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ak", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"part one "},{"type":"text","text":"part two"}]}`))
	}))
	defer srv.Close()

	p := NewAnthropic(config.ProviderConfig{APIKey: "ak", Model: "claude", BaseURL: srv.URL})
	out, err := p.Complete(context.Background(), Request{System: "sys", Prompt: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "part one part two", out)
	assert.Equal(t, "sys", got.System)
	assert.Equal(t, anthropicMaxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestAnthropic_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"type":"overloaded_error","message":"overloaded"}}`))
	}))
	defer srv.Close()

	p := NewAnthropic(config.ProviderConfig{APIKey: "ak", Model: "claude", BaseURL: srv.URL})
	_, err := p.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestNew(t *testing.T) {
	cfg := config.DefaultConfig()

	_, err := New(cfg)
	assert.ErrorIs(t, err, ErrNotConfigured)

	cfg.Anthropic.APIKey = "ak"
	p, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())

	cfg.LLM.Provider = "groq"
	cfg.Groq.APIKey = "gk"
	cfg.Groq.BaseURL = ""
	p, err = New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "groq", p.Name())

	cfg.LLM.Provider = "cohere"
	_, err = New(cfg)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotConfigured))

	cfg.LLM.Provider = ""
	_, err = New(cfg)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

type countingProvider struct{ calls int }

func (c *countingProvider) Name() string { return "counting" }

func (c *countingProvider) Complete(ctx context.Context, req Request) (string, error) {
	c.calls++
	return req.Prompt, nil
}

func TestThrottle(t *testing.T) {
	inner := &countingProvider{}
	assert.Same(t, Provider(inner), Throttle(inner, 0))

	p := Throttle(inner, 1)
	assert.Equal(t, "counting", p.Name())

	out, err := p.Complete(context.Background(), Request{Prompt: "a"})
	require.NoError(t, err)
	assert.Equal(t, "a", out)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.Complete(ctx, Request{Prompt: "b"})
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
