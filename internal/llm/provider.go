// Package llm talks to hosted language models. Each vendor is one Provider
// implementation; New picks it once from configuration.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kamusis/taskcap-cli/internal/config"
)

// ErrNotConfigured is returned when the selected provider lacks an API key or model.
var ErrNotConfigured = errors.New("llm provider is not configured")

// DefaultTimeout bounds one completion request.
const DefaultTimeout = 60 * time.Second

// Request is one single-turn completion.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Provider completes prompts with one vendor's API.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// New returns the provider selected by cfg.LLM.Provider, throttled to
// cfg.LLM.RequestsPerSecond.
func New(cfg *config.Config) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("llm config is nil")
	}
	name := strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if name == "" {
		return nil, fmt.Errorf("%w: set [llm].provider or TASKCAP_LLM_PROVIDER", ErrNotConfigured)
	}
	settings, err := cfg.ProviderSettings(name)
	if err != nil {
		return nil, err
	}
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%w: set TASKCAP_%s_API_KEY or [%s].api_key", ErrNotConfigured, strings.ToUpper(name), name)
	}
	if settings.Model == "" {
		return nil, fmt.Errorf("%w: set [%s].model", ErrNotConfigured, name)
	}

	var p Provider
	switch name {
	case config.ProviderAnthropic:
		p = NewAnthropic(settings)
	case config.ProviderOpenAI:
		p = NewOpenAI(name, settings)
	case config.ProviderGroq:
		if settings.BaseURL == "" {
			settings.BaseURL = GroqBaseURL
		}
		p = NewOpenAI(name, settings)
	}
	return Throttle(p, cfg.LLM.RequestsPerSecond), nil
}

// throttled waits on a token bucket before every request.
type throttled struct {
	Provider
	limiter *rate.Limiter
}

// Throttle wraps p so that at most rps requests per second are sent. rps <= 0 disables
// throttling.
func Throttle(p Provider, rps float64) Provider {
	if rps <= 0 {
		return p
	}
	return &throttled{Provider: p, limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

func (t *throttled) Complete(ctx context.Context, req Request) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return t.Provider.Complete(ctx, req)
}
