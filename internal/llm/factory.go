package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abhisek/codequiz/internal/store"
)

// Options carries the optional collaborators wired around a provider.
type Options struct {
	// Events records every call. Nil disables event logging.
	Events store.EventRepo

	// Observer receives per-call timings, typically Prometheus metrics.
	Observer Observer

	// MockHandler serves requests when the mock provider is selected.
	MockHandler MockHandler

	Logger *slog.Logger
}

// NewProvider creates a Provider from configuration wrapped with the
// standard middleware: caller → timeout → retry → observe → log → base.
func NewProvider(ctx context.Context, cfg Config, opts Options) (Provider, error) {
	base, err := newBaseProvider(ctx, cfg, opts.MockHandler)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := base
	if opts.Events != nil {
		p = WithLogging(p, cfg.Provider, opts.Events, LoggingOptions{
			CaptureBodies: cfg.CaptureBodies,
			Logger:        logger,
		})
	}
	if opts.Observer != nil {
		p = WithObserver(p, cfg.Provider, opts.Observer)
	}
	if cfg.Provider != ProviderMock {
		p = WithRetry(p, cfg.Retry)
	}
	if cfg.Timeout > 0 {
		p = WithTimeout(p, cfg.Timeout)
	}

	logger.Info("llm provider ready", "provider", cfg.Provider, "model", p.ModelID())
	return p, nil
}

func newBaseProvider(ctx context.Context, cfg Config, mockHandler MockHandler) (Provider, error) {
	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		mock := NewMockProvider()
		mock.SetHandler(mockHandler)
		return mock, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return base, nil
}
