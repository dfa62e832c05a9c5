package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/codequiz/internal/store"
)

// LoggingOptions configures WithLogging.
type LoggingOptions struct {
	// CaptureBodies stores the serialized request and raw response.
	CaptureBodies bool
	Logger        *slog.Logger
}

// LoggingProvider is a decorator that records every LLM request as an event.
type LoggingProvider struct {
	inner    Provider
	provider string
	repo     store.EventRepo
	opts     LoggingOptions
}

// WithLogging wraps a Provider with event logging. providerName is the
// vendor label stored with each event.
func WithLogging(p Provider, providerName string, repo store.EventRepo, opts LoggingOptions) Provider {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &LoggingProvider{inner: p, provider: providerName, repo: repo, opts: opts}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	data := store.LLMRequestEventData{
		Provider:  l.provider,
		Model:     l.inner.ModelID(),
		Purpose:   purpose,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if l.opts.CaptureBodies {
		data.RequestBody = serializeRequest(req)
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
		if l.opts.CaptureBodies {
			data.ResponseBody = string(resp.Content)
		}
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	// The event write must not fail the request; a cancelled request
	// context still gets its event recorded.
	if logErr := l.repo.AppendLLMRequest(context.WithoutCancel(ctx), data); logErr != nil {
		l.opts.Logger.Warn("failed to record LLM request event", "error", logErr)
	}

	l.opts.Logger.Debug("llm call",
		"provider", l.provider, "model", data.Model, "purpose", purpose,
		"latency_ms", data.LatencyMs, "ok", data.Success)

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the LLM request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}

	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}

	return b.String()
}
