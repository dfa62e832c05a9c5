package llm

import (
	"context"
	"time"
)

// TimeoutProvider bounds every Generate call, retries included.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps p so each call is cancelled after d.
func WithTimeout(p Provider, d time.Duration) Provider {
	return &TimeoutProvider{inner: p, timeout: d}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}

// Observer receives the outcome of each LLM call.
type Observer interface {
	ObserveLLMCall(provider, purpose string, elapsed time.Duration, usage Usage, err error)
}

// ObserverProvider reports each call to an Observer.
type ObserverProvider struct {
	inner    Provider
	provider string
	obs      Observer
}

// WithObserver wraps p so every call is reported to obs.
func WithObserver(p Provider, providerName string, obs Observer) Provider {
	return &ObserverProvider{inner: p, provider: providerName, obs: obs}
}

func (o *ObserverProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := o.inner.Generate(ctx, req)

	var usage Usage
	if resp != nil {
		usage = resp.Usage
	}
	o.obs.ObserveLLMCall(o.provider, PurposeFrom(ctx), time.Since(start), usage, err)
	return resp, err
}

func (o *ObserverProvider) ModelID() string {
	return o.inner.ModelID()
}
