package llm

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// FailoverClient routes every operation to a primary provider and switches
// to the fallback on failure. The switch is sticky: once flipped, calls go
// straight to the fallback until a health check sees the primary recover or
// the fallback itself fails. Sticky routing avoids flapping between
// providers on transient primary errors.
type FailoverClient struct {
	primary  Client
	fallback Client
	log      *logrus.Logger

	mu            sync.Mutex
	usingFallback bool
}

func NewFailoverClient(primary, fallback Client, log *logrus.Logger) *FailoverClient {
	if log == nil {
		log = logrus.New()
	}
	return &FailoverClient{primary: primary, fallback: fallback, log: log}
}

// UsingFallback reports whether calls are currently routed to the fallback
// provider. Best-effort under concurrency; it only affects routing
// preference, never the correctness of an individual call.
func (f *FailoverClient) UsingFallback() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usingFallback
}

func (f *FailoverClient) setUsingFallback(v bool) {
	f.mu.Lock()
	f.usingFallback = v
	f.mu.Unlock()
}

func (f *FailoverClient) Generate(ctx context.Context, req Request) (Response, error) {
	if !f.UsingFallback() {
		resp, err := f.primary.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		f.log.WithError(err).Warn("primary LLM failed, switching to fallback")
		f.setUsingFallback(true)
	}

	resp, err := f.fallback.Generate(ctx, req)
	if err != nil {
		// Let the next call try the primary again instead of pinning a
		// broken fallback.
		f.setUsingFallback(false)
		return Response{}, err
	}
	return resp, nil
}

func (f *FailoverClient) GenerateStructured(ctx context.Context, prompt string, schema map[string]any, systemPrompt string) (map[string]any, error) {
	if !f.UsingFallback() {
		parsed, err := f.primary.GenerateStructured(ctx, prompt, schema, systemPrompt)
		if err == nil {
			return parsed, nil
		}
		f.log.WithError(err).Warn("primary LLM failed on structured generation, switching to fallback")
		f.setUsingFallback(true)
	}

	parsed, err := f.fallback.GenerateStructured(ctx, prompt, schema, systemPrompt)
	if err != nil {
		f.setUsingFallback(false)
		return nil, err
	}
	return parsed, nil
}

func (f *FailoverClient) AnalyzeText(ctx context.Context, text, kind string) (map[string]any, error) {
	if !f.UsingFallback() {
		parsed, err := f.primary.AnalyzeText(ctx, text, kind)
		if err == nil {
			return parsed, nil
		}
		f.log.WithError(err).Warn("primary LLM failed on text analysis, switching to fallback")
		f.setUsingFallback(true)
	}

	parsed, err := f.fallback.AnalyzeText(ctx, text, kind)
	if err != nil {
		f.setUsingFallback(false)
		return nil, err
	}
	return parsed, nil
}

// HealthCheck probes both providers unconditionally. A healthy primary
// resets routing to the primary regardless of current state.
func (f *FailoverClient) HealthCheck(ctx context.Context) bool {
	var primaryHealthy, fallbackHealthy bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		primaryHealthy = f.primary.HealthCheck(gctx)
		return nil
	})
	g.Go(func() error {
		fallbackHealthy = f.fallback.HealthCheck(gctx)
		return nil
	})
	_ = g.Wait()

	f.log.WithFields(logrus.Fields{
		"primaryHealthy":  primaryHealthy,
		"fallbackHealthy": fallbackHealthy,
	}).Info("LLM health check completed")

	if primaryHealthy && f.UsingFallback() {
		f.log.Info("primary LLM recovered, resetting to primary")
	}
	if primaryHealthy {
		f.setUsingFallback(false)
	}

	return primaryHealthy || fallbackHealthy
}
