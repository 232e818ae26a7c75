package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"animap/internal/logging"
	"animap/internal/media"
	"animap/internal/metrics"
	"animap/internal/services"
)

// BreakerSettings tunes the per-provider circuit breaker.
type BreakerSettings struct {
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32
	// Timeout is how long the breaker stays open before a half-open probe.
	Timeout time.Duration
	// Interval resets failure counts while closed.
	Interval time.Duration
}

// DefaultBreakerSettings opens after five straight failures for thirty seconds.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 5,
		Timeout:             30 * time.Second,
		Interval:            time.Minute,
	}
}

// Guard wraps a Provider with a circuit breaker and call metrics. Rejected and
// failed calls surface as errors marked ErrProviderFailure.
type Guard struct {
	name   string
	inner  Provider
	cb     *gobreaker.CircuitBreaker[any]
	logger *slog.Logger
}

var _ Provider = (*Guard)(nil)

// NewGuard wraps inner for the named provider.
func NewGuard(name string, inner Provider, settings BreakerSettings, logger *slog.Logger) *Guard {
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = DefaultBreakerSettings().ConsecutiveFailures
	}
	logger = logging.NewComponentLogger(logger, "provider_guard").With(logging.Provider(name))
	threshold := settings.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A caller giving up says nothing about the provider's health.
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordBreakerTransition(name, from.String(), to.String())
			if to == gobreaker.StateOpen {
				logging.WarnWithContext(logger, "provider circuit opened", "provider_circuit_open",
					logging.String("from", from.String()),
					logging.String(logging.FieldErrorHint, "provider is failing repeatedly; check its base_url"),
					logging.String(logging.FieldImpact, "provider results skipped until the breaker half-opens"),
				)
				return
			}
			logger.Info("provider circuit state changed",
				logging.String("from", from.String()),
				logging.String("to", to.String()),
			)
		},
	})
	return &Guard{name: name, inner: inner, cb: cb, logger: logger}
}

// Name returns the guarded provider's registry name.
func (g *Guard) Name() string { return g.name }

// State reports the breaker state.
func (g *Guard) State() gobreaker.State { return g.cb.State() }

// Search runs the inner search through the breaker.
func (g *Guard) Search(ctx context.Context, query string) ([]media.Observation, error) {
	return guarded(g, "search", func() ([]media.Observation, error) {
		return g.inner.Search(ctx, query)
	})
}

// Content runs the inner content fetch through the breaker.
func (g *Guard) Content(ctx context.Context, id string) ([]media.Content, error) {
	return guarded(g, "content", func() ([]media.Content, error) {
		return g.inner.Content(ctx, id)
	})
}

// Sources runs the inner sources fetch through the breaker.
func (g *Guard) Sources(ctx context.Context, id string) (*media.SourceBundle, error) {
	return guarded(g, "sources", func() (*media.SourceBundle, error) {
		return g.inner.Sources(ctx, id)
	})
}

func guarded[T any](g *Guard, operation string, fn func() (T, error)) (T, error) {
	var zero T
	result, err := g.cb.Execute(func() (any, error) {
		return fn()
	})
	metrics.RecordProviderCall(g.name, operation, err)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, services.Wrap(services.ErrProviderFailure, g.name, operation, "circuit open", err)
		}
		return zero, services.Wrap(services.ErrProviderFailure, g.name, operation, "", err)
	}
	typed, ok := result.(T)
	if !ok && result != nil {
		return zero, services.Wrap(services.ErrProviderFailure, g.name, operation, fmt.Sprintf("unexpected result type %T", result), nil)
	}
	return typed, nil
}
