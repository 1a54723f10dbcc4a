package llm

import (
	"context"
	"errors"
	"math"
	"net"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ResilienceConfig bounds how long and how often a provider is called.
type ResilienceConfig struct {
	Timeout          time.Duration
	MaxRetries       int
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	FailureThreshold float64
	MinRequests      uint32
	OpenTimeout      time.Duration
}

// DefaultResilienceConfig returns the settings used when none are configured.
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		Timeout:          30 * time.Second,
		MaxRetries:       2,
		BaseDelay:        500 * time.Millisecond,
		MaxDelay:         5 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
		OpenTimeout:      60 * time.Second,
	}
}

// ResilientProvider wraps a Provider with a per-attempt timeout, retry with
// exponential backoff and a circuit breaker.
type ResilientProvider struct {
	inner   Provider
	cfg     ResilienceConfig
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewResilientProvider wraps inner.
func NewResilientProvider(inner Provider, cfg ResilienceConfig, logger *zap.Logger) *ResilientProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation says nothing about provider health.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &ResilientProvider{inner: inner, cfg: cfg, breaker: breaker, logger: logger}
}

// IsAvailable reports the availability of the wrapped provider.
func (r *ResilientProvider) IsAvailable() bool {
	return r.inner.IsAvailable()
}

// State exposes the breaker state; /ready reports unavailable while it is open.
func (r *ResilientProvider) State() gobreaker.State {
	return r.breaker.State()
}

// Complete calls the wrapped provider, retrying retryable failures.
func (r *ResilientProvider) Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		out, err := r.breaker.Execute(func() (interface{}, error) {
			return r.attempt(ctx, prompt, options)
		})
		if err == nil {
			return out.(string), nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == r.cfg.MaxRetries {
			break
		}
		r.logger.Debug("Retrying completion",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if err := r.backoff(ctx, attempt); err != nil {
			return "", lastErr
		}
	}
	return "", lastErr
}

func (r *ResilientProvider) attempt(ctx context.Context, prompt string, options CompletionOptions) (string, error) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}
	return r.inner.Complete(ctx, prompt, options)
}

func (r *ResilientProvider) backoff(ctx context.Context, attempt int) error {
	delay := time.Duration(float64(r.cfg.BaseDelay) * math.Pow(2, float64(attempt)))
	if r.cfg.MaxDelay > 0 && delay > r.cfg.MaxDelay {
		delay = r.cfg.MaxDelay
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isRetryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
