// pkg/network/circuit_breaker.go
package network

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig tunes the connection circuit breaker
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	MaxConsecutiveFails uint32
	MaxRetries          int
	BaseDelay           time.Duration
}

// DefaultBreakerConfig returns settings suited to a game client
// reconnecting to one server.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         3,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		MaxConsecutiveFails: 5,
		MaxRetries:          3,
		BaseDelay:           time.Second,
	}
}

// NetworkOperation is a network call run through the breaker
type NetworkOperation func() error

// NetworkService wraps network operations with a circuit breaker to
// keep a flapping server from dragging the client into a reconnect
// storm.
type NetworkService struct {
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
	cfg     BreakerConfig
}

// NewNetworkService creates a breaker-wrapped operation runner
func NewNetworkService(log *zap.Logger, cfg BreakerConfig) *NetworkService {
	settings := gobreaker.Settings{
		Name:        "tankwar-network",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxConsecutiveFails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &NetworkService{
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     log,
		cfg:     cfg,
	}
}

// Execute runs one operation through the breaker. An open circuit
// fails immediately without touching the network.
func (ns *NetworkService) Execute(ctx context.Context, operation NetworkOperation) error {
	_, err := ns.breaker.Execute(func() (interface{}, error) {
		return nil, operation()
	})
	if err != nil {
		ns.log.Error("circuit breaker execution failed",
			zap.Error(err),
			zap.String("state", ns.breaker.State().String()),
		)
		return fmt.Errorf("circuit breaker: %w", err)
	}
	return nil
}

// ExecuteWithRetry runs an operation with backoff between attempts.
// Retries stop early when the circuit opens or the context ends.
func (ns *NetworkService) ExecuteWithRetry(ctx context.Context, operation NetworkOperation) error {
	for attempt := 0; attempt < ns.cfg.MaxRetries; attempt++ {
		err := ns.Execute(ctx, operation)
		if err == nil {
			return nil
		}

		if ns.breaker.State() == gobreaker.StateOpen {
			ns.log.Warn("circuit breaker is open, skipping retries",
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", ns.cfg.MaxRetries),
			)
			return err
		}

		if attempt == ns.cfg.MaxRetries-1 {
			return fmt.Errorf("max retries (%d) exceeded: %w", ns.cfg.MaxRetries, err)
		}

		delay := time.Duration(attempt+1) * ns.cfg.BaseDelay
		ns.log.Warn("operation failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		}
	}
	return fmt.Errorf("unexpected exit from retry loop")
}

// State returns the breaker state for monitoring
func (ns *NetworkService) State() gobreaker.State {
	return ns.breaker.State()
}

// Counts returns the breaker's success and failure counters
func (ns *NetworkService) Counts() gobreaker.Counts {
	return ns.breaker.Counts()
}
