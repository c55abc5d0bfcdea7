// pkg/network/circuit_breaker_test.go
package network

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

func newTestService() *NetworkService {
	cfg := DefaultBreakerConfig()
	cfg.MaxConsecutiveFails = 3
	cfg.MaxRetries = 2
	cfg.BaseDelay = time.Millisecond
	return NewNetworkService(zap.NewNop(), cfg)
}

func TestExecutePassesThroughSuccess(t *testing.T) {
	ns := newTestService()

	calls := 0
	err := ns.Execute(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Expected success, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
	if ns.State() != gobreaker.StateClosed {
		t.Errorf("Expected closed breaker, got %v", ns.State())
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	ns := newTestService()
	boom := errors.New("connection refused")

	for i := 0; i < 3; i++ {
		ns.Execute(context.Background(), func() error { return boom })
	}

	if ns.State() != gobreaker.StateOpen {
		t.Fatalf("Expected open breaker after 3 failures, got %v", ns.State())
	}

	// An open circuit must fail without invoking the operation
	calls := 0
	err := ns.Execute(context.Background(), func() error {
		calls++
		return nil
	})
	if err == nil {
		t.Error("Expected an open circuit to reject the call")
	}
	if calls != 0 {
		t.Errorf("Expected the operation to be skipped, got %d calls", calls)
	}
}

func TestExecuteWithRetryRecovers(t *testing.T) {
	ns := newTestService()

	calls := 0
	err := ns.ExecuteWithRetry(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Errorf("Expected retry to recover, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestExecuteWithRetryGivesUp(t *testing.T) {
	ns := newTestService()

	calls := 0
	err := ns.ExecuteWithRetry(context.Background(), func() error {
		calls++
		return errors.New("still down")
	})
	if err == nil {
		t.Error("Expected retries to exhaust")
	}
	if calls != 2 {
		t.Errorf("Expected 2 attempts, got %d", calls)
	}
}

func TestExecuteWithRetryHonorsCancellation(t *testing.T) {
	cfg := DefaultBreakerConfig()
	cfg.MaxRetries = 3
	cfg.BaseDelay = time.Hour
	ns := NewNetworkService(zap.NewNop(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ns.ExecuteWithRetry(ctx, func() error {
			return errors.New("down")
		})
	}()

	cancel()
	select {
	case err := <-done:
		if err == nil {
			t.Error("Expected a cancellation error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected cancellation to interrupt the backoff wait")
	}
}
