package resilience

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/kbukum/scopekit/errors"
)

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastConfig(3), func() (string, error) {
		calls++
		return "pong", nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result != "pong" {
		t.Errorf("expected pong, got %s", result)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_SucceedsAfterRetry(t *testing.T) {
	calls := 0
	var retried []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) }

	err := RetryFunc(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return stderrors.New("daemon starting")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Errorf("unexpected retry callbacks %v", retried)
	}
}

func TestRetry_ExceedsMaxAttempts(t *testing.T) {
	calls := 0
	persistent := stderrors.New("connection refused")
	err := RetryFunc(context.Background(), fastConfig(3), func() error {
		calls++
		return persistent
	})
	if !stderrors.Is(err, persistent) {
		t.Errorf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_DefaultsToSingleAttempt(t *testing.T) {
	calls := 0
	_ = RetryFunc(context.Background(), RetryConfig{}, func() error {
		calls++
		return stderrors.New("down")
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_StopsOnNonRetryableAppError(t *testing.T) {
	calls := 0
	err := RetryFunc(context.Background(), fastConfig(5), func() error {
		calls++
		return errors.Configuration("bad host")
	})
	if !errors.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_RetriesRetryableAppError(t *testing.T) {
	calls := 0
	_ = RetryFunc(context.Background(), fastConfig(2), func() error {
		calls++
		return errors.Unavailable("docker", stderrors.New("refused"))
	})
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestRetry_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(10)
	cfg.InitialBackoff = time.Second
	cfg.MaxBackoff = time.Second
	calls := 0

	err := RetryFunc(ctx, cfg, func() error {
		calls++
		cancel()
		return stderrors.New("down")
	})
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     300 * time.Millisecond,
		BackoffFactor:  2.0,
	}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 300 * time.Millisecond},
		{6, 300 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := calculateBackoff(tt.attempt, cfg); got != tt.want {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.want, got)
		}
	}
}

func TestCalculateBackoff_JitterBounds(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  1.0,
		Jitter:         0.5,
	}
	for range 50 {
		got := calculateBackoff(1, cfg)
		if got < 50*time.Millisecond || got > 150*time.Millisecond {
			t.Fatalf("backoff %v outside jitter bounds", got)
		}
	}
}
