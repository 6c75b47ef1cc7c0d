package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrBackendUnavailable is returned once every attempt against the
// text-generation backend has failed.
var ErrBackendUnavailable = errors.New("llm backend unavailable")

// Client abstracts a chat-style text-generation backend. One call sends a
// system/user prompt pair and returns the raw completion text.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// RetryPolicy bounds attempts against an unreliable backend. Each retry
// waits a fixed pause (no jitter, no exponential growth). An empty successful
// response counts as a failure and is retried; a well-formed non-empty
// response is never retried, even if its content turns out to be wrong.
type RetryPolicy struct {
	MaxAttempts int
	Pause       time.Duration

	// Sleep is injectable for tests; nil uses a context-aware wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy mirrors the backend defaults: 3 attempts, 2s pause.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Pause: 2 * time.Second}
}

// Do runs op up to MaxAttempts times, pausing between attempts. Exhaustion
// yields ErrBackendUnavailable wrapping the last failure reason.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) (string, error)) (string, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, p.Pause); err != nil {
				return "", err
			}
		}
		out, err := op(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		if strings.TrimSpace(out) == "" {
			lastErr = errors.New("empty response from backend")
			continue
		}
		return out, nil
	}
	return "", fmt.Errorf("%w after %d attempts: %v", ErrBackendUnavailable, attempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
