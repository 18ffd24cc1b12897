package step

import (
	"context"
	"fmt"
	"time"

	"github.com/SaiNageswarS/extract-boot/internalerr"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

// RetryInvoker wraps an Invoker with bounded retries and exponential
// backoff. Exhausted retries surface as a single ErrStepInvocation so the
// caller can record a per-unit failure instead of aborting the run.
type RetryInvoker struct {
	inner       Invoker
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func WithRetry(inner Invoker, maxAttempts int, baseDelay time.Duration) *RetryInvoker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	return &RetryInvoker{
		inner:       inner,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		maxDelay:    30 * time.Second,
	}
}

func (r *RetryInvoker) Invoke(ctx context.Context, stepName string, inputs map[string]string) (map[string]string, error) {
	var lastErr error
	delay := r.baseDelay

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		outputs, err := r.inner.Invoke(ctx, stepName, inputs)
		if err == nil {
			return outputs, nil
		}
		lastErr = err

		if attempt == r.maxAttempts {
			break
		}

		logger.Error("Step invocation failed, retrying",
			zap.String("step", stepName),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > r.maxDelay {
			delay = r.maxDelay
		}
	}

	return nil, fmt.Errorf("%w: step %q failed after %d attempts: %v",
		internalerr.ErrStepInvocation, stepName, r.maxAttempts, lastErr)
}
