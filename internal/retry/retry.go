// Package retry provides a bounded retry policy with exponential backoff
// for collaborator calls. The policy is an explicit value passed into
// adapters, not ambient control flow.
package retry

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/modelcode-ai/codeqa-cli/internal/core/domain"
	"github.com/modelcode-ai/codeqa-cli/internal/logger"
)

// Default policy values.
const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 1 * time.Second
	DefaultMaxDelay    = 60 * time.Second
)

// Policy describes a bounded retry schedule: up to MaxAttempts attempts,
// with randomised exponential backoff between BaseDelay and MaxDelay.
type Policy struct {
	// MaxAttempts is the total number of attempts, first try included.
	MaxAttempts int

	// BaseDelay is the upper bound of the first backoff interval.
	BaseDelay time.Duration

	// MaxDelay caps the backoff interval growth.
	MaxDelay time.Duration

	// Limiter optionally paces attempts across all callers sharing the
	// policy. Nil disables pacing.
	Limiter *rate.Limiter
}

// DefaultPolicy returns the policy used for provider calls when the
// configuration does not override it.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// Do runs op until it succeeds, fails with a non-transient error, the
// attempts run out, or ctx is cancelled. Only failures marked
// transient via domain.CollaboratorError are retried; everything else
// propagates immediately.
func (p Policy) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if p.Limiter != nil {
			if werr := p.Limiter.Wait(ctx); werr != nil {
				return werr
			}
		}

		err = op(ctx)
		if err == nil {
			return nil
		}
		if !domain.IsTransient(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		delay := p.backoff(attempt)
		logger.Debug("%s attempt %d/%d failed: %v (retrying in %s)", name, attempt, attempts, err, delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return err
}

// backoff returns the randomised exponential delay after the given attempt.
// Full jitter: a uniform draw from (0, base*2^(attempt-1)], capped at MaxDelay.
func (p Policy) backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}

	ceiling := base << (attempt - 1)
	if ceiling > maxDelay || ceiling <= 0 {
		ceiling = maxDelay
	}

	return time.Duration(rand.Int63n(int64(ceiling))) + 1
}
