package retry

import (
	"context"
	"errors"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type contextKey string

var keyAttempt contextKey = "retry_attempt"

// Policy configures exponential backoff for a retried operation
type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	// MaxAttempts caps the number of retries, zero means only MaxElapsedTime applies
	MaxAttempts uint64
}

// DefaultPolicy matches the intervals used for external calls
func DefaultPolicy() Policy {
	return Policy{
		InitialInterval: 2 * time.Second,
		MaxInterval:     10 * time.Second,
		MaxElapsedTime:  30 * time.Second,
		MaxAttempts:     5,
	}
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval
	bo.MaxInterval = p.MaxInterval
	bo.MaxElapsedTime = p.MaxElapsedTime

	var b backoff.BackOff = bo
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(bo, p.MaxAttempts)
	}
	return backoff.WithContext(b, ctx)
}

// Do runs fn until it succeeds, returns a permanent error or the policy gives up.
// The attempt number (1-based) is available to fn through Attempt.
func Do(ctx context.Context, p Policy, operation string, logger *zap.Logger, fn func(ctx context.Context) error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := fn(context.WithValue(ctx, keyAttempt, attempt))
		if err != nil && IsPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		if logger != nil {
			logger.Warn("⚠️ retrying operation",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Duration("next_in", next),
				zap.Error(err),
			)
		}
	}

	return backoff.RetryNotify(op, p.backOff(ctx), notify)
}

// Attempt returns the current attempt number stored by Do, 0 outside Do
func Attempt(ctx context.Context) int {
	attempt, ok := ctx.Value(keyAttempt).(int)
	if !ok {
		return 0
	}
	return attempt
}

// IsPermanent reports whether retrying err cannot help: the request itself is
// invalid or conflicts with stored data
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) ||
		errors.Is(err, gorm.ErrInvalidData) ||
		errors.Is(err, gorm.ErrInvalidValue) ||
		errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	// Postgres constraint and syntax errors
	if strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "23505") || // unique_violation
		strings.Contains(errStr, "23502") || // not_null_violation
		strings.Contains(errStr, "22p02") { // invalid_text_representation
		return true
	}

	// Client errors from HTTP backed stores
	if strings.Contains(errStr, "status 400") ||
		strings.Contains(errStr, "status 401") ||
		strings.Contains(errStr, "status 403") ||
		strings.Contains(errStr, "access denied") {
		return true
	}

	return false
}
