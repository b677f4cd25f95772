// Package retry classifies transient database errors and re-executes a
// callable with exponential backoff and jitter The policy
// is an immutable value passed per call (see the Open Question decisions
// in DESIGN.md): nothing here is package-level mutable state, so the same
// Policy can be shared across goroutines safely.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/imransaadullah/SimpleMDB-sub000/dberrors"
)

// Policy describes how many times to retry a transient error and how long
// to wait between attempts.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	Cap         time.Duration
	Logger      *slog.Logger
}

// DefaultPolicy matches defaults: 3 attempts, 100ms base delay,
// 2.0 multiplier, 5s cap.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		Multiplier:  2.0,
		Cap:         5 * time.Second,
	}
}

func (p Policy) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Delay returns the backoff duration for attempt k (0-based):
// min(cap, base * multiplier^k) + uniform_random(0, 10% of that).
func (p Policy) Delay(attempt int) time.Duration {
	base := float64(p.BaseDelay)
	for i := 0; i < attempt; i++ {
		base *= p.Multiplier
	}
	capped := base
	if capF := float64(p.Cap); capped > capF {
		capped = capF
	}
	jitter := capped * 0.10 * rand.Float64()
	return time.Duration(capped + jitter)
}

// ErrCancelled is surfaced when the context is cancelled while sleeping
// between retry attempts.
var ErrCancelled = dberrors.ErrCancelled

// Do invokes fn, retrying while the returned error is retryable per
// IsRetryable, up to MaxAttempts. On final failure the last observed error
// is returned unchanged (wrapped with attempt count via errors.Join-style
// context is avoided so errors.Is/As on the caller's sentinel still works).
func Do[T any](ctx context.Context, policy Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return zero, err
		}
		if attempt == attempts-1 {
			break
		}

		delay := policy.Delay(attempt)
		policy.logger().Debug("retrying after transient error",
			"attempt", attempt, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ErrCancelled
		case <-timer.C:
		}
	}

	policy.logger().Warn("retry attempts exhausted", "attempts", attempts, "error", lastErr)
	return zero, lastErr
}

// transientMySQLCodes are the MySQL error numbers names as
// transient: {1040, 1203, 1205, 1213, 2006, 2013}.
var transientMySQLCodes = map[uint16]bool{
	1040: true, // Too many connections
	1203: true, // User already has more than 'max_user_connections' active connections
	1205: true, // Lock wait timeout exceeded
	1213: true, // Deadlock found when trying to get lock
	2006: true, // MySQL server has gone away
	2013: true, // Lost connection to MySQL server during query
}

// transientMessagePhrases are matched case-insensitively against any error's
// message
var transientMessagePhrases = []string{
	"server has gone away",
	"lost connection",
	"connection refused",
	"connection timed out",
	"deadlock found",
	"lock wait timeout exceeded",
	"too many connections",
	"server shutdown in progress",
	"connection lost",
	"connection reset by peer",
}

// MySQLNumberer is implemented by driver error types that expose a numeric
// error code, e.g. *mysql.MySQLError's Number field via an adapter.
type MySQLNumberer interface {
	MySQLErrorNumber() uint16
}

// IsRetryable classifies err: a ConnectionError, any error
// whose numeric code is in the MySQL transient set, any error whose message
// contains one of the transient phrases, or anything explicitly wrapped in
// a TransientError.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var transient *dberrors.TransientError
	if errors.As(err, &transient) {
		return true
	}

	var connErr *dberrors.ConnectionError
	if errors.As(err, &connErr) {
		return true
	}

	var numberer MySQLNumberer
	if errors.As(err, &numberer) {
		if transientMySQLCodes[numberer.MySQLErrorNumber()] {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range transientMessagePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}

	return false
}
