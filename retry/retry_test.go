package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imransaadullah/SimpleMDB-sub000/dberrors"
)

// mysqlErrorStub implements MySQLNumberer without importing the real driver,
// mirroring how the driver package's mysqlNumberAdapter adapts *mysql.MySQLError.
type mysqlErrorStub struct {
	number uint16
	msg    string
}

func (e *mysqlErrorStub) Error() string            { return e.msg }
func (e *mysqlErrorStub) MySQLErrorNumber() uint16 { return e.number }

func TestIsRetryableMySQLCode(t *testing.T) {
	assert.True(t, IsRetryable(&mysqlErrorStub{number: 1213, msg: "Deadlock found"}))
	assert.False(t, IsRetryable(&mysqlErrorStub{number: 1062, msg: "Duplicate entry"}))
}

func TestIsRetryableMessagePhrase(t *testing.T) {
	assert.True(t, IsRetryable(errors.New("Error 2006: MySQL server has gone away")))
	assert.True(t, IsRetryable(errors.New("pq: connection reset by peer")))
	assert.False(t, IsRetryable(errors.New("syntax error near SELECT")))
}

func TestIsRetryableConnectionError(t *testing.T) {
	assert.True(t, IsRetryable(&dberrors.ConnectionError{Err: errors.New("dial tcp: timeout")}))
}

func TestIsRetryableTransientMarker(t *testing.T) {
	assert.True(t, IsRetryable(dberrors.Transient(errors.New("anything"))))
}

func TestDelayFormula(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, Multiplier: 2.0, Cap: 5 * time.Second}
	d0 := p.Delay(0)
	d1 := p.Delay(1)

	assert.GreaterOrEqual(t, d0, 100*time.Millisecond)
	assert.LessOrEqual(t, d0, 110*time.Millisecond)

	assert.GreaterOrEqual(t, d1, 200*time.Millisecond)
	assert.LessOrEqual(t, d1, 220*time.Millisecond)
}

func TestDelayRespectsCap(t *testing.T) {
	p := Policy{BaseDelay: 1 * time.Second, Multiplier: 10.0, Cap: 2 * time.Second}
	d := p.Delay(5)
	assert.LessOrEqual(t, d, 2200*time.Millisecond)
}

func TestDoSucceedsOnThirdAttempt(t *testing.T) {
	attempts := 0
	result, err := Do(context.Background(), Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Multiplier:  2.0,
		Cap:         10 * time.Millisecond,
	}, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", &mysqlErrorStub{number: 1213, msg: "deadlock found when trying to get lock"}
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestDoPropagatesNonRetryableImmediately(t *testing.T) {
	attempts := 0
	_, err := Do(context.Background(), DefaultPolicy(), func(ctx context.Context) (string, error) {
		attempts++
		return "", errors.New("syntax error")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoExhaustsBudgetAndReturnsLastError(t *testing.T) {
	attempts := 0
	finalErr := &mysqlErrorStub{number: 1213, msg: "deadlock found"}
	_, err := Do(context.Background(), Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Multiplier:  1.0,
		Cap:         time.Millisecond,
	}, func(ctx context.Context) (string, error) {
		attempts++
		return "", finalErr
	})

	require.Error(t, err)
	assert.Equal(t, finalErr, err)
	assert.Equal(t, 3, attempts)
}

func TestDoCancellationDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, Policy{
		MaxAttempts: 5,
		BaseDelay:   100 * time.Millisecond,
		Multiplier:  1.0,
		Cap:         time.Second,
	}, func(ctx context.Context) (string, error) {
		attempts++
		return "", &mysqlErrorStub{number: 1213, msg: "deadlock found"}
	})

	require.ErrorIs(t, err, dberrors.ErrCancelled)
}
