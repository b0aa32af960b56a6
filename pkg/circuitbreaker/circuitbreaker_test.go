package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCacheDown = errors.New("cache down")

func failing(context.Context) error    { return errCacheDown }
func succeeding(context.Context) error { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := New("cache", WithFailureThreshold(3), WithTimeout(time.Hour))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := cb.Execute(ctx, failing)
		assert.ErrorIs(t, err, errCacheDown)
	}
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(ctx, succeeding)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := New("cache", WithFailureThreshold(3), WithTimeout(time.Hour))
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, failing))
	require.Error(t, cb.Execute(ctx, failing))
	require.NoError(t, cb.Execute(ctx, succeeding))
	require.Error(t, cb.Execute(ctx, failing))
	require.Error(t, cb.Execute(ctx, failing))

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_RecoversThroughHalfOpen(t *testing.T) {
	cb := New("cache",
		WithFailureThreshold(1),
		WithSuccessThreshold(1),
		WithTimeout(time.Millisecond),
	)
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, failing))
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(5 * time.Millisecond)

	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := New("cache",
		WithFailureThreshold(1),
		WithTimeout(time.Millisecond),
	)
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, failing))
	time.Sleep(5 * time.Millisecond)

	require.ErrorIs(t, cb.Execute(ctx, failing), errCacheDown)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_NotifiesOnStateChange(t *testing.T) {
	var transitions []string
	cb := New("cache",
		WithFailureThreshold(1),
		WithTimeout(time.Hour),
		WithOnStateChange(func(name string, from, to State) {
			transitions = append(transitions, from.String()+">"+to.String())
		}),
	)

	require.Error(t, cb.Execute(context.Background(), failing))
	assert.Equal(t, []string{"closed>open"}, transitions)
	assert.Equal(t, "cache", cb.Name())
}
