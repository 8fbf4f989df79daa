package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), Policy{MaxRetries: 2, BaseDelay: time.Millisecond},
		func(ctx context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errTransient
			}
			return "ok", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{MaxRetries: 2, BaseDelay: time.Millisecond},
		func(ctx context.Context) (int, error) {
			calls++
			return 0, errTransient
		})

	assert.ErrorIs(t, err, errTransient)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	_, err := Do(context.Background(), Policy{
		MaxRetries: 5,
		BaseDelay:  time.Millisecond,
		Retryable:  func(err error) bool { return !errors.Is(err, permanent) },
	}, func(ctx context.Context) (int, error) {
		calls++
		return 0, permanent
	})

	assert.Same(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestDo_NoRetriesReturnsErrorUnwrapped(t *testing.T) {
	_, err := Do(context.Background(), Policy{}, func(ctx context.Context) (int, error) {
		return 0, errTransient
	})
	assert.Same(t, errTransient, err)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, Policy{MaxRetries: 3, BaseDelay: time.Hour}, func(ctx context.Context) (int, error) {
		return 0, errTransient
	})
	assert.ErrorIs(t, err, context.Canceled)
}
