package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollUntilFound_FindsOnLaterPoll(t *testing.T) {
	ctx := context.Background()

	calls := 0
	found, err := pollUntilFound(ctx, 500*time.Millisecond, time.Millisecond, func(context.Context) (bool, error) {
		calls++
		return calls >= 3, nil
	})

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, calls)
}

func TestPollUntilFound_AbsenceAfterWaitIsNotAnError(t *testing.T) {
	ctx := context.Background()

	calls := 0
	found, err := pollUntilFound(ctx, 20*time.Millisecond, time.Millisecond, func(context.Context) (bool, error) {
		calls++
		return false, nil
	})

	require.NoError(t, err)
	assert.False(t, found)
	// The wait must actually be spent polling, not a single check.
	assert.Greater(t, calls, 1)
}

func TestPollUntilFound_PropagatesQueryError(t *testing.T) {
	ctx := context.Background()

	browserGone := errors.New("context canceled by browser")
	found, err := pollUntilFound(ctx, 500*time.Millisecond, time.Millisecond, func(context.Context) (bool, error) {
		return false, browserGone
	})

	require.ErrorIs(t, err, browserGone)
	assert.False(t, found)
}

func TestPollUntilFound_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	found, err := pollUntilFound(ctx, time.Minute, time.Millisecond, func(context.Context) (bool, error) {
		calls++
		cancel()
		return false, nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, found)
	assert.Equal(t, 1, calls)
}
