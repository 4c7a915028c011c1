package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matdisco/matdisco/types"
)

func newTestPoller(maxAttempts int) *Poller {
	p := NewPoller(Config{Interval: 2 * time.Second, MaxAttempts: maxAttempts}, nil)
	p.sleep = func(context.Context, time.Duration) error { return nil }
	return p
}

// scripted returns a StatusFunc that replays the given statuses in order
// and counts how many times it was asked.
func scripted(t *testing.T, calls *int, statuses ...string) StatusFunc {
	return func(context.Context, string) (string, error) {
		idx := *calls
		*calls++
		require.Less(t, idx, len(statuses), "polled past the scripted statuses")
		return statuses[idx], nil
	}
}

func TestExtractHandle(t *testing.T) {
	tests := []struct {
		name    string
		resp    map[string]any
		want    string
		wantErr bool
	}{
		{name: "string field", resp: map[string]any{"string": "job-1"}, want: "job-1"},
		{name: "hash field", resp: map[string]any{"hash": "abc123"}, want: "abc123"},
		{name: "id field", resp: map[string]any{"id": "42x"}, want: "42x"},
		{name: "first candidate wins", resp: map[string]any{"id": "later", "string": "first"}, want: "first"},
		{name: "empty string skipped", resp: map[string]any{"string": "", "id": "fallback"}, want: "fallback"},
		{name: "non-string skipped", resp: map[string]any{"id": 42.0, "hash": "h"}, want: "h"},
		{name: "no handle", resp: map[string]any{"status": "ok"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractHandle(tt.resp)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, types.ErrSubmission, types.GetErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAwait_CompletesAfterExactPolls(t *testing.T) {
	p := newTestPoller(10)
	calls := 0
	status := scripted(t, &calls, StatusPending, StatusRunning, StatusComplete)

	err := p.Await(context.Background(), "j1", status)

	require.NoError(t, err)
	assert.Equal(t, 3, calls, "must stop checking once the job completes")
}

func TestAwait_TerminalFailureStopsImmediately(t *testing.T) {
	for _, st := range []string{StatusFailed, StatusError} {
		t.Run(st, func(t *testing.T) {
			p := newTestPoller(10)
			calls := 0
			status := scripted(t, &calls, st)

			err := p.Await(context.Background(), "j1", status)

			require.Error(t, err)
			assert.Equal(t, types.ErrJobFailed, types.GetErrorCode(err))
			assert.Equal(t, 1, calls, "a terminal failure must not be re-polled")
		})
	}
}

func TestAwait_TimeoutAfterExactBudget(t *testing.T) {
	p := newTestPoller(3)
	calls := 0
	status := func(context.Context, string) (string, error) {
		calls++
		return StatusRunning, nil
	}

	err := p.Await(context.Background(), "j1", status)

	require.Error(t, err)
	assert.Equal(t, types.ErrJobTimeout, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
	assert.Equal(t, 3, calls, "exactly MaxAttempts checks, no more, no fewer")
}

func TestAwait_TransportErrorPropagatesUnretried(t *testing.T) {
	p := newTestPoller(10)
	calls := 0
	boom := errors.New("connection reset")
	status := func(context.Context, string) (string, error) {
		calls++
		return "", boom
	}

	err := p.Await(context.Background(), "j1", status)

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestAwait_ContextCancelDuringWait(t *testing.T) {
	p := NewPoller(Config{Interval: time.Hour, MaxAttempts: 5}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	status := func(context.Context, string) (string, error) {
		cancel()
		return StatusPending, nil
	}

	err := p.Await(ctx, "j1", status)

	require.ErrorIs(t, err, context.Canceled)
}
