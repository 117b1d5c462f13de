package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/scheduler"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/services/refresh"
)

// mock refresher implementing scheduler.Refresher
type mockRefresher struct {
	calls atomic.Int32
	err   error
}

func (m *mockRefresher) Refresh(ctx context.Context) (refresh.Result, error) {
	m.calls.Add(1)
	if m.err != nil {
		return refresh.Result{}, m.err
	}
	return refresh.Result{TotalCountries: 3, Stored: 3}, nil
}

func TestScheduler_RunImmediateJob_Table(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"NoError", nil},
		{"WithError", errors.New("job failed")}, // error is logged, not returned
		{"InProgress", refresh.ErrRefreshInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockRefresher{err: tt.err}
			sched := scheduler.New(m)

			sched.RunImmediateJob(context.Background())

			assert.Equal(t, int32(1), m.calls.Load())
		})
	}
}

func TestScheduler_StartJob(t *testing.T) {
	m := &mockRefresher{}
	sched := scheduler.New(m)

	require.NoError(t, sched.StartJob(context.Background(), 50*time.Millisecond))
	defer sched.Stop()

	assert.Eventually(t, func() bool { return m.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_StartJobRejectsZeroInterval(t *testing.T) {
	sched := scheduler.New(&mockRefresher{})
	assert.Error(t, sched.StartJob(context.Background(), 0))
}
