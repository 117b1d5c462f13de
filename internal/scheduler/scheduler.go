package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/logger"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/services/refresh"
)

// Refresher runs one refresh cycle.
type Refresher interface {
	Refresh(ctx context.Context) (refresh.Result, error)
}

type Scheduler struct {
	Cron      *gocron.Scheduler
	refresher Refresher
}

func New(refresher Refresher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		Cron:      s,
		refresher: refresher,
	}
}

// StartJob schedules a refresh every interval and starts the scheduler in
// the background. The first run happens after one interval, not at start.
func (s *Scheduler) StartJob(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", interval)
	}

	_, err := s.Cron.Every(interval).WaitForSchedule().Do(func() {
		s.RunImmediateJob(ctx)
	})
	if err != nil {
		logger.Error("Failed to schedule job: %v", err)
		return err
	}

	s.Cron.StartAsync()
	logger.Info("Scheduled refresh every %s", interval)
	return nil
}

func (s *Scheduler) Stop() {
	s.Cron.Stop()
}

// RunImmediateJob runs one refresh now. Errors are logged, not returned.
func (s *Scheduler) RunImmediateJob(ctx context.Context) {
	logger.Info("--- Scheduled Refresh Started ---")
	defer logger.Info("--- Scheduled Refresh Finished ---")

	res, err := s.refresher.Refresh(ctx)
	switch {
	case errors.Is(err, refresh.ErrRefreshInProgress):
		logger.Info("Skipping scheduled refresh: %v", err)
	case err != nil:
		logger.Error("Scheduled refresh failed: %v", err)
	default:
		logger.Info("Scheduled refresh stored %d countries (total %d)", res.Stored, res.TotalCountries)
	}
}
