package background

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/BradenHooton/revue/internal/metrics"
	"github.com/BradenHooton/revue/internal/models"
)

// StatsRefresher reloads the dashboard counts.
type StatsRefresher interface {
	RefreshStats(ctx context.Context) (*models.UserStats, error)
}

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	scheduler gocron.Scheduler
	stats     StatsRefresher
	logger    *slog.Logger
	interval  time.Duration
	timeout   time.Duration
}

// NewScheduler registers the stats refresh job to run every interval.
func NewScheduler(stats StatsRefresher, logger *slog.Logger, interval time.Duration) (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	s := &Scheduler{
		scheduler: scheduler,
		stats:     stats,
		logger:    logger,
		interval:  interval,
		timeout:   30 * time.Second,
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.refreshStats),
		gocron.WithName("dashboard-stats-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("register stats job: %w", err)
	}

	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.logger.Info("background scheduler started", slog.Duration("stats_interval", s.interval))
	s.scheduler.Start()
}

// Stop waits for running jobs and stops the scheduler.
func (s *Scheduler) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return err
	}
	s.logger.Info("background scheduler stopped")
	return nil
}

func (s *Scheduler) refreshStats() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	stats, err := s.stats.RefreshStats(ctx)
	if err != nil {
		s.logger.Error("failed to refresh dashboard stats", slog.Any("error", err))
		return
	}

	metrics.SetDirectoryUsers(stats.TotalUsers, stats.ActiveUsers, stats.AdminUsers, stats.RegularUsers)
	s.logger.Debug("dashboard stats refreshed", slog.Int64("total_users", stats.TotalUsers))
}
