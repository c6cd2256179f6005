package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"habit-service/internal/service/habit"
	"habit-service/pkg/metrics"
)

// refreshSpec runs shortly after the UTC day boundary, when every streak
// that was not extended yesterday has just gone stale.
const refreshSpec = "5 0 * * *"

// StatsRefresher periodically recomputes every habit's denormalized
// statistics. The streak is a function of "today", so it decays without any
// ledger mutation to trigger a recompute.
type StatsRefresher struct {
	habitService *habit.Service
	logger       *zap.Logger
	cron         *cron.Cron
}

func NewStatsRefresher(habitService *habit.Service, logger *zap.Logger) *StatsRefresher {
	return &StatsRefresher{
		habitService: habitService,
		logger:       logger,
		cron:         cron.New(cron.WithLocation(time.UTC)),
	}
}

func (r *StatsRefresher) Start() error {
	_, err := r.cron.AddFunc(refreshSpec, r.RunOnce)
	if err != nil {
		return err
	}
	r.cron.Start()
	r.logger.Info("Stats refresher scheduled", zap.String("spec", refreshSpec))
	return nil
}

func (r *StatsRefresher) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

func (r *StatsRefresher) RunOnce() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := r.habitService.RefreshAllStats(ctx); err != nil {
		r.logger.Error("Daily stats refresh failed", zap.Error(err))
	}
	metrics.RecordStatsRefreshDuration(time.Since(start))
}
