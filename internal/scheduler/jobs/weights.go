package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/ygscore/internal/score"
	"github.com/wonny/ygscore/pkg/logger"
)

// WeightRefreshJob keeps the constituent weight cache warm.
type WeightRefreshJob struct {
	weights *score.WeightCache
	logger  *logger.Logger
}

// NewWeightRefreshJob creates a new weight refresh job
func NewWeightRefreshJob(weights *score.WeightCache, log *logger.Logger) *WeightRefreshJob {
	return &WeightRefreshJob{weights: weights, logger: log}
}

// Name returns the job name
func (j *WeightRefreshJob) Name() string {
	return "weight_refresh"
}

// Schedule returns the cron schedule (hourly on the hour)
func (j *WeightRefreshJob) Schedule() string {
	return "0 0 * * * *"
}

// Run invalidates and reloads the weight cache.
func (j *WeightRefreshJob) Run(ctx context.Context) error {
	if err := j.weights.Invalidate(ctx); err != nil {
		j.logger.WithError(err).Warn("Weight cache invalidation failed")
	}

	weights, err := j.weights.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh weights: %w", err)
	}

	j.logger.WithField("count", len(weights)).Info("Scheduled weight refresh finished")
	return nil
}
