package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/ygscore/internal/krparse"
	"github.com/wonny/ygscore/internal/store"
	"github.com/wonny/ygscore/pkg/logger"
)

// ScoreCleanupJob purges ETF score rows from previous trading days.
// ⭐ SSOT: 점수 정리 스케줄은 이 Job에서만
type ScoreCleanupJob struct {
	scores *store.ScoreRepository
	logger *logger.Logger
}

// NewScoreCleanupJob creates a new score cleanup job
func NewScoreCleanupJob(scores *store.ScoreRepository, log *logger.Logger) *ScoreCleanupJob {
	return &ScoreCleanupJob{scores: scores, logger: log}
}

// Name returns the job name
func (j *ScoreCleanupJob) Name() string {
	return "score_cleanup"
}

// Schedule returns the cron schedule (every day at 2 AM KST)
func (j *ScoreCleanupJob) Schedule() string {
	return "0 0 2 * * *"
}

// Run deletes scores last updated before today's KST midnight.
func (j *ScoreCleanupJob) Run(ctx context.Context) error {
	cutoff := krparse.Midnight(krparse.NowKST())

	deleted, err := j.scores.PurgeBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge scores: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"cutoff":  cutoff,
		"deleted": deleted,
	}).Info("Scheduled score cleanup finished")
	return nil
}
