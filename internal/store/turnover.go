package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/ygscore/internal/contracts"
	"github.com/wonny/ygscore/pkg/logger"
)

// TurnoverRepository persists the trading-value top-100 ranking.
type TurnoverRepository struct {
	pool      *pgxpool.Pool
	logger    *logger.Logger
	batchSize int
}

// NewTurnoverRepository creates a new turnover repository
func NewTurnoverRepository(pool *pgxpool.Pool, log *logger.Logger, batchSize int) *TurnoverRepository {
	return &TurnoverRepository{pool: pool, logger: log, batchSize: batchSize}
}

// SaveBatch upserts one pass of turnover rows on (stock_code, collected_at).
func (r *TurnoverRepository) SaveBatch(ctx context.Context, records []contracts.TurnoverRecord) (UpsertResult, error) {
	deduped, skipped := dedupeLast(records)
	result := UpsertResult{Skipped: skipped}
	if len(deduped) == 0 {
		return result, nil
	}

	query := `
		INSERT INTO toss_premarket_top100 (rank, stock_code, stock_name, amount, change_rate, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (stock_code, collected_at) DO UPDATE SET
			rank = EXCLUDED.rank,
			stock_name = EXCLUDED.stock_name,
			amount = EXCLUDED.amount,
			change_rate = EXCLUDED.change_rate
	`

	var lastErr error
	for i, batch := range chunk(deduped, r.batchSize) {
		b := &pgx.Batch{}
		for _, rec := range batch {
			b.Queue(query, rec.Rank, rec.StockCode, rec.StockName, rec.Amount, rec.ChangeRate, rec.CollectedAt)
		}

		if err := r.pool.SendBatch(ctx, b).Close(); err != nil {
			lastErr = err
			r.logger.WithError(err).WithFields(map[string]interface{}{
				"chunk": i,
				"rows":  len(batch),
			}).Error("Turnover chunk upsert failed")
			continue
		}
		result.Saved += len(batch)
	}

	if result.Skipped > 0 {
		r.logger.WithField("skipped", result.Skipped).Warn("Turnover rows without a resolved key excluded")
	}
	return result, lastErr
}
