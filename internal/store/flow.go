package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/ygscore/internal/contracts"
	"github.com/wonny/ygscore/pkg/logger"
)

// FlowRepository persists investor-group net flow rankings.
// ⭐ SSOT: 수급 랭킹 저장소는 여기서만
type FlowRepository struct {
	pool      *pgxpool.Pool
	logger    *logger.Logger
	batchSize int
}

// NewFlowRepository creates a new flow repository
func NewFlowRepository(pool *pgxpool.Pool, log *logger.Logger, batchSize int) *FlowRepository {
	return &FlowRepository{pool: pool, logger: log, batchSize: batchSize}
}

// SaveBatch upserts one pass of flow records in chunks.
// 키 미확인 레코드는 제외하고 집계만 한다. 청크 실패는 로그 후 계속
// 진행하며, 먼저 커밋된 청크는 그대로 남는다.
func (r *FlowRepository) SaveBatch(ctx context.Context, records []contracts.FlowRecord) (UpsertResult, error) {
	deduped, skipped := dedupeLast(records)
	result := UpsertResult{Skipped: skipped}
	if len(deduped) == 0 {
		return result, nil
	}

	query := `
		INSERT INTO toss_realtime_top100 (investor, stock_code, stock_name, amount, ranking_type, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (investor, stock_code, ranking_type, collected_at) DO UPDATE SET
			stock_name = EXCLUDED.stock_name,
			amount = EXCLUDED.amount
	`

	var lastErr error
	for i, batch := range chunk(deduped, r.batchSize) {
		b := &pgx.Batch{}
		for _, rec := range batch {
			b.Queue(query, rec.Investor, rec.StockCode, rec.StockName, rec.Amount, rec.RankingKind, rec.CollectedAt)
		}

		if err := r.pool.SendBatch(ctx, b).Close(); err != nil {
			lastErr = err
			r.logger.WithError(err).WithFields(map[string]interface{}{
				"chunk": i,
				"rows":  len(batch),
			}).Error("Flow chunk upsert failed")
			continue
		}
		result.Saved += len(batch)
	}

	if result.Skipped > 0 {
		r.logger.WithField("skipped", result.Skipped).Warn("Flow records without a resolved key excluded")
	}
	return result, lastErr
}

// LatestCollectedAt returns the most recent pass timestamp, if any rows exist.
func (r *FlowRepository) LatestCollectedAt(ctx context.Context) (time.Time, bool, error) {
	var at *time.Time
	err := r.pool.QueryRow(ctx, `SELECT MAX(collected_at) FROM toss_realtime_top100`).Scan(&at)
	if err != nil {
		return time.Time{}, false, err
	}
	if at == nil {
		return time.Time{}, false, nil
	}
	return *at, true, nil
}

// GetByCollectedAt retrieves one pass of flow records.
func (r *FlowRepository) GetByCollectedAt(ctx context.Context, collectedAt time.Time) ([]contracts.FlowRecord, error) {
	query := `
		SELECT investor, stock_code, stock_name, amount, ranking_type, collected_at
		FROM toss_realtime_top100
		WHERE collected_at = $1
	`

	rows, err := r.pool.Query(ctx, query, collectedAt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []contracts.FlowRecord
	for rows.Next() {
		var rec contracts.FlowRecord
		if err := rows.Scan(&rec.Investor, &rec.StockCode, &rec.StockName, &rec.Amount, &rec.RankingKind, &rec.CollectedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
