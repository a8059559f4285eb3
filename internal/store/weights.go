package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/ygscore/internal/contracts"
	"github.com/wonny/ygscore/pkg/logger"
)

// WeightRepository persists ETF constituent weights.
// ⭐ SSOT: 구성비중 저장소는 여기서만
type WeightRepository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewWeightRepository creates a new weight repository
func NewWeightRepository(pool *pgxpool.Pool, log *logger.Logger) *WeightRepository {
	return &WeightRepository{pool: pool, logger: log}
}

// ReplaceETF swaps out one ETF's constituent rows in a single transaction.
// 편출 종목이 남지 않도록 삭제 후 재삽입한다.
func (r *WeightRepository) ReplaceETF(ctx context.Context, etfCode string, weights []contracts.ConstituentWeight) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM etf_constituent_weight WHERE etf_code = $1`, etfCode); err != nil {
		return fmt.Errorf("clear weights for %s: %w", etfCode, err)
	}

	query := `
		INSERT INTO etf_constituent_weight (etf_code, etf_name, stock_code, stock_name, weight_pct)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, w := range weights {
		if _, err := tx.Exec(ctx, query, w.ETFCode, w.ETFName, w.StockCode, w.StockName, w.WeightPct); err != nil {
			return fmt.Errorf("insert weight %s/%s: %w", w.ETFCode, w.StockCode, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"etf_code": etfCode,
		"count":    len(weights),
	}).Info("ETF constituent weights replaced")
	return nil
}

// GetAll retrieves every constituent weight row.
func (r *WeightRepository) GetAll(ctx context.Context) ([]contracts.ConstituentWeight, error) {
	query := `
		SELECT etf_code, etf_name, stock_code, stock_name, weight_pct
		FROM etf_constituent_weight
		ORDER BY etf_code, weight_pct DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var weights []contracts.ConstituentWeight
	for rows.Next() {
		var w contracts.ConstituentWeight
		if err := rows.Scan(&w.ETFCode, &w.ETFName, &w.StockCode, &w.StockName, &w.WeightPct); err != nil {
			return nil, err
		}
		weights = append(weights, w)
	}
	return weights, rows.Err()
}
