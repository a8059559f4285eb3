package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/ygscore/internal/contracts"
	"github.com/wonny/ygscore/pkg/logger"
)

// Holdings input tables. 폴링과 웹소켓 추적 종목은 별도 테이블로 관리한다.
const (
	HoldingsTablePolling   = "holding_name"
	HoldingsTableWebsocket = "holding_name_websocket"
)

// HoldingsRepository reads the tracked-stock input tables.
type HoldingsRepository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewHoldingsRepository creates a new holdings repository
func NewHoldingsRepository(pool *pgxpool.Pool, log *logger.Logger) *HoldingsRepository {
	return &HoldingsRepository{pool: pool, logger: log}
}

// List retrieves tracked stocks from one holdings table.
// 코드 형식이 맞지 않는 행은 건너뛴다.
func (r *HoldingsRepository) List(ctx context.Context, table string) ([]contracts.Holding, error) {
	if table != HoldingsTablePolling && table != HoldingsTableWebsocket {
		return nil, fmt.Errorf("unknown holdings table: %s", table)
	}

	query := fmt.Sprintf(`SELECT holding_code, holding_name FROM %s`, table)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []contracts.Holding
	skipped := 0
	for rows.Next() {
		var h contracts.Holding
		if err := rows.Scan(&h.Code, &h.Name); err != nil {
			return nil, err
		}
		if !contracts.ValidStockCode(h.Code) {
			skipped++
			continue
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if skipped > 0 {
		r.logger.WithFields(map[string]interface{}{
			"table":   table,
			"skipped": skipped,
		}).Warn("Holdings with malformed codes skipped")
	}
	return holdings, nil
}
