package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/ygscore/internal/contracts"
	"github.com/wonny/ygscore/pkg/logger"
)

// Tick snapshot tables. REST 폴링과 웹소켓 스트림은 별도 테이블에 적재한다.
const (
	TickTablePolling   = "kiwoom_realtime_stk"
	TickTableWebsocket = "kiwoom_websocket_stk"
)

// TickRepository persists Kiwoom execution snapshots into one tick table.
type TickRepository struct {
	pool      *pgxpool.Pool
	logger    *logger.Logger
	table     string
	batchSize int
}

// NewTickRepository creates a tick repository bound to one table.
func NewTickRepository(pool *pgxpool.Pool, log *logger.Logger, table string, batchSize int) (*TickRepository, error) {
	if table != TickTablePolling && table != TickTableWebsocket {
		return nil, fmt.Errorf("unknown tick table: %s", table)
	}
	return &TickRepository{pool: pool, logger: log, table: table, batchSize: batchSize}, nil
}

// SaveBatch upserts snapshots in chunks on (stock_code, collected_at).
func (r *TickRepository) SaveBatch(ctx context.Context, ticks []contracts.TickSnapshot) (UpsertResult, error) {
	deduped, skipped := dedupeLast(ticks)
	result := UpsertResult{Skipped: skipped}
	if len(deduped) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (stock_code, stock_name, trade_date, close_price, pre, flu_rt,
			open_price, high_price, low_price, volume, trading_value, cntr_str, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (stock_code, collected_at) DO UPDATE SET
			stock_name = EXCLUDED.stock_name,
			trade_date = EXCLUDED.trade_date,
			close_price = EXCLUDED.close_price,
			pre = EXCLUDED.pre,
			flu_rt = EXCLUDED.flu_rt,
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			volume = EXCLUDED.volume,
			trading_value = EXCLUDED.trading_value,
			cntr_str = EXCLUDED.cntr_str
	`, r.table)

	var lastErr error
	for i, batch := range chunk(deduped, r.batchSize) {
		b := &pgx.Batch{}
		for _, t := range batch {
			b.Queue(query,
				t.StockCode, t.StockName, t.TradeDate, t.ClosePrice, t.Change, t.ChangeRate,
				t.OpenPrice, t.HighPrice, t.LowPrice, t.Volume, t.TradingValue, t.Strength, t.CollectedAt,
			)
		}

		if err := r.pool.SendBatch(ctx, b).Close(); err != nil {
			lastErr = err
			r.logger.WithError(err).WithFields(map[string]interface{}{
				"table": r.table,
				"chunk": i,
				"rows":  len(batch),
			}).Error("Tick chunk upsert failed")
			continue
		}
		result.Saved += len(batch)
	}

	if result.Skipped > 0 {
		r.logger.WithFields(map[string]interface{}{
			"table":   r.table,
			"skipped": result.Skipped,
		}).Warn("Tick snapshots without a resolved key excluded")
	}
	return result, lastErr
}
