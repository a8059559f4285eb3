package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ygscore/internal/collector"
	"github.com/wonny/ygscore/internal/contracts"
	"github.com/wonny/ygscore/internal/external/kiwoom"
	"github.com/wonny/ygscore/internal/sessionconfig"
	"github.com/wonny/ygscore/internal/store"
	"github.com/wonny/ygscore/pkg/httputil"
)

// pollCmd represents the poll command
var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "키움 REST 시세 폴링 루프",
	Long: `holding_name 테이블의 종목을 키움 주식시분요청(ka10006)으로
주기 폴링해 스냅샷을 적재하고, 패스마다 서버 점수 함수를 호출합니다.

기본 윈도우: 08:55 개장 대기, 15:20 종료, 10초 주기.

Example:
  go run ./cmd/ygscore poll --session morning
  go run ./cmd/ygscore poll --once`,
	RunE: runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)
	addSessionFlags(pollCmd)
}

func runPoll(cmd *cobra.Command, args []string) error {
	fmt.Println("=== 키움 실시간 시세 폴링 ===")

	cfg, log, err := initBase()
	if err != nil {
		return err
	}
	if err := cfg.ValidateKiwoom(); err != nil {
		return fmt.Errorf("❌ %w", err)
	}

	window, err := resolveWindow(cfg, sessionconfig.LoopPoll)
	if err != nil {
		return err
	}

	db, err := initDB(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	kiwoomClient := kiwoom.NewClient(cfg.Kiwoom, httputil.New(log), log)
	holdingsRepo := store.NewHoldingsRepository(db.Pool, log)
	tickRepo, err := store.NewTickRepository(db.Pool, log, store.TickTablePolling, cfg.Collect.TickBatchSize)
	if err != nil {
		return err
	}
	scoreRepo := store.NewScoreRepository(db.Pool, log)

	pass := func(ctx context.Context, collectedAt time.Time) error {
		holdings, err := holdingsRepo.List(ctx, store.HoldingsTablePolling)
		if err != nil {
			return fmt.Errorf("load holdings: %w", err)
		}
		if len(holdings) == 0 {
			return fmt.Errorf("no holdings to poll")
		}

		var ticks []contracts.TickSnapshot
		for _, h := range holdings {
			if err := ctx.Err(); err != nil {
				return err
			}

			tick, err := kiwoomClient.FetchMinuteQuote(ctx, h.Code, h.Name, collectedAt)
			if err != nil {
				// 한 종목 실패로 패스 전체를 버리지 않는다
				log.WithError(err).WithField("stock_code", h.Code).Warn("Minute quote fetch failed")
				continue
			}
			ticks = append(ticks, *tick)
		}

		if len(ticks) == 0 {
			return fmt.Errorf("no quotes collected (%d holdings)", len(holdings))
		}

		result, err := tickRepo.SaveBatch(ctx, ticks)
		if err != nil {
			return fmt.Errorf("save ticks: %w", err)
		}
		log.WithFields(map[string]interface{}{
			"saved":   result.Saved,
			"skipped": result.Skipped,
		}).Info("Poll pass saved")

		if err := scoreRepo.RunPollingScore(ctx); err != nil {
			log.WithError(err).Error("Polling score update failed")
		}
		return nil
	}

	loop := collector.New("poll", window, pass, log, loopOptions())
	return runLoop(loop)
}
