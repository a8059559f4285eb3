package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ygscore/internal/collector"
	"github.com/wonny/ygscore/internal/contracts"
	"github.com/wonny/ygscore/internal/external/toss"
	"github.com/wonny/ygscore/internal/score"
	"github.com/wonny/ygscore/internal/sessionconfig"
	"github.com/wonny/ygscore/internal/store"
	"github.com/wonny/ygscore/pkg/httputil"
	"github.com/wonny/ygscore/pkg/redis"
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "토스증권 수집 루프",
	Long: `토스증권 랭킹 페이지에서 장중 데이터를 수집합니다.

Subcommands:
  toss      - 투자자 수급 랭킹 (매수/매도) 수집 + 점수 계산
  turnover  - 거래대금 상위 100 수집 + 서버 점수 함수 호출

Example:
  go run ./cmd/ygscore collect toss --once
  go run ./cmd/ygscore collect turnover --session morning`,
}

var collectTossCmd = &cobra.Command{
	Use:   "toss",
	Short: "투자자 수급 랭킹 수집 루프",
	Long: `외국인/기관 순매수·순매도 랭킹을 주기 수집하고,
패스마다 ETF 구성비중과 결합해 점수를 다시 계산합니다.

기본 윈도우: 장중 상시, 15:30 종료, 60초 주기.`,
	RunE: runCollectToss,
}

var collectTurnoverCmd = &cobra.Command{
	Use:   "turnover",
	Short: "거래대금 상위 100 수집 루프",
	Long: `거래대금 상위 100 종목을 주기 수집하고, 패스마다
서버 사이드 프리마켓 점수 함수를 호출합니다.

기본 윈도우: 13:20 종료 (morning 세션은 12:00), 60초 주기.`,
	RunE: runCollectTurnover,
}

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.AddCommand(collectTossCmd)
	collectCmd.AddCommand(collectTurnoverCmd)
	addSessionFlags(collectTossCmd)
	addSessionFlags(collectTurnoverCmd)
}

func runCollectToss(cmd *cobra.Command, args []string) error {
	fmt.Println("=== 토스증권 수급 랭킹 수집 ===")

	cfg, log, err := initBase()
	if err != nil {
		return err
	}

	window, err := resolveWindow(cfg, sessionconfig.LoopFlow)
	if err != nil {
		return err
	}

	db, err := initDB(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	httpClient := httputil.New(log).
		WithRateLimiter(redis.NewRateLimiter(redisClient, "toss"), redis.TossRateLimit)
	tossClient := toss.NewClient(cfg, httpClient, log)

	flowRepo := store.NewFlowRepository(db.Pool, log, cfg.Collect.FlowBatchSize)
	scoreRepo := store.NewScoreRepository(db.Pool, log)
	weightRepo := store.NewWeightRepository(db.Pool, log)
	weights := score.NewWeightCache(weightRepo, redis.NewCache(redisClient, "ygscore"), log)
	aggregator := score.NewAggregator(weights, log)

	pass := func(ctx context.Context, collectedAt time.Time) error {
		buys, err := tossClient.FetchInvestorRanking(ctx, contracts.RankingBuy, collectedAt)
		if err != nil {
			return fmt.Errorf("fetch buy ranking: %w", err)
		}
		sells, err := tossClient.FetchInvestorRanking(ctx, contracts.RankingSell, collectedAt)
		if err != nil {
			return fmt.Errorf("fetch sell ranking: %w", err)
		}

		records := append(buys, sells...)
		result, err := flowRepo.SaveBatch(ctx, records)
		if err != nil {
			return fmt.Errorf("save flows: %w", err)
		}
		log.WithFields(map[string]interface{}{
			"saved":   result.Saved,
			"skipped": result.Skipped,
		}).Info("Flow pass saved")

		// 저장된 집합(중복 제거 후)으로 계산해야 DB 재계산과 일치한다
		scores, err := aggregator.Compute(ctx, store.DedupeFlows(records), collectedAt)
		if errors.Is(err, score.ErrNoInput) {
			log.Info("No scoreable flows this pass, skipping score update")
			return nil
		}
		if err != nil {
			return fmt.Errorf("compute scores: %w", err)
		}
		if err := scoreRepo.SaveBatch(ctx, scores); err != nil {
			return fmt.Errorf("save scores: %w", err)
		}
		log.WithField("etfs", len(scores)).Info("ETF scores updated")
		return nil
	}

	loop := collector.New("collect_toss", window, pass, log, loopOptions())
	return runLoop(loop)
}

func runCollectTurnover(cmd *cobra.Command, args []string) error {
	fmt.Println("=== 토스증권 거래대금 상위 100 수집 ===")

	cfg, log, err := initBase()
	if err != nil {
		return err
	}

	window, err := resolveWindow(cfg, sessionconfig.LoopTurnover)
	if err != nil {
		return err
	}

	db, err := initDB(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	httpClient := httputil.New(log).
		WithRateLimiter(redis.NewRateLimiter(redisClient, "toss"), redis.TossRateLimit)
	tossClient := toss.NewClient(cfg, httpClient, log)

	turnoverRepo := store.NewTurnoverRepository(db.Pool, log, cfg.Collect.FlowBatchSize)
	scoreRepo := store.NewScoreRepository(db.Pool, log)

	pass := func(ctx context.Context, collectedAt time.Time) error {
		records, err := tossClient.FetchTurnoverTop(ctx, collectedAt)
		if err != nil {
			return fmt.Errorf("fetch turnover: %w", err)
		}

		result, err := turnoverRepo.SaveBatch(ctx, records)
		if err != nil {
			return fmt.Errorf("save turnover: %w", err)
		}
		log.WithFields(map[string]interface{}{
			"saved":   result.Saved,
			"skipped": result.Skipped,
		}).Info("Turnover pass saved")

		if err := scoreRepo.RunPremarketScore(ctx, collectedAt); err != nil {
			// 점수 함수 실패는 다음 패스에서 만회된다
			log.WithError(err).Error("Premarket score update failed")
		}
		return nil
	}

	loop := collector.New("collect_turnover", window, pass, log, loopOptions())
	return runLoop(loop)
}
