package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ygscore/internal/score"
	"github.com/wonny/ygscore/internal/store"
	"github.com/wonny/ygscore/pkg/redis"
)

var scoreAt string

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "수급 점수 일회 계산",
	Long: `저장된 수급 랭킹 한 패스를 ETF 구성비중과 결합해 점수를
계산하고 결과를 출력/저장합니다.

--at을 생략하면 가장 최근 패스를 사용합니다.

Example:
  go run ./cmd/ygscore score
  go run ./cmd/ygscore score --at 2026-09-01T10:30:00+09:00`,
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().StringVar(&scoreAt, "at", "", "패스 타임스탬프 (RFC3339, 비우면 최근 패스)")
}

func runScore(cmd *cobra.Command, args []string) error {
	fmt.Println("=== ETF 수급 점수 계산 ===")

	cfg, log, err := initBase()
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

	flowRepo := store.NewFlowRepository(db.Pool, log, cfg.Collect.FlowBatchSize)
	scoreRepo := store.NewScoreRepository(db.Pool, log)
	weightRepo := store.NewWeightRepository(db.Pool, log)
	weights := score.NewWeightCache(weightRepo, redis.NewCache(redisClient, "ygscore"), log)
	aggregator := score.NewAggregator(weights, log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var collectedAt time.Time
	if scoreAt != "" {
		collectedAt, err = time.Parse(time.RFC3339, scoreAt)
		if err != nil {
			return fmt.Errorf("parse --at: %w", err)
		}
	} else {
		latest, ok, err := flowRepo.LatestCollectedAt(ctx)
		if err != nil {
			return fmt.Errorf("find latest pass: %w", err)
		}
		if !ok {
			return fmt.Errorf("no flow passes stored yet")
		}
		collectedAt = latest
	}

	flows, err := flowRepo.GetByCollectedAt(ctx, collectedAt)
	if err != nil {
		return fmt.Errorf("load flows: %w", err)
	}
	fmt.Printf("패스 %s: 수급 레코드 %d건\n", collectedAt.Format(time.RFC3339), len(flows))

	scores, err := aggregator.Compute(ctx, flows, collectedAt)
	if errors.Is(err, score.ErrNoInput) {
		fmt.Println("점수를 계산할 수급 데이터가 없습니다")
		return nil
	}
	if err != nil {
		return fmt.Errorf("compute scores: %w", err)
	}

	if err := scoreRepo.SaveBatch(ctx, scores); err != nil {
		return fmt.Errorf("save scores: %w", err)
	}

	fmt.Printf("\n%-10s %-24s %10s %10s %10s %8s\n", "ETF", "이름", "합계", "외국인", "기관", "종목수")
	for _, s := range scores {
		fmt.Printf("%-10s %-24s %10d %10d %10d %8d\n",
			s.ETFCode, s.ETFName, s.TotalScore, s.ForeignScore, s.InstitutionScore, s.MemberCount)
	}
	fmt.Printf("\n✅ %d개 ETF 점수 저장 완료\n", len(scores))
	return nil
}
