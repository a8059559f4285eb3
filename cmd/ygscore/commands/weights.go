package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ygscore/internal/contracts"
	"github.com/wonny/ygscore/internal/external/kiwoom"
	"github.com/wonny/ygscore/internal/score"
	"github.com/wonny/ygscore/internal/store"
	"github.com/wonny/ygscore/pkg/httputil"
	"github.com/wonny/ygscore/pkg/redis"
)

// weightsCmd represents the weights command
var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "ETF 구성비중 관리",
	Long: `ETF 구성종목 비중 테이블을 관리합니다.

Subcommands:
  sync - 키움 ETF 구성종목 API로 비중 동기화

Example:
  go run ./cmd/ygscore weights sync 069500 102110`,
}

var weightsSyncCmd = &cobra.Command{
	Use:   "sync [etf_code...]",
	Short: "구성비중 동기화",
	Long: `지정한 ETF들의 구성종목 비중을 키움 API(ka40004)에서 받아
테이블을 교체하고 비중 캐시를 무효화합니다.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWeightsSync,
}

func init() {
	rootCmd.AddCommand(weightsCmd)
	weightsCmd.AddCommand(weightsSyncCmd)
}

func runWeightsSync(cmd *cobra.Command, args []string) error {
	fmt.Println("=== ETF 구성비중 동기화 ===")

	cfg, log, err := initBase()
	if err != nil {
		return err
	}
	if err := cfg.ValidateKiwoom(); err != nil {
		return fmt.Errorf("❌ %w", err)
	}

	for _, code := range args {
		if !contracts.ValidStockCode(code) {
			return fmt.Errorf("invalid ETF code: %s", code)
		}
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

	kiwoomClient := kiwoom.NewClient(cfg.Kiwoom, httputil.New(log), log)
	weightRepo := store.NewWeightRepository(db.Pool, log)
	weights := score.NewWeightCache(weightRepo, redis.NewCache(redisClient, "ygscore"), log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	total := 0
	for _, etfCode := range args {
		constituents, err := kiwoomClient.FetchETFConstituents(ctx, etfCode)
		if err != nil {
			return fmt.Errorf("fetch constituents %s: %w", etfCode, err)
		}
		if len(constituents) == 0 {
			fmt.Printf("⚠️ %s: 구성종목 없음, 건너뜀\n", etfCode)
			continue
		}

		if err := weightRepo.ReplaceETF(ctx, etfCode, constituents); err != nil {
			return fmt.Errorf("replace weights %s: %w", etfCode, err)
		}
		fmt.Printf("✅ %s: %d개 구성종목 동기화\n", etfCode, len(constituents))
		total += len(constituents)
	}

	if err := weights.Invalidate(ctx); err != nil {
		log.WithError(err).Warn("Weight cache invalidation failed")
	}

	fmt.Printf("\n✅ 총 %d개 구성종목 비중 저장 완료\n", total)
	return nil
}
