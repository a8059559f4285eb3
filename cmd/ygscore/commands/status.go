package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ygscore/internal/store"
)

var statusLimit int

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "DB 상태와 최신 점수 조회",
	Long: `데이터베이스 연결 상태와 현재 ETF 점수 상위를 출력합니다.

Example:
  go run ./cmd/ygscore status
  go run ./cmd/ygscore status --limit 20`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "출력할 점수 행수")
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== YG Score Status ===")

	cfg, log, err := initBase()
	if err != nil {
		return err
	}

	db, err := initDB(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	health, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("❌ health check: %w", err)
	}
	fmt.Printf("\n📊 Database: healthy (response %s)\n", health.ResponseTime)
	fmt.Printf("   Pool: %d/%d conns (%d idle)\n",
		health.Stats.AcquiredConns, health.Stats.TotalConns, health.Stats.IdleConns)

	scoreRepo := store.NewScoreRepository(db.Pool, log)
	scores, err := scoreRepo.List(ctx, statusLimit)
	if err != nil {
		return fmt.Errorf("❌ list scores: %w", err)
	}

	if len(scores) == 0 {
		fmt.Println("\n점수 데이터가 없습니다")
		return nil
	}

	fmt.Printf("\n%-10s %-24s %10s %10s %10s %8s  %s\n",
		"ETF", "이름", "합계", "외국인", "기관", "종목수", "갱신")
	for _, s := range scores {
		fmt.Printf("%-10s %-24s %10d %10d %10d %8d  %s\n",
			s.ETFCode, s.ETFName, s.TotalScore, s.ForeignScore, s.InstitutionScore,
			s.MemberCount, s.UpdatedAt.Format("15:04:05"))
	}
	return nil
}
