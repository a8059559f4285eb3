package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ygscore/internal/krparse"
	"github.com/wonny/ygscore/internal/store"
)

// cleanupCmd represents the cleanup command
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "데이터 정리 도구",
	Long: `데이터베이스 정리 작업을 수행합니다.

Example:
  go run ./cmd/ygscore cleanup scores`,
}

var cleanupScoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "전일 ETF 점수 정리",
	Long: `오늘(KST 자정) 이전에 갱신된 ETF 점수 행을 삭제합니다.

점수는 당일 장중 기준으로만 의미가 있어, 매일 새 거래일이
시작되기 전에 전일 행을 비웁니다.`,
	RunE: runCleanupScores,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.AddCommand(cleanupScoresCmd)
}

func runCleanupScores(cmd *cobra.Command, args []string) error {
	fmt.Println("=== ETF Score Cleanup ===")

	cfg, log, err := initBase()
	if err != nil {
		return err
	}

	db, err := initDB(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	scoreRepo := store.NewScoreRepository(db.Pool, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := krparse.Midnight(krparse.NowKST())
	fmt.Printf("🗑️ %s 이전 갱신분 삭제 중...\n", cutoff.Format("2006-01-02 15:04 MST"))

	deleted, err := scoreRepo.PurgeBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("❌ purge scores: %w", err)
	}

	fmt.Printf("✅ Deleted %d records\n", deleted)
	return nil
}
