package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/ygscore/internal/api"
	"github.com/wonny/ygscore/internal/api/handlers"
	"github.com/wonny/ygscore/internal/store"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "상태 API 서버 시작",
	Long: `수집 상태와 ETF 점수를 노출하는 HTTP 서버를 시작합니다.

Endpoints:
  GET /health           - 서버 헬스체크
  GET /api/v1/status    - DB/풀/루프 상태
  GET /api/v1/scores    - ETF 점수 (합계 내림차순)

Example:
  go run ./cmd/ygscore serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("=== YG Score Status API ===")

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
	statusHandler := handlers.NewStatusHandler(db, log)
	scoreHandler := handlers.NewScoreHandler(scoreRepo, log)

	router := api.NewRouter(statusHandler, scoreHandler, log)
	server := api.New(cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
