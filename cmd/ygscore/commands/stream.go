package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/ygscore/internal/collector"
	"github.com/wonny/ygscore/internal/external/kiwoom"
	"github.com/wonny/ygscore/internal/sessionconfig"
	"github.com/wonny/ygscore/internal/store"
	"github.com/wonny/ygscore/internal/stream"
	"github.com/wonny/ygscore/pkg/httputil"
)

// streamCmd represents the stream command
var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "키움 웹소켓 배치 수집 루프",
	Long: `holding_name_websocket 테이블의 종목을 키움 실시간 웹소켓으로
100종목씩 배치 구독해 체결 스냅샷을 적재하고, 배치마다 서버 점수
함수를 호출합니다.

기본 윈도우: 08:55 개장 대기, 15:30 종료.

Example:
  go run ./cmd/ygscore stream
  go run ./cmd/ygscore stream --once`,
	RunE: runStream,
}

func init() {
	rootCmd.AddCommand(streamCmd)
	addSessionFlags(streamCmd)
}

func runStream(cmd *cobra.Command, args []string) error {
	fmt.Println("=== 키움 웹소켓 배치 수집 ===")

	cfg, log, err := initBase()
	if err != nil {
		return err
	}
	if err := cfg.ValidateKiwoom(); err != nil {
		return fmt.Errorf("❌ %w", err)
	}

	window, err := resolveWindow(cfg, sessionconfig.LoopStream)
	if err != nil {
		return err
	}

	db, err := initDB(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	holdingsRepo := store.NewHoldingsRepository(db.Pool, log)
	tickRepo, err := store.NewTickRepository(db.Pool, log, store.TickTableWebsocket, cfg.Collect.TickBatchSize)
	if err != nil {
		return err
	}
	scoreRepo := store.NewScoreRepository(db.Pool, log)

	ctx := context.Background()

	holdings, err := holdingsRepo.List(ctx, store.HoldingsTableWebsocket)
	if err != nil {
		return fmt.Errorf("load holdings: %w", err)
	}
	if len(holdings) == 0 {
		return fmt.Errorf("no holdings to stream")
	}
	fmt.Printf("총 %d개 종목을 구독합니다\n", len(holdings))

	restClient := kiwoom.NewClient(cfg.Kiwoom, httputil.New(log), log)
	token, err := restClient.Token(ctx)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	ws := kiwoom.NewWSClient(cfg.Kiwoom, log)
	session := stream.NewSession(ws, tickRepo, scoreRepo, holdings, log, collector.RealClock())
	ws.OnTick(session.HandleTick)

	if err := ws.Connect(ctx, token); err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	defer ws.Disconnect()

	loop := collector.New("stream", window, session.Pass, log, loopOptions())
	return runLoop(loop)
}
