package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Session loop flags, shared by the collection commands
	sessionName  string
	runOnce      bool
	intervalSecs int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ygscore",
	Short: "YG Score - 실시간 수급 기반 ETF 스코어링",
	Long: `YG Score Unified CLI

토스증권/키움 REST/키움 웹소켓에서 장중 수급·시세를 수집하고
ETF 구성비중과 결합해 실시간 점수를 계산하는 수집 엔진.

Usage:
  go run ./cmd/ygscore [command]

Examples:
  go run ./cmd/ygscore collect toss --once
  go run ./cmd/ygscore collect turnover --session morning
  go run ./cmd/ygscore poll --session afternoon
  go run ./cmd/ygscore stream
  go run ./cmd/ygscore weights sync 069500 102110
  go run ./cmd/ygscore serve`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// addSessionFlags wires the shared loop flags onto one collection command.
func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sessionName, "session", "", "세션 이름 (morning|afternoon, 비우면 기본 윈도우)")
	cmd.Flags().BoolVar(&runOnce, "once", false, "한 사이클만 실행하고 종료")
	cmd.Flags().IntVar(&intervalSecs, "interval", 0, "사이클 주기(초), 0이면 윈도우 기본값")
}
