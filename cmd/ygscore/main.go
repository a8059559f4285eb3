package main

import (
	"os"

	"github.com/wonny/ygscore/cmd/ygscore/commands"
)

// main is the entry point for the ygscore CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/ygscore [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
