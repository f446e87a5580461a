package main

import (
	"log/slog"
	"os"

	"github.com/ahmetcoskunkizilkaya/photowall/internal/config"
	"github.com/ahmetcoskunkizilkaya/photowall/internal/logging"
)

func main() {
	cfg := config.Load()
	// stdout carries command output
	slog.SetDefault(slog.New(logging.NewStdoutHandler(os.Stderr, cfg.LogLevel, "text")))

	if err := rootCommand(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}
