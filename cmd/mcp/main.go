package main

import (
	"context"
	"log/slog"
	"os"

	mcpadapter "github.com/kirillkom/review-sentiment/internal/adapters/mcp"
	"github.com/kirillkom/review-sentiment/internal/bootstrap"
	"github.com/kirillkom/review-sentiment/internal/config"
	"github.com/kirillkom/review-sentiment/internal/observability/logging"
)

var version = "dev"

func main() {
	cfg := config.Load()
	// stdout carries the protocol.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel))

	client, err := bootstrap.NewClient(context.Background(), cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err.Error())
		os.Exit(1)
	}

	server := mcpadapter.NewServer(version, client.Analyzer, client.History, client.Dashboard)
	if err := server.ServeStdio(); err != nil {
		slog.Error("mcp_server_stopped", "error", err.Error())
		os.Exit(1)
	}
}
