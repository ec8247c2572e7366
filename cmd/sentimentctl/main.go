package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/review-sentiment/internal/adapters/cli"
	"github.com/kirillkom/review-sentiment/internal/bootstrap"
	"github.com/kirillkom/review-sentiment/internal/config"
	"github.com/kirillkom/review-sentiment/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "sentimentctl", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := bootstrap.NewClient(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	root := cli.NewRootCmd(cli.Services{
		Analyzer:   client.Analyzer,
		History:    client.History,
		Dashboard:  client.Dashboard,
		NewSession: client.NewSession,
	})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
