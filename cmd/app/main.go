package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"partner/cmd"
	"partner/internal/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := cmd.LoadConfig(".env")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cmd.NewCompositionRoot(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	logger.Info("partner client starting", "partner_id", cfg.PartnerID, "arrival_policy", cfg.ArrivalPolicy)
	return app.Run(ctx)
}
