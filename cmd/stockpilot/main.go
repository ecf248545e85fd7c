package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/stockpilot/stockpilot/cmd/stockpilot/cli"
	"github.com/stockpilot/stockpilot/internal/app"
	"github.com/stockpilot/stockpilot/internal/platform/db"
)

func main() {
	feedPath := flag.String("feed", "", "path to the JSON stock feed, overrides FEED_PATH")
	exportPath := flag.String("export", "", "default CSV export path, overrides EXPORT_PATH")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Default().Warn("load .env", slog.Any("error", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	if *feedPath != "" {
		cfg.FeedPath = *feedPath
	}
	if *exportPath != "" {
		cfg.ExportPath = *exportPath
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	core := app.NewCore(pool, cfg, logger)

	menu := cli.New(core, cli.Options{
		Input:             os.Stdin,
		Output:            os.Stdout,
		FeedPath:          cfg.FeedPath,
		ExportPath:        cfg.ExportPath,
		LowStockThreshold: cfg.LowStockThreshold,
	})
	if err := menu.Run(ctx); err != nil {
		logger.Error("menu", slog.Any("error", err))
		os.Exit(1)
	}
}
