package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"runtime"

	"github.com/roadlog/uplink"
	"github.com/roadlog/uplink/internal/config"
)

const appVersion = "0.1.0"

func main() {

	cfg := config.LoadConfig()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx := context.Background()

	client, err := uplink.New(ctx, uplink.Options{
		CollectorURL:      cfg.CollectorURL,
		Username:          cfg.Username,
		Password:          cfg.Password,
		DatabasePath:      cfg.DatabasePath,
		RequestTimeout:    cfg.RequestTimeout,
		UploadConcurrency: cfg.UploadConcurrency,
		DeviceType:        "cli",
		OSVersion:         runtime.GOOS,
		AppVersion:        appVersion,
		Logger:            logger,
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer client.Close()

	pending, err := client.PendingMeasurements(ctx)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if len(pending) == 0 {
		logger.Info("nothing to upload")
		return
	}
	logger.Info("starting upload", "pending", len(pending))

	n, err := client.SyncAll(ctx)
	if err != nil {
		logger.Error("synchronization incomplete", "uploaded", n, "error", err)
		os.Exit(1)
	}
	logger.Info("synchronization finished", "uploaded", n)
}
