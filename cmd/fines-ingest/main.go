package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finewatch/internal/amqp"
	"finewatch/internal/cli"
	"finewatch/internal/fca"
	"finewatch/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting fines-ingest")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.FeedURL == "" {
		logger.Error("FINES_FEED_URL is required for ingest")
		os.Exit(1)
	}

	store := cli.InitStore(logger, cfg.SQLiteDBPath)
	defer store.Close()

	feed := fca.NewFeedClient(cfg.FeedURL)

	// With a broker, publish notices so every consumer (including finesd)
	// sees them; without one, write straight to the store.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		amqpClient = client
		logger.Info("Publishing fine notices to queue", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - inserting feed entries directly")
	}

	ingest := worker.NewIngestWorker(store, feed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runOnce := func() {
		if amqpClient == nil {
			if err := ingest.RefreshFromFeed(ctx); err != nil {
				logger.Error("Feed refresh failed", "error", err)
			}
			return
		}

		records, err := feed.FetchNotices(ctx)
		if err != nil {
			logger.Error("Feed fetch failed", "error", err)
			return
		}
		published := 0
		for _, rec := range records {
			if err := amqpClient.PublishFineNotice(ctx, amqp.NewFineNoticeMessage(rec)); err != nil {
				logger.Error("Failed to publish fine notice", "error", err, "reference", rec.Reference)
				continue
			}
			published++
		}
		logger.Info("Feed run completed", "total", len(records), "published", published)
	}

	// One run at startup, then on the refresh interval.
	runOnce()

	ticker := time.NewTicker(cfg.FeedRefreshInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	logger.Info("Ingest shutdown complete")
}
