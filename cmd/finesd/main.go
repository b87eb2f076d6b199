package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finewatch/internal/amqp"
	"finewatch/internal/cli"
	apphttp "finewatch/internal/http"
	"finewatch/internal/services"
	"finewatch/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitStore(logger, cfg.SQLiteDBPath)
	defer store.Close()

	svc := services.NewFinesService(store, cfg.SlugCacheTTL)
	srv := apphttp.NewServer(":"+cfg.Port, svc)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// When a broker is configured, consume fine notices in-process so new
	// rows appear in the API without waiting for TTL expiry.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		ingest := worker.NewIngestWorker(store, nil,
			svc.Resolver(),
			worker.InvalidatorFunc(srv.InvalidateCaches),
		)

		go func() {
			handle := func(msg *amqp.FineNoticeMessage) error {
				return ingest.HandleNoticeMessage(ctx, msg)
			}
			if err := amqpClient.ConsumeFineNotices(ctx, handle); err != nil && err != context.Canceled {
				logger.Error("Fine notice consumption failed", "error", err)
			}
		}()
		logger.Info("Consuming fine notices", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - fines appear via ingest runs only")
	}

	// Graceful shutdown handling
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting finesd server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
