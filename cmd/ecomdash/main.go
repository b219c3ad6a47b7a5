package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ecomdash/internal/amqp"
	"ecomdash/internal/analytics"
	"ecomdash/internal/cli"
	apphttp "ecomdash/internal/http"
	"ecomdash/internal/log"
	"ecomdash/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	bootstrap := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg.LogLevel)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	result := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	// The dashboard is useless without data, so the first load must succeed.
	holder := &analytics.Holder{}
	reloader := worker.NewReloader(result.Reader, holder)
	session, err := reloader.Reload(ctx)
	if err != nil {
		logger.Error("Initial dataset load failed", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:           ":" + cfg.Port,
		Currency:       cfg.CurrencyCode,
		ChartRateLimit: cfg.ChartRateLimit,
		Logger:         logger,
	}, holder)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting ecomdash server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			log.FieldSnapshot, session.ID(),
			log.FieldRows, session.Len(),
			log.FieldRange, session.Bounds().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		return nil
	})

	g.Go(func() error {
		return reloader.Run(gctx, cfg.RefreshInterval)
	})

	if cfg.AMQPEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Reload notifications are an optimisation; keep serving the loaded session.
			logger.Error("Failed to initialize AMQP client, reload notifications disabled", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			g.Go(func() error {
				err := amqpClient.ConsumeDatasetReload(gctx, reloader.HandleReloadMessage)
				if err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
			logger.Info("Listening for dataset reload messages", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
