package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"tracker/internal/cli"
	apphttp "tracker/internal/http"
	applog "tracker/internal/log"
	"tracker/internal/probe"
	"tracker/internal/services"
	"tracker/internal/session"
)

func main() {
	cli.LoadEnvFile()
	boot := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)

	amqpClient := cli.ConnectAMQP(context.Background(), cfg, logger)
	var publisher services.EventPublisher
	if amqpClient != nil {
		publisher = amqpClient
	}

	sessions := session.NewManager(session.Config{
		TTL:           cfg.SessionTTL,
		MaxSessions:   cfg.MaxSessions,
		DefaultBudget: cfg.Budget(),
		Publisher:     publisher,
	}, logger)
	sessions.Start()

	prober := probe.New(cfg.ProbeURL, cfg.ProbeTimeout, logger)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		SavePath:       cfg.SavePath,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, sessions, prober, logger)

	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", applog.FieldError, err)
			}
		}
	})

	// Advisory only: the result is logged, startup never waits on it.
	go func() {
		logger.Info("Connectivity checked", applog.FieldOnline, prober.Check(ctx))
	}()

	logger.Info("Starting tracker server",
		applog.FieldOperation, applog.OpStartup,
		"port", cfg.Port,
		"save_path", cfg.SavePath,
		applog.FieldBudgetCents, cfg.Budget().Cents,
		"amqp", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
