package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jjweiting/hackthon001/internal/config"
	"github.com/jjweiting/hackthon001/internal/gamemodule"
	"github.com/jjweiting/hackthon001/internal/health"
	arenaNats "github.com/jjweiting/hackthon001/internal/nats"
	"github.com/jjweiting/hackthon001/internal/task"
)

func main() {
	configPath := flag.String("config", "configs/arenad.yaml", "config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.Level(),
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	natsClient, err := arenaNats.NewClient(cfg.NATS, cfg.App.Name)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	logger.Info("Connected to NATS", "url", cfg.NATS.URL)

	scheduler := task.NewScheduler(cfg.Scheduler.Workers)
	if err := scheduler.Start(); err != nil {
		logger.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	publisher := arenaNats.NewNotificationPublisher(natsClient.Conn())
	service := gamemodule.NewService(publisher, scheduler, gamemodule.DefaultsFromConfig(cfg.GameModule))

	subscriber := arenaNats.NewGameRequestSubscriber(natsClient.Conn(), service, arenaNats.SubscriberConfig{
		WorkerCount: cfg.Scheduler.Workers,
		BufferSize:  cfg.NATS.BufferSize,
	})
	if err := subscriber.Start(ctx); err != nil {
		logger.Error("Failed to start subscriber", "error", err)
		os.Exit(1)
	}

	healthChecker := health.NewChecker(cfg.App.Name, natsClient.Conn(), nil, service)
	server := startHealthServer(cfg.HTTP.Addr, healthChecker, logger)

	logger.Info("Game module service started", "name", cfg.App.Name)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	cancel()
	subscriber.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Health server shutdown", "error", err)
	}
	logger.Info("Game module service stopped")
}

func startHealthServer(addr string, healthChecker *health.Checker, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/health", healthChecker)
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if healthChecker.IsHealthy(r.Context()) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("Not Ready"))
		}
	})

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("Health check server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed", "error", err)
		}
	}()
	return server
}
