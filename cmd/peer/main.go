package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jjweiting/hackthon001/internal/api"
	"github.com/jjweiting/hackthon001/internal/config"
	"github.com/jjweiting/hackthon001/internal/health"
	"github.com/jjweiting/hackthon001/internal/matchmaking"
	arenaNats "github.com/jjweiting/hackthon001/internal/nats"
	"github.com/jjweiting/hackthon001/internal/network"
	"github.com/jjweiting/hackthon001/internal/peer"
	"github.com/jjweiting/hackthon001/internal/task"
)

func main() {
	configPath := flag.String("config", "configs/peer.yaml", "config file")
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

	sessionID := network.NewSessionID()
	logger = logger.With("sessionId", sessionID)

	natsClient, err := arenaNats.NewClient(cfg.NATS, sessionID)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	logger.Info("Connected to NATS", "url", cfg.NATS.URL)

	redisClient := connectRedis(cfg.Redis)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to Redis", "host", cfg.Redis.Host)

	matchmaker := matchmaking.NewRedisMatchmaker(
		redisClient,
		matchmaking.NewIDGenerator(rand.Int64N(1024)),
		cfg.Redis.RoomTTL,
	)
	if err := matchmaker.Start(ctx); err != nil {
		logger.Error("Failed to start matchmaker", "error", err)
		os.Exit(1)
	}

	scheduler := task.NewScheduler(cfg.Scheduler.Workers)
	if err := scheduler.Start(); err != nil {
		logger.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	dialer := arenaNats.NewDialer(natsClient, cfg.NATS.BufferSize)
	p := peer.New(dialer, matchmaker, scheduler, peer.OptionsFromConfig(cfg, sessionID))

	runErr := make(chan error, 1)
	go func() {
		runErr <- p.Run(ctx)
	}()

	healthChecker := health.NewChecker(cfg.App.Name, natsClient.Conn(), redisClient, nil)
	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: api.SetupRouter(cfg.HTTP.Mode, api.NewHandler(p), healthChecker),
	}
	go func() {
		logger.Info("Control API started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Control API failed", "error", err)
		}
	}()

	logger.Info("Peer started", "name", cfg.App.Name, "appId", cfg.App.AppID)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-runErr:
		if err != nil {
			logger.Error("Peer stopped", "error", err)
		}
	}

	logger.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Control API shutdown", "error", err)
	}
	if err := p.Close(shutdownCtx); err != nil {
		logger.Warn("Peer close", "error", err)
	}
	logger.Info("Peer stopped")
}

func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}
