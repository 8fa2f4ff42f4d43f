package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"ai-scene-backend/internal/config"
	pg "ai-scene-backend/internal/infra/db/postgres"
	"ai-scene-backend/internal/infra/logging"
	"ai-scene-backend/internal/infra/metrics"
	"ai-scene-backend/internal/infra/queue/celery"
	red "ai-scene-backend/internal/infra/redis"
	"ai-scene-backend/internal/infra/storage"
	"ai-scene-backend/internal/infra/web"
	"ai-scene-backend/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	broker := red.NewListBroker(redisClient)

	// ---- Metrics ----
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	go pollQueueDepth(ctx, broker, cfg.Queue.Name, logger)

	// ---- Repositories ----
	projectRepo := pg.NewProjectRepo(pool)
	assetRepo := pg.NewAssetRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Task producer ----
	producer := celery.NewProducer(broker, cfg.Queue.Name, logger)

	// ---- Use cases ----
	resolver := storage.NewResolver(cfg.Storage)
	bgm := usecase.BgmOptions{AutoSelect: cfg.Bgm.AutoSelect, URLs: cfg.Bgm.URLs}
	projectUC := usecase.NewProjectUseCase(projectRepo, assetRepo, txManager, producer, resolver, bgm, logger)

	// ---- HTTP server ----
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: web.NewServer(projectUC, logger).Router(),
	}
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Str("queue", cfg.Queue.Name).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}

// pollQueueDepth periodically samples the broker queue length into the
// pipeline_queue_depth gauge.
func pollQueueDepth(ctx context.Context, broker *red.ListBroker, queue string, logger *zerolog.Logger) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := broker.Depth(ctx, queue)
			if err != nil {
				logger.Warn().Err(err).Str("queue", queue).Msg("queue depth poll failed")
				continue
			}
			metrics.SetQueueDepth(queue, n)
		}
	}
}
