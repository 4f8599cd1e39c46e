// Package main is the entry point of the check-in service. It loads
// configuration, connects to PostgreSQL and Redis, wires the services and
// serves the HTTP API until it receives SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stylay/checkin-service/internal/api/checkin"
	"github.com/stylay/checkin-service/internal/cache"
	"github.com/stylay/checkin-service/internal/config"
	"github.com/stylay/checkin-service/internal/notifier"
	"github.com/stylay/checkin-service/internal/repository"
	"github.com/stylay/checkin-service/internal/service/leaderboard"
	"github.com/stylay/checkin-service/internal/service/scheduler"
	"github.com/stylay/checkin-service/internal/service/streak"
	"github.com/stylay/checkin-service/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log.Info().
		Str("environment", cfg.Server.Environment).
		Int("port", cfg.Server.Port).
		Msg("Starting check-in service")

	// Database
	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := repository.Migrate(&cfg.Database.Postgres, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Redis
	redisCache, err := cache.NewRedisCache(&cfg.Database.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisCache.Close()

	// Repositories and services
	checkinRepo := repository.NewCheckinRepository(db)

	table, err := streak.NewMilestoneTable(cfg.Checkin.Milestones)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid milestone configuration")
	}
	engine := streak.NewEngine(table)

	webhookClient := notifier.NewClient(&cfg.Notifier, log)

	checkinService, err := streak.NewService(checkinRepo, redisCache, webhookClient, engine, &cfg.Checkin, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create check-in service")
	}
	leaderboardService := leaderboard.NewService(checkinRepo, log)

	// Scheduler
	schedulerService := scheduler.NewService(cfg, checkinRepo, webhookClient, log)
	if err := schedulerService.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer schedulerService.Stop()

	// HTTP server
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	handler := checkin.NewHandler(checkinService, leaderboardService, db, redisCache, log)
	handler.RegisterRoutes(router)

	if cfg.Metrics.Prometheus.Enabled {
		router.GET(cfg.Metrics.Prometheus.Path, gin.WrapH(promhttp.Handler()))
		log.Info().Str("path", cfg.Metrics.Prometheus.Path).Msg("Prometheus metrics enabled")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Check-in service stopped")
}
