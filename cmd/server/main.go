package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/avatarctic/health-cache/configs"
	"github.com/avatarctic/health-cache/internal/application/services"
	"github.com/avatarctic/health-cache/internal/core/ports"
	"github.com/avatarctic/health-cache/internal/infrastructure/health"
	"github.com/avatarctic/health-cache/internal/infrastructure/httpserver"
	"github.com/avatarctic/health-cache/internal/infrastructure/memory"
	"github.com/avatarctic/health-cache/internal/infrastructure/metrics"
	"github.com/avatarctic/health-cache/internal/infrastructure/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting health cache...")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	local := memory.NewStore()
	cacheMetrics := metrics.NewCacheMetrics(registry, local.Len)

	// A nil *redis.Dialer must not become a non-nil interface value.
	var dialer ports.RemoteDialer
	redisDialer, err := redis.NewDialer(&cfg.Redis)
	if err != nil {
		logger.Fatal("Invalid Redis configuration:", err)
	}
	if redisDialer != nil {
		dialer = redisDialer
	}

	retry := services.RetryPolicy{
		InitialInterval: cfg.Redis.ConnectInitialBackoff,
		MaxInterval:     cfg.Redis.ConnectMaxBackoff,
		MaxAttempts:     cfg.Redis.ConnectAttempts,
		MaxElapsed:      cfg.Redis.ConnectMaxElapsed,
	}
	conn := services.NewConnectionManager(dialer, retry, cacheMetrics, logger)

	initCtx, initCancel := context.WithTimeout(context.Background(), cfg.Redis.ConnectMaxElapsed+5*time.Second)
	backend := conn.Initialize(initCtx)
	initCancel()
	logger.WithField("backend", backend.String()).Info("Cache backend selected")

	sweeper := memory.NewSweeper(local, cfg.Cache.SweepInterval, conn.IsRemoteAvailable, cacheMetrics, logger)
	cacheService := services.NewCacheService(conn, local, sweeper, cacheMetrics, &services.CacheServiceConfig{
		DefaultTTL:       cfg.Cache.DefaultTTL,
		OperationTimeout: cfg.Cache.OperationTimeout,
		BatchConcurrency: cfg.Cache.BatchConcurrency,
	}, logger)
	cacheService.Start()

	healthData := services.NewHealthDataService(cacheService, &services.HealthDataConfig{
		HealthDataTTL: cfg.Cache.HealthDataTTL,
		FamilyDataTTL: cfg.Cache.FamilyDataTTL,
		AnalysisTTL:   cfg.Cache.AnalysisTTL,
	}, logger)

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if dialer != nil {
		go conn.Watch(watchCtx, cfg.Redis.ProbeInterval)
	}

	hcSlice := []ports.HealthChecker{health.NewLocalCacheHealthChecker(local)}
	if dialer != nil {
		hcSlice = append(hcSlice, health.NewRemoteCacheHealthChecker(conn))
	}

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		TLSCertFile:  cfg.Server.TLSCertFile,
		TLSKeyFile:   cfg.Server.TLSKeyFile,
	}

	server := httpserver.NewServer(serverConfig, logger, httpserver.ServerDeps{
		CacheService:   cacheService,
		HealthData:     healthData,
		HealthCheckers: hcSlice,
		Registry:       registry,
	})

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopWatch()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	if err := cacheService.Close(ctx); err != nil {
		logger.WithError(err).Warn("Failed to close cache")
	}

	logger.Info("Server exited")
}
