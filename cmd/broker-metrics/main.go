// Package main runs a broker metrics host. It loads broker properties,
// starts the configured metrics reporters and serves the management API.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/source-open/metrics-kafka/internal/config"
	"github.com/source-open/metrics-kafka/internal/lifecycle"
	"github.com/source-open/metrics-kafka/internal/management"
	"github.com/source-open/metrics-kafka/internal/plugin"
	"github.com/source-open/metrics-kafka/internal/snapshot"
	"github.com/source-open/metrics-kafka/pkg/metrics"
	"github.com/source-open/metrics-kafka/pkg/shared"
)

func main() {
	// Parse command-line flags with environment variable fallbacks
	cfg := &config.HostConfig{}
	var mockProducer bool
	flag.StringVar(&cfg.PropertiesPath, "config", shared.GetEnvOrDefault("BROKER_CONFIG", "config/server.properties"), "Broker properties file")
	flag.StringVar(&cfg.HTTPPort, "http-port", shared.GetEnvOrDefault("HTTP_PORT", "8090"), "Management HTTP port")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", shared.GetEnvOrDefault("REDIS_ADDR", ""), "Redis address for reading snapshots (optional)")
	flag.BoolVar(&mockProducer, "mock-producer", shared.GetEnvBoolOrDefault("MOCK_PRODUCER", false), "Log metrics instead of publishing them to Kafka")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting broker metrics host",
		"config", cfg.PropertiesPath,
		"http_port", cfg.HTTPPort,
		"redis_addr", cfg.RedisAddr,
		"mock_producer", mockProducer,
	)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	props, err := config.Load(cfg.PropertiesPath)
	if err != nil {
		slog.Error("Failed to load broker properties", "error", err)
		os.Exit(1)
	}
	if mockProducer {
		props.Set(config.KeyMockProducer, "true")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	registry := metrics.DefaultRegistry()

	reporters := plugin.NewRegistry()
	if err := plugin.RegisterBuiltins(reporters,
		lifecycle.WithRegistry(registry),
		lifecycle.WithLogger(logger),
	); err != nil {
		slog.Error("Failed to register reporters", "error", err)
		os.Exit(1)
	}
	slog.Info("Registered metrics reporters", "available", reporters.Names())

	host := plugin.NewHost(reporters, logger)
	defer host.Close()
	if err := host.StartReporters(props); err != nil {
		slog.Error("Failed to start metrics reporters", "error", err)
		slog.Info("Tip: Start Kafka with 'docker compose up -d kafka' or run with --mock-producer")
		host.Close()
		os.Exit(1)
	}

	// Snapshot reader is optional
	var snapshots management.SnapshotSource
	if cfg.RedisAddr != "" {
		slog.Info("Connecting to Redis", "addr", cfg.RedisAddr)
		redisClient, err := shared.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			slog.Error("Failed to connect to Redis, snapshots disabled", "error", err)
		} else {
			defer redisClient.Close()
			snapshots = snapshot.NewReader(redisClient)
			slog.Info("Successfully connected to Redis")
		}
	}

	h := management.NewHandlers(host, snapshots)
	server := management.NewServer(cfg.HTTPPort, h, registry)
	server.Handler = management.Instrument(registry, server.Handler)

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		slog.Info("Shutting down HTTP server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Error shutting down server", "error", err)
		}
		slog.Info("HTTP server stopped")
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
		host.Close()
		os.Exit(1)
	}

	slog.Info("Broker metrics host stopped")
}
