// Package main tails a metrics topic and prints every decoded record.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/source-open/metrics-kafka/internal/config"
	"github.com/source-open/metrics-kafka/internal/consumer"
	"github.com/source-open/metrics-kafka/internal/reporter"
	"github.com/source-open/metrics-kafka/pkg/shared"
)

func main() {
	// Parse command-line flags with environment variable fallbacks
	cfg := &config.TailConfig{}
	flag.StringVar(&cfg.KafkaBrokers, "kafka-brokers", shared.GetEnvOrDefault("KAFKA_BROKERS", "localhost:9092"), "Kafka broker addresses (comma-separated)")
	flag.StringVar(&cfg.Topic, "topic", shared.GetEnvOrDefault("METRICS_TOPIC", config.DefaultTopic), "Kafka topic metrics are published on")
	flag.StringVar(&cfg.GroupID, "consumer-group-id", shared.GetEnvOrDefault("CONSUMER_GROUP_ID", ""), "Kafka consumer group ID (empty tails all partitions from the newest offset under a generated group)")
	flag.StringVar(&cfg.Reporter, "reporter", shared.GetEnvOrDefault("REPORTER", ""), "Only print records from this reporter")
	flag.Parse()

	// Set up structured logging
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c, err := consumer.New(cfg.KafkaBrokers, cfg.Topic, cfg.GroupID)
	if err != nil {
		slog.Error("Failed to create Kafka consumer", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	for {
		rec, msg, err := c.ReadRecord(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				break
			}
			if msg != nil {
				slog.Warn("Skipping undecodable record", "offset", msg.Offset, "error", err)
				continue
			}
			slog.Error("Failed to read record", "error", err)
			os.Exit(1)
		}
		if cfg.Reporter != "" && rec.Reporter != cfg.Reporter {
			continue
		}
		fmt.Println(format(rec))
	}

	slog.Info("Metrics tail stopped")
}

func format(rec reporter.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s %s %g", rec.TimestampMs, rec.Key(), rec.Type, rec.Value)
	if rec.Count > 0 {
		fmt.Fprintf(&b, " count=%d sum=%g", rec.Count, rec.Sum)
	}
	if len(rec.Quantiles) > 0 {
		qs := make([]string, 0, len(rec.Quantiles))
		for q := range rec.Quantiles {
			qs = append(qs, q)
		}
		sort.Strings(qs)
		for _, q := range qs {
			fmt.Fprintf(&b, " p%s=%g", q, rec.Quantiles[q])
		}
	}
	return b.String()
}
