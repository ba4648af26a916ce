package main

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/sink"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/redis"
)

// openSinks connects every enabled result sink. An enabled sink that cannot
// be reached aborts the run before any scoring starts.
func openSinks(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*sink.Fanout, func(), error) {
	var (
		sinks   []sink.Sink
		closers []func() error
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				slog.Warn("closing sink", "error", err)
			}
		}
	}

	if cfg.Postgres.Enabled {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			closeAll()
			return nil, nil, apperrors.Newf(apperrors.ErrSinkUnavailable, "postgres: %v", err)
		}
		closers = append(closers, db.Close)
		store := sink.NewStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, nil, apperrors.Newf(apperrors.ErrSinkUnavailable, "postgres: %v", err)
		}
		sinks = append(sinks, store)
		slog.Info("postgres result history enabled", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka)
		closers = append(closers, producer.Close)
		sinks = append(sinks, sink.NewEventPublisher(producer))
		slog.Info("kafka result events enabled", "topic", cfg.Kafka.Topic)
	}

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis)
		if err != nil {
			closeAll()
			return nil, nil, apperrors.Newf(apperrors.ErrSinkUnavailable, "redis: %v", err)
		}
		closers = append(closers, client.Close)
		sinks = append(sinks, sink.NewLeaderboard(client, cfg.Redis.KeyPrefix))
		slog.Info("redis leaderboard enabled", "addr", cfg.Redis.Addr)
	}

	return sink.NewFanout(m, sinks...), closeAll, nil
}
