package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/redis"
)

// runCheck checks the scorer and every enabled sink and writes the report
// as JSON to w.
func runCheck(ctx context.Context, cfg *config.Config, w io.Writer) int {
	checker := health.NewChecker()
	checker.Register("scorer", health.FromError(func(context.Context) error {
		return commandAvailable(cfg.Scorer.Command)
	}))
	checker.Register("multi-bleu", func(context.Context) health.ComponentHealth {
		if err := commandAvailable(cfg.Scorer.MultiBleuCommand); err != nil {
			// Only cumbleu needs it.
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	if cfg.Postgres.Enabled {
		checker.Register("postgres", health.FromError(func(ctx context.Context) error {
			db, err := postgres.New(cfg.Postgres)
			if err != nil {
				return err
			}
			defer db.Close()
			return db.Ping(ctx)
		}))
	}
	if cfg.Redis.Enabled {
		checker.Register("redis", health.FromError(func(ctx context.Context) error {
			client, err := redis.NewClient(cfg.Redis)
			if err != nil {
				return err
			}
			defer client.Close()
			return client.Ping(ctx)
		}))
	}
	if cfg.Kafka.Enabled {
		checker.Register("kafka", health.FromError(func(ctx context.Context) error {
			return kafka.Ping(ctx, cfg.Kafka)
		}))
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	report := checker.Run(ctx)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintf(os.Stderr, "writing report: %v\n", err)
		return apperrors.ExitInternal
	}

	switch {
	case report.Components["scorer"].Status != health.StatusUp:
		return apperrors.ExitScorer
	case report.Status == health.StatusDown:
		return apperrors.ExitSink
	default:
		return apperrors.ExitOK
	}
}

// commandAvailable checks that the interpreter is on PATH and that any
// script argument exists.
func commandAvailable(command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("no command configured")
	}
	if _, err := exec.LookPath(command[0]); err != nil {
		return err
	}
	for _, arg := range command[1:] {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		if _, err := os.Stat(arg); err != nil {
			return fmt.Errorf("script %s: %w", arg, err)
		}
	}
	return nil
}
