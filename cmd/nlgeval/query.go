package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/evaluator"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/sink"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/redis"
)

// query selects one read-only lookup against the result sinks. At most one
// of Leaderboard, History and Latest is set.
type query struct {
	Leaderboard string
	History     string
	Latest      bool
	SystemID    string
	Top         int64
	Limit       int
}

func (q query) active() bool {
	return q.Leaderboard != "" || q.History != "" || q.Latest
}

func (q query) validate() error {
	modes := 0
	for _, set := range []bool{q.Leaderboard != "", q.History != "", q.Latest} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return apperrors.New(apperrors.ErrInvalidInput, "-leaderboard, -history and -latest are mutually exclusive")
	}
	if q.Leaderboard != "" {
		switch q.Leaderboard {
		case sink.BoardBLEU, sink.BoardNIST, sink.BoardEntropy:
		default:
			return apperrors.Newf(apperrors.ErrInvalidInput, "unknown leaderboard %q (want %s, %s or %s)",
				q.Leaderboard, sink.BoardBLEU, sink.BoardNIST, sink.BoardEntropy)
		}
		if q.Top <= 0 {
			return apperrors.Newf(apperrors.ErrInvalidInput, "-top must be positive, got %d", q.Top)
		}
	}
	if q.History != "" {
		if _, _, err := parseMetric(q.History); err != nil {
			return err
		}
		if q.Limit <= 0 {
			return apperrors.Newf(apperrors.ErrInvalidInput, "-limit must be positive, got %d", q.Limit)
		}
	}
	if q.Latest && q.SystemID == "" {
		return apperrors.New(apperrors.ErrInvalidInput, "-latest needs a system id")
	}
	return nil
}

// parseMetric splits a metric name such as "bleu4" into its name and
// n-gram order.
func parseMetric(s string) (string, int, error) {
	s = strings.ToLower(s)
	i := strings.IndexAny(s, "0123456789")
	if i <= 0 {
		return "", 0, apperrors.Newf(apperrors.ErrInvalidInput, "metric %q must be a name followed by an order, e.g. bleu4", s)
	}
	name := s[:i]
	n, err := strconv.Atoi(s[i:])
	if err != nil || n < 1 || n > evaluator.Orders {
		return "", 0, apperrors.Newf(apperrors.ErrInvalidInput, "metric %q: order must be 1..%d", s, evaluator.Orders)
	}
	switch name {
	case "nist", "bleu", "entropy", "distinct":
		return name, n, nil
	default:
		return "", 0, apperrors.Newf(apperrors.ErrInvalidInput, "unknown metric %q", name)
	}
}

// runQuery answers q from the configured sinks and writes a plain-text
// table to w.
func runQuery(ctx context.Context, cfg *config.Config, q query, w io.Writer) error {
	if err := q.validate(); err != nil {
		return err
	}
	if q.Leaderboard != "" {
		if !cfg.Redis.Enabled {
			return apperrors.New(apperrors.ErrSinkUnavailable, "-leaderboard needs redis.enabled")
		}
		client, err := redis.NewClient(cfg.Redis)
		if err != nil {
			return apperrors.Newf(apperrors.ErrSinkUnavailable, "redis: %v", err)
		}
		defer client.Close()
		return writeLeaderboard(ctx, sink.NewLeaderboard(client, cfg.Redis.KeyPrefix), q, w)
	}

	if !cfg.Postgres.Enabled {
		return apperrors.New(apperrors.ErrSinkUnavailable, "-history and -latest need postgres.enabled")
	}
	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		return apperrors.Newf(apperrors.ErrSinkUnavailable, "postgres: %v", err)
	}
	defer db.Close()
	store := sink.NewStore(db)
	if q.History != "" {
		return writeHistory(ctx, store, q, w)
	}
	return writeLatest(ctx, store, q.SystemID, w)
}

func writeLeaderboard(ctx context.Context, lb *sink.Leaderboard, q query, w io.Writer) error {
	top, err := lb.Top(ctx, q.Leaderboard, q.Top)
	if err != nil {
		return apperrors.Newf(apperrors.ErrSinkUnavailable, "reading %s leaderboard: %v", q.Leaderboard, err)
	}
	fmt.Fprintf(w, "%-6s %-24s %s\n", "rank", "system", q.Leaderboard)
	for i, m := range top {
		fmt.Fprintf(w, "%-6d %-24s %.4f\n", i+1, m.Name, m.Score)
	}
	if q.SystemID == "" {
		return nil
	}
	rank, err := lb.Rank(ctx, q.Leaderboard, q.SystemID)
	if err != nil {
		return apperrors.Newf(apperrors.ErrSinkUnavailable, "ranking %s: %v", q.SystemID, err)
	}
	if rank < 0 {
		fmt.Fprintf(w, "%s is not ranked\n", q.SystemID)
		return nil
	}
	fmt.Fprintf(w, "%s is ranked %d\n", q.SystemID, rank+1)
	return nil
}

func writeHistory(ctx context.Context, store *sink.Store, q query, w io.Writer) error {
	metric, n, err := parseMetric(q.History)
	if err != nil {
		return err
	}
	points, err := store.History(ctx, metric, n, q.Limit)
	if err != nil {
		return apperrors.Newf(apperrors.ErrSinkUnavailable, "%v", err)
	}
	fmt.Fprintf(w, "%-36s %-24s %s%d\n", "run", "system", metric, n)
	for _, p := range points {
		fmt.Fprintf(w, "%-36s %-24s %.4f\n", p.RunID, p.SystemID, p.Value)
	}
	return nil
}

func writeLatest(ctx context.Context, store *sink.Store, systemID string, w io.Writer) error {
	result, err := store.Latest(ctx, systemID)
	if err != nil {
		return apperrors.Newf(apperrors.ErrSinkUnavailable, "%v", err)
	}
	if result == nil {
		return apperrors.Newf(apperrors.ErrInvalidInput, "no stored runs for system %q", systemID)
	}
	_, err = fmt.Fprint(w, result.Text())
	return err
}
