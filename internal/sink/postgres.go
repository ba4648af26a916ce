package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/evaluator"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS eval_runs (
    run_id      UUID PRIMARY KEY,
    system_id   TEXT NOT NULL,
    hypothesis  TEXT NOT NULL,
    segments    INTEGER NOT NULL,
    mean_length DOUBLE PRECISION NOT NULL,
    data        JSONB NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS eval_scores (
    run_id UUID NOT NULL REFERENCES eval_runs (run_id) ON DELETE CASCADE,
    metric TEXT NOT NULL,
    n      SMALLINT NOT NULL,
    value  DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (run_id, metric, n)
);
CREATE INDEX IF NOT EXISTS eval_runs_system_started ON eval_runs (system_id, started_at DESC);`

// Store keeps the history of evaluation runs in PostgreSQL. Each run is one
// eval_runs row holding the full result as JSONB, plus one eval_scores row
// per metric and n-gram order.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// NewStore creates a Store over db.
func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "result-store"),
	}
}

func (s *Store) Name() string { return "postgres" }

// EnsureSchema creates the result tables when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating result schema: %w", err)
	}
	return nil
}

// Publish stores result in a single transaction.
func (s *Store) Publish(ctx context.Context, result *evaluator.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	err = s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO eval_runs (run_id, system_id, hypothesis, segments, mean_length, data, started_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			result.RunID, result.SystemID, result.Hypothesis, result.Segments,
			result.MeanLength, data, result.StartedAt.UTC(),
		); err != nil {
			return fmt.Errorf("inserting run: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO eval_scores (run_id, metric, n, value) VALUES ($1, $2, $3, $4)`)
		if err != nil {
			return fmt.Errorf("preparing score insert: %w", err)
		}
		defer stmt.Close()
		for _, row := range scoreRows(result) {
			if _, err := stmt.ExecContext(ctx, result.RunID, row.metric, row.n, row.value); err != nil {
				return fmt.Errorf("inserting %s-%d: %w", row.metric, row.n, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving result %s: %w", result.RunID, err)
	}
	s.logger.Info("result saved", "run_id", result.RunID, "system_id", result.SystemID)
	return nil
}

// Latest loads the most recent result for systemID. Returns nil, nil if the
// system has no stored runs.
func (s *Store) Latest(ctx context.Context, systemID string) (*evaluator.Result, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM eval_runs WHERE system_id = $1 ORDER BY started_at DESC LIMIT 1`,
		systemID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest result: %w", err)
	}
	var result evaluator.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshaling result: %w", err)
	}
	return &result, nil
}

// HistoryPoint is one run's score for a single metric and order.
type HistoryPoint struct {
	RunID    string
	SystemID string
	Value    float64
}

// History returns up to limit stored values of metric at order n, newest
// first.
func (s *Store) History(ctx context.Context, metric string, n int, limit int) ([]HistoryPoint, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT r.run_id, r.system_id, sc.value
		   FROM eval_scores sc JOIN eval_runs r ON r.run_id = sc.run_id
		  WHERE sc.metric = $1 AND sc.n = $2
		  ORDER BY r.started_at DESC
		  LIMIT $3`,
		metric, n, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s-%d history: %w", metric, n, err)
	}
	defer rows.Close()

	var points []HistoryPoint
	for rows.Next() {
		var p HistoryPoint
		if err := rows.Scan(&p.RunID, &p.SystemID, &p.Value); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

type scoreRow struct {
	metric string
	n      int
	value  float64
}

func scoreRows(r *evaluator.Result) []scoreRow {
	rows := make([]scoreRow, 0, 4*evaluator.Orders)
	for _, m := range []struct {
		name   string
		values [evaluator.Orders]float64
	}{
		{"nist", r.NIST},
		{"bleu", r.BLEU},
		{"entropy", r.Entropy},
		{"distinct", r.Distinct},
	} {
		for i, v := range m.values {
			rows = append(rows, scoreRow{metric: m.name, n: i + 1, value: v})
		}
	}
	return rows
}
