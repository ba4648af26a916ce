package sink

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/internal/evaluator"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/redis"
)

// Leaderboard keeps the latest 4-gram BLEU, NIST and entropy of every system
// in Redis sorted sets named {prefix}leaderboard:{metric}.
type Leaderboard struct {
	client *redis.Client
	prefix string
}

// Leaderboard metrics.
const (
	BoardBLEU    = "bleu4"
	BoardNIST    = "nist4"
	BoardEntropy = "entropy4"
)

func NewLeaderboard(client *redis.Client, prefix string) *Leaderboard {
	return &Leaderboard{client: client, prefix: prefix}
}

func (l *Leaderboard) Name() string { return "redis" }

func (l *Leaderboard) key(board string) string {
	return l.prefix + "leaderboard:" + board
}

// Publish replaces the system's entry on every board.
func (l *Leaderboard) Publish(ctx context.Context, result *evaluator.Result) error {
	last := evaluator.Orders - 1
	for board, score := range map[string]float64{
		BoardBLEU:    result.BLEU[last],
		BoardNIST:    result.NIST[last],
		BoardEntropy: result.Entropy[last],
	} {
		if err := l.client.ZAdd(ctx, l.key(board), score, result.SystemID); err != nil {
			return fmt.Errorf("updating %s board: %w", board, err)
		}
	}
	return nil
}

// Top returns the n best systems on board, best first.
func (l *Leaderboard) Top(ctx context.Context, board string, n int64) ([]redis.Member, error) {
	return l.client.ZTop(ctx, l.key(board), n)
}

// Rank returns the zero-based position of systemID on board.
func (l *Leaderboard) Rank(ctx context.Context, board string, systemID string) (int64, error) {
	rank, err := l.client.ZRank(ctx, l.key(board), systemID)
	if redis.IsNilError(err) {
		return -1, nil
	}
	return rank, err
}
