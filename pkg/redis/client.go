// Package redis provides a thin wrapper around go-redis/v9 with connection
// pooling and the sorted-set operations behind the score leaderboard.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/config"
	"github.com/redis/go-redis/v9"
)

// Client wraps a go-redis client.
type Client struct {
	rdb *redis.Client
}

// Member is one scored entry of a sorted set.
type Member struct {
	Name  string
	Score float64
}

// NewClient creates a Redis client and verifies the connection with a PING.
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// ZAdd sets member's score in the sorted set at key, replacing any previous
// score.
func (c *Client) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return c.rdb.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

// ZTop returns the n highest-scored members of the sorted set at key,
// highest first.
func (c *Client) ZTop(ctx context.Context, key string, n int64) ([]Member, error) {
	if n <= 0 {
		return nil, nil
	}
	zs, err := c.rdb.ZRevRangeWithScores(ctx, key, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading sorted set %s: %w", key, err)
	}
	members := make([]Member, 0, len(zs))
	for _, z := range zs {
		name, _ := z.Member.(string)
		members = append(members, Member{Name: name, Score: z.Score})
	}
	return members, nil
}

// ZRank returns member's zero-based rank, highest score first.
func (c *Client) ZRank(ctx context.Context, key string, member string) (int64, error) {
	return c.rdb.ZRevRank(ctx, key, member).Result()
}

// IsNilError reports whether err is a Redis nil (key-not-found) error.
func IsNilError(err error) bool {
	return err == redis.Nil
}

// Close closes the underlying Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping sends a PING to Redis and returns any error.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
