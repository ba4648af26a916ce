package sink

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/nlg-metrics/pkg/redis"
)

func newTestLeaderboard(t *testing.T) (*Leaderboard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := redis.NewClient(config.RedisConfig{Addr: mr.Addr(), PoolSize: 2})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return NewLeaderboard(c, "nlgeval:"), mr
}

func TestLeaderboardPublish(t *testing.T) {
	lb, mr := newTestLeaderboard(t)
	ctx := context.Background()

	a := sampleResult()
	b := sampleResult()
	b.SystemID = "sys-b"
	b.BLEU[3] = 0.31
	b.NIST[3] = 4.1

	require.NoError(t, lb.Publish(ctx, a))
	require.NoError(t, lb.Publish(ctx, b))

	assert.True(t, mr.Exists("nlgeval:leaderboard:bleu4"))
	assert.True(t, mr.Exists("nlgeval:leaderboard:nist4"))
	assert.True(t, mr.Exists("nlgeval:leaderboard:entropy4"))

	top, err := lb.Top(ctx, BoardBLEU, 10)
	require.NoError(t, err)
	assert.Equal(t, []redis.Member{{Name: "sys-b", Score: 0.31}, {Name: "sys-a", Score: 0.27}}, top)

	top, err = lb.Top(ctx, BoardNIST, 1)
	require.NoError(t, err)
	assert.Equal(t, []redis.Member{{Name: "sys-a", Score: 4.5}}, top)

	rank, err := lb.Rank(ctx, BoardBLEU, "sys-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rank)

	rank, err = lb.Rank(ctx, BoardBLEU, "sys-z")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), rank)
}

func TestLeaderboardReplacesScore(t *testing.T) {
	lb, _ := newTestLeaderboard(t)
	ctx := context.Background()

	r := sampleResult()
	require.NoError(t, lb.Publish(ctx, r))
	r.BLEU[3] = 0.05
	require.NoError(t, lb.Publish(ctx, r))

	top, err := lb.Top(ctx, BoardBLEU, 10)
	require.NoError(t, err)
	assert.Equal(t, []redis.Member{{Name: "sys-a", Score: 0.05}}, top)
}
