package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache mirrors per-server scores in a Redis ZSET for fast
// top-N and rank reads on the dashboard. MongoDB stays authoritative
// for game semantics; the mirror is updated with each new total and
// dropped whenever the server's scores are wiped.
type LeaderboardCache interface {
	SetScore(ctx context.Context, serverID, playerID string, total int) error
	GetTop(ctx context.Context, serverID string, limit int) ([]LeaderboardEntry, error)
	GetRank(ctx context.Context, serverID, playerID string) (int64, error)
	Clear(ctx context.Context, serverID string) error
}

// LeaderboardEntry represents a single leaderboard entry
type LeaderboardEntry struct {
	PlayerID string `json:"playerId"`
	Seconds  int    `json:"seconds"`
	Rank     int    `json:"rank"`
}

type leaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
	}
}

func (c *leaderboardCache) key(serverID string) string {
	return fmt.Sprintf("reaper:%s:lb", serverID)
}

// SetScore records the player's new cumulative total.
func (c *leaderboardCache) SetScore(ctx context.Context, serverID, playerID string, total int) error {
	return c.client.ZAdd(ctx, c.key(serverID), redis.Z{
		Score:  float64(total),
		Member: playerID,
	}).Err()
}

func (c *leaderboardCache) GetTop(ctx context.Context, serverID string, limit int) ([]LeaderboardEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(serverID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(results))
	for i, z := range results {
		entries[i] = LeaderboardEntry{
			PlayerID: z.Member.(string),
			Seconds:  int(z.Score),
			Rank:     i + 1,
		}
	}
	return entries, nil
}

// GetRank returns the player's 1-indexed rank, or -1 when absent.
func (c *leaderboardCache) GetRank(ctx context.Context, serverID, playerID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.key(serverID), playerID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	if err != nil {
		return 0, err
	}
	return rank + 1, nil
}

// Clear drops the server's mirror.
func (c *leaderboardCache) Clear(ctx context.Context, serverID string) error {
	return c.client.Del(ctx, c.key(serverID)).Err()
}
