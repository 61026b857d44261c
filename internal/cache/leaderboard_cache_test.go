package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestCache(t *testing.T) LeaderboardCache {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewLeaderboardCache(client)
}

func TestSetScoreAndGetTop(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	if err := c.SetScore(ctx, "s1", "alice", 30); err != nil {
		t.Fatalf("SetScore: %v", err)
	}
	if err := c.SetScore(ctx, "s1", "bob", 50); err != nil {
		t.Fatalf("SetScore: %v", err)
	}
	if err := c.SetScore(ctx, "s1", "carol", 10); err != nil {
		t.Fatalf("SetScore: %v", err)
	}

	top, err := c.GetTop(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("GetTop: %v", err)
	}
	want := []LeaderboardEntry{
		{PlayerID: "bob", Seconds: 50, Rank: 1},
		{PlayerID: "alice", Seconds: 30, Rank: 2},
		{PlayerID: "carol", Seconds: 10, Rank: 3},
	}
	if len(top) != len(want) {
		t.Fatalf("got %d entries, expected %d", len(top), len(want))
	}
	for i, w := range want {
		if top[i] != w {
			t.Errorf("top[%d] = %+v, expected %+v", i, top[i], w)
		}
	}
}

func TestSetScoreOverwritesTotal(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	if err := c.SetScore(ctx, "s1", "alice", 5); err != nil {
		t.Fatalf("SetScore: %v", err)
	}
	if err := c.SetScore(ctx, "s1", "alice", 12); err != nil {
		t.Fatalf("SetScore: %v", err)
	}

	top, err := c.GetTop(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("GetTop: %v", err)
	}
	if len(top) != 1 || top[0].Seconds != 12 {
		t.Errorf("top = %+v, expected single entry with 12", top)
	}
}

func TestGetTopRespectsLimit(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	players := []string{"a", "b", "c", "d", "e"}
	for i, p := range players {
		if err := c.SetScore(ctx, "s1", p, (i+1)*10); err != nil {
			t.Fatalf("SetScore: %v", err)
		}
	}

	top, err := c.GetTop(ctx, "s1", 3)
	if err != nil {
		t.Fatalf("GetTop: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("got %d entries, expected 3", len(top))
	}
	if top[0].PlayerID != "e" || top[2].PlayerID != "c" {
		t.Errorf("top = %+v, expected e, d, c", top)
	}
}

func TestGetRank(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	if err := c.SetScore(ctx, "s1", "alice", 30); err != nil {
		t.Fatalf("SetScore: %v", err)
	}
	if err := c.SetScore(ctx, "s1", "bob", 50); err != nil {
		t.Fatalf("SetScore: %v", err)
	}

	rank, err := c.GetRank(ctx, "s1", "alice")
	if err != nil {
		t.Fatalf("GetRank: %v", err)
	}
	if rank != 2 {
		t.Errorf("rank = %d, expected 2", rank)
	}

	rank, err = c.GetRank(ctx, "s1", "nobody")
	if err != nil {
		t.Fatalf("GetRank for missing player: %v", err)
	}
	if rank != -1 {
		t.Errorf("rank for missing player = %d, expected -1", rank)
	}
}

func TestGetRankSurfacesBackendErrors(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	c := NewLeaderboardCache(client)

	mr.Close()

	rank, err := c.GetRank(context.Background(), "s1", "alice")
	if err == nil {
		t.Fatal("expected an error from a dead backend")
	}
	if rank != 0 {
		t.Errorf("rank = %d, expected 0 alongside an error", rank)
	}
}

func TestClear(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	if err := c.SetScore(ctx, "s1", "alice", 30); err != nil {
		t.Fatalf("SetScore: %v", err)
	}
	if err := c.SetScore(ctx, "s2", "bob", 40); err != nil {
		t.Fatalf("SetScore: %v", err)
	}

	if err := c.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	top, err := c.GetTop(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("GetTop after clear: %v", err)
	}
	if len(top) != 0 {
		t.Errorf("s1 should be empty after clear, got %+v", top)
	}

	other, err := c.GetTop(ctx, "s2", 10)
	if err != nil {
		t.Fatalf("GetTop on s2: %v", err)
	}
	if len(other) != 1 {
		t.Errorf("s2 should be untouched, got %+v", other)
	}
}
