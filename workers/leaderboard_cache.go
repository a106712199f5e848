package workers

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"bingo-task-system/services"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCacheClient mirrors leaderboard snapshots into Redis sorted sets
// so hot ranking reads never touch Postgres. The mirror is a read model: the
// database stays authoritative and the cache is rebuilt every tick.
type LeaderboardCacheClient struct {
	Redis       *redis.Client
	Leaderboard *services.LeaderboardService
}

// NewLeaderboardCacheClient connects to REDIS_ADDR. Returns nil when the
// variable is unset, which disables the mirror entirely.
func NewLeaderboardCacheClient(leaderboard *services.LeaderboardService) (*LeaderboardCacheClient, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &LeaderboardCacheClient{Redis: client, Leaderboard: leaderboard}, nil
}

func cacheKey(scope string) string {
	return "leaderboard:" + scope
}

// SyncOnce rebuilds both scoped sorted sets from the current snapshots.
func (c *LeaderboardCacheClient) SyncOnce(ctx context.Context) error {
	for _, scope := range []string{services.ScopeTotal, services.ScopeMonthly} {
		snapshot, err := c.Leaderboard.Snapshot(scope)
		if err != nil {
			return err
		}

		key := cacheKey(scope)
		pipe := c.Redis.TxPipeline()
		pipe.Del(ctx, key)
		for _, entry := range snapshot {
			pipe.ZAdd(ctx, key, redis.Z{
				Score:  float64(entry.Points),
				Member: entry.UserID,
			})
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to rebuild %s: %w", key, err)
		}
	}
	return nil
}

// TopN reads the highest-scored users for a scope straight from the mirror.
// Entries carry both counters and the rank tier, the same shape Snapshot
// serves when the mirror is cold.
func (c *LeaderboardCacheClient) TopN(ctx context.Context, scope string, n int) ([]services.SnapshotEntry, error) {
	results, err := c.Redis.ZRevRangeWithScores(ctx, cacheKey(scope), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard cache: %w", err)
	}

	// The scoped set carries one counter; the other comes from its sibling
	// set. Rank tiers derive from lifetime points regardless of scope.
	other := services.ScopeMonthly
	if scope == services.ScopeMonthly {
		other = services.ScopeTotal
	}
	pipe := c.Redis.Pipeline()
	otherCmds := make([]*redis.FloatCmd, len(results))
	for i, r := range results {
		userID, _ := r.Member.(string)
		otherCmds[i] = pipe.ZScore(ctx, cacheKey(other), userID)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read %s scores: %w", other, err)
	}

	entries := make([]services.SnapshotEntry, 0, len(results))
	for i, r := range results {
		userID, _ := r.Member.(string)
		otherScore, err := otherCmds[i].Result()
		if err != nil {
			otherScore = 0
		}

		scoped := int64(r.Score)
		total, monthly := scoped, int64(otherScore)
		if scope == services.ScopeMonthly {
			total, monthly = int64(otherScore), scoped
		}
		entries = append(entries, services.SnapshotEntry{
			UserID:        userID,
			Points:        scoped,
			TotalPoints:   total,
			MonthlyPoints: monthly,
			Rank:          services.RankForPoints(total),
		})
	}
	return entries, nil
}

// PollLeaderboard keeps the Redis mirror fresh until the context is done.
func PollLeaderboard(ctx context.Context, client *LeaderboardCacheClient, pollInterval time.Duration) {
	log.Println("Starting leaderboard cache polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Leaderboard cache polling stopped.")
			return
		case <-ticker.C:
			if err := client.SyncOnce(ctx); err != nil {
				log.Printf("❌ Leaderboard cache sync failed: %v", err)
			}
		}
	}
}
