package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/illusion-note/backend-go/internal/config"
	"github.com/illusion-note/backend-go/internal/database/models"
)

// RedisClient wraps the redis client with helpers for the recent-entries
// cache. The cache is best effort: every failure degrades to a Postgres read.
type RedisClient struct {
	client *redis.Client
	logger *slog.Logger
	cfg    *config.Config
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(cfg *config.Config, logger *slog.Logger) (*RedisClient, error) {
	logger.Info("🔌 [Redis] Connecting to Redis...",
		"host", cfg.RedisHost,
		"port", cfg.RedisPort,
		"db", cfg.RedisDatabase,
	)

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       int(cfg.RedisDatabase),
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("✅ [Redis] Redis connection established")

	return &RedisClient{
		client: client,
		logger: logger,
		cfg:    cfg,
	}, nil
}

// NewRedisClientForTesting creates a Redis client with a provided redis.Client (for testing)
func NewRedisClientForTesting(client *redis.Client, cfg *config.Config, logger *slog.Logger) *RedisClient {
	return &RedisClient{
		client: client,
		logger: logger,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// recentKey generates a Redis key for a user's recent emotion entries
func recentKey(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:recent-entries", userID.String())
}

// GetRecentEntries retrieves cached recent entries for a user. A cache miss
// returns (nil, nil).
func (r *RedisClient) GetRecentEntries(ctx context.Context, userID uuid.UUID) ([]models.EmotionEntry, error) {
	data, err := r.client.Get(ctx, recentKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		r.logger.Error("❌ [Redis] Failed to get recent entries", "user_id", userID, "error", err)
		return nil, err
	}

	var entries []models.EmotionEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		r.logger.Warn("⚠️ [Redis] Corrupt recent-entries cache, dropping", "user_id", userID, "error", err)
		r.client.Del(ctx, recentKey(userID))
		return nil, nil
	}

	r.logger.Debug("📖 [Redis] Recent entries cache hit", "user_id", userID, "count", len(entries))
	return entries, nil
}

// SetRecentEntries stores recent entries for a user with the configured TTL.
func (r *RedisClient) SetRecentEntries(ctx context.Context, userID uuid.UUID, entries []models.EmotionEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	ttl := time.Duration(r.cfg.RecentCacheTTL) * time.Second
	if err := r.client.Set(ctx, recentKey(userID), data, ttl).Err(); err != nil {
		r.logger.Error("❌ [Redis] Failed to set recent entries", "user_id", userID, "error", err)
		return err
	}

	r.logger.Debug("💾 [Redis] Cached recent entries", "user_id", userID, "count", len(entries), "ttl", ttl)
	return nil
}

// InvalidateRecentEntries drops a user's cached recent entries after a write.
func (r *RedisClient) InvalidateRecentEntries(ctx context.Context, userID uuid.UUID) error {
	if err := r.client.Del(ctx, recentKey(userID)).Err(); err != nil {
		r.logger.Error("❌ [Redis] Failed to invalidate recent entries", "user_id", userID, "error", err)
		return err
	}

	r.logger.Debug("🗑️ [Redis] Invalidated recent entries", "user_id", userID)
	return nil
}

// GetClient returns the underlying Redis client (for advanced use cases)
func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}
