package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"ProspectPilot/internal/config"
	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
)

const (
	keyPrefix  = "prospectpilot:peer:"
	defaultTTL = 7 * 24 * time.Hour
)

// Redis stores resolved peers as JSON with a TTL. Errors degrade to cache
// misses so a Redis outage only costs extra lookups.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.ResolutionCache = (*Redis)(nil)

// NewRedisClient builds a go-redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// NewRedis wraps client; ttl <= 0 uses a week.
func NewRedis(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

// Ping verifies connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Get returns the cached peer for key.
func (r *Redis) Get(ctx context.Context, key string) (domain.Peer, bool) {
	raw, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.warn("redis get failed", "error", err)
		}
		return domain.Peer{}, false
	}
	var peer domain.Peer
	if err := json.Unmarshal(raw, &peer); err != nil {
		r.warn("redis entry corrupt", "key", key, "error", err)
		return domain.Peer{}, false
	}
	return peer, true
}

// Set stores peer under key.
func (r *Redis) Set(ctx context.Context, key string, peer domain.Peer) {
	raw, err := json.Marshal(peer)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, keyPrefix+key, raw, r.ttl).Err(); err != nil {
		r.warn("redis set failed", "error", err)
	}
}

func (r *Redis) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

// Tiered checks the in-process cache before the shared one and fills it on a shared hit.
type Tiered struct {
	Local  ports.ResolutionCache
	Shared ports.ResolutionCache
}

var _ ports.ResolutionCache = Tiered{}

// Get implements ports.ResolutionCache.
func (t Tiered) Get(ctx context.Context, key string) (domain.Peer, bool) {
	if peer, ok := t.Local.Get(ctx, key); ok {
		return peer, true
	}
	peer, ok := t.Shared.Get(ctx, key)
	if ok {
		t.Local.Set(ctx, key, peer)
	}
	return peer, ok
}

// Set implements ports.ResolutionCache.
func (t Tiered) Set(ctx context.Context, key string, peer domain.Peer) {
	t.Local.Set(ctx, key, peer)
	t.Shared.Set(ctx, key, peer)
}
