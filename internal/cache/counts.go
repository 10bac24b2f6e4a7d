package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/keaz/contacts-backend/internal/logger"
	"github.com/keaz/contacts-backend/internal/utils"
)

// CountCache keeps per-user contact counts in redis so the count/kpi
// endpoints avoid a table scan on every call. Entries expire on their
// own and are invalidated on every contact write, so a miss just falls
// through to the database.
type CountCache interface {
	Get(ctx context.Context, userID uuid.UUID, key string) (int64, bool)
	Set(ctx context.Context, userID uuid.UUID, key string, value int64)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type countCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewCountCache(log *logger.Logger) (CountCache, error) {
	addr := utils.GetEnv("REDIS_ADDR", "", log)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttlSeconds := utils.GetEnvAsInt("COUNT_CACHE_TTL", 60, log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &countCache{
		log: log.With("service", "CountCache"),
		rdb: rdb,
		ttl: time.Duration(ttlSeconds) * time.Second,
	}, nil
}

func cacheKey(userID uuid.UUID, key string) string {
	return fmt.Sprintf("contacts:%s:%s", userID, key)
}

func (cc *countCache) Get(ctx context.Context, userID uuid.UUID, key string) (int64, bool) {
	raw, err := cc.rdb.Get(ctx, cacheKey(userID, key)).Result()
	if err != nil {
		if err != goredis.Nil {
			cc.log.Warn("Count cache read failed", "error", err)
		}
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (cc *countCache) Set(ctx context.Context, userID uuid.UUID, key string, value int64) {
	if err := cc.rdb.Set(ctx, cacheKey(userID, key), value, cc.ttl).Err(); err != nil {
		cc.log.Warn("Count cache write failed", "error", err)
	}
}

func (cc *countCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	keys := []string{
		cacheKey(userID, "count"),
		cacheKey(userID, "activeCount"),
	}
	if err := cc.rdb.Del(ctx, keys...).Err(); err != nil {
		cc.log.Warn("Count cache invalidation failed", "error", err)
	}
}
