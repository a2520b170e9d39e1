package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/deepcheck/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "history:"
	versionPrefix = "history-version:"
)

// RedisCache keeps JSON-encoded history pages under
// history:<user_id>:<limit> with a fixed TTL. history-version:<user_id>
// is bumped on every invalidation and guards Set.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// Dial connects to addr and checks the connection.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func userPrefix(userID string) string {
	return keyPrefix + userID + ":"
}

func pageKey(userID string, limit int) string {
	return fmt.Sprintf("%s%d", userPrefix(userID), limit)
}

func versionKey(userID string) string {
	return versionPrefix + userID
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readVersion(ctx context.Context, c stringGetter, userID string) (int64, error) {
	v, err := c.Get(ctx, versionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *RedisCache) Get(ctx context.Context, userID string, limit int) ([]*models.AnalysisRecord, int64, bool, error) {
	version, err := readVersion(ctx, c.rdb, userID)
	if err != nil {
		return nil, 0, false, err
	}

	b, err := c.rdb.Get(ctx, pageKey(userID, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, version, false, nil
	}
	if err != nil {
		return nil, 0, false, err
	}

	var recs []*models.AnalysisRecord
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, version, false, fmt.Errorf("decode cached history: %w", err)
	}
	if recs == nil {
		recs = []*models.AnalysisRecord{}
	}
	return recs, version, true, nil
}

// Set stores records unless the user's version moved past version.
func (c *RedisCache) Set(ctx context.Context, userID string, limit int, version int64, records []*models.AnalysisRecord) error {
	b, err := json.Marshal(records)
	if err != nil {
		return err
	}

	vk := versionKey(userID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := readVersion(ctx, tx, userID)
		if err != nil {
			return err
		}
		if cur != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, pageKey(userID, limit), b, c.ttl)
			return nil
		})
		return err
	}, vk)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate bumps the user's version and removes every cached page.
func (c *RedisCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.rdb.Incr(ctx, versionKey(userID)).Err(); err != nil {
		return err
	}

	var keys []string
	iter := c.rdb.Scan(ctx, 0, userPrefix(userID)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
