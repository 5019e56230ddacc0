package repo

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/focusflow/internal/model"
)

// StatsCache wraps a TaskRepository with a Redis read-through cache for Stats.
// Every successful write by a user bumps that user's cache version, so a
// snapshot read before the write can never be served after it.
type StatsCache struct {
	TaskRepository
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewStatsCache(base TaskRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *StatsCache {
	if base == nil {
		panic("repo.NewStatsCache: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &StatsCache{TaskRepository: base, redis: client, ttl: ttl, logger: logger}
}

func (c *StatsCache) Stats(ctx context.Context, userID int64, now time.Time) (model.TaskStats, error) {
	// Версия читается до запроса к БД: снимок, сделанный до записи, уйдет под старый ключ
	version, ok := c.version(ctx, userID)
	if !ok {
		return c.TaskRepository.Stats(ctx, userID, now)
	}
	key := statsCacheKey(userID, version, now)
	if s, ok := c.load(ctx, key); ok {
		return s, nil
	}

	s, err := c.TaskRepository.Stats(ctx, userID, now)
	if err != nil {
		return s, err
	}
	c.store(ctx, key, s)
	return s, nil
}

// version returns the user's current cache version; false means the cache
// must be bypassed.
func (c *StatsCache) version(ctx context.Context, userID int64) (int64, bool) {
	if c.redis == nil {
		return 0, false
	}
	v, err := c.redis.Get(ctx, statsVersionKey(userID)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, true
	case err != nil:
		c.logger.Warn("stats cache version read failed", zap.Int64("user_id", userID), zap.Error(err))
		return 0, false
	}
	return v, true
}

func (c *StatsCache) Create(ctx context.Context, userID int64, in model.CreateTaskInput) (model.Task, error) {
	t, err := c.TaskRepository.Create(ctx, userID, in)
	if err == nil {
		c.evict(ctx, userID)
	}
	return t, err
}

func (c *StatsCache) Update(ctx context.Context, userID, id int64, patch model.UpdateTaskInput) (model.Task, error) {
	t, err := c.TaskRepository.Update(ctx, userID, id, patch)
	if err == nil {
		c.evict(ctx, userID)
	}
	return t, err
}

func (c *StatsCache) Delete(ctx context.Context, userID, id int64) error {
	if err := c.TaskRepository.Delete(ctx, userID, id); err != nil {
		return err
	}
	c.evict(ctx, userID)
	return nil
}

func (c *StatsCache) load(ctx context.Context, key string) (model.TaskStats, bool) {
	var s model.TaskStats
	if c.redis == nil {
		return s, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// On redis errors fall back to the database without failing.
			c.logger.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
			_ = c.redis.Del(ctx, key).Err()
		}
		return s, false
	}
	if err := sonic.Unmarshal(data, &s); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return s, false
	}
	return s, true
}

func (c *StatsCache) store(ctx context.Context, key string, s model.TaskStats) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(s)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// evict bumps the user's version, then drops the entries it made unreachable.
func (c *StatsCache) evict(ctx context.Context, userID int64) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Incr(ctx, statsVersionKey(userID)).Err(); err != nil {
		c.logger.Warn("stats cache version bump failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	iter := c.redis.Scan(ctx, 0, statsCachePrefix(userID)+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("stats cache scan failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	if len(keys) > 0 {
		_, _ = c.redis.Del(ctx, keys...).Result()
	}
}

func statsCachePrefix(userID int64) string {
	return "stats:" + strconv.FormatInt(userID, 10) + ":"
}

// The version key lives outside statsCachePrefix so eviction scans never match it.
func statsVersionKey(userID int64) string {
	return "stats:ver:" + strconv.FormatInt(userID, 10)
}

// Stats depend on the calendar day, so the day is part of the key.
func statsCacheKey(userID, version int64, now time.Time) string {
	return statsCachePrefix(userID) + "v" + strconv.FormatInt(version, 10) + ":" + now.Format("2006-01-02")
}
