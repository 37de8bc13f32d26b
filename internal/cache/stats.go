package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyAccountCount = "accounts:count"

// StatsCache 缓存公开的统计数据，目前只有账户总数
type StatsCache struct {
	rdb       *redis.Client
	ttl       time.Duration
	opTimeout time.Duration
}

func NewStatsCache(rdb *redis.Client, ttl, opTimeout time.Duration) *StatsCache {
	return &StatsCache{rdb: rdb, ttl: ttl, opTimeout: opTimeout}
}

// GetAccountCount 未命中时 ok 为 false
func (c *StatsCache) GetAccountCount(ctx context.Context) (count int64, ok bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	s, err := c.rdb.Get(ctx, keyAccountCount).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	count, err = strconv.ParseInt(s, 10, 64)
	if err != nil {
		// 缓存内容损坏时当作未命中
		return 0, false, nil
	}
	return count, true, nil
}

func (c *StatsCache) SetAccountCount(ctx context.Context, count int64) error {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	return c.rdb.Set(ctx, keyAccountCount, count, c.ttl).Err()
}

// InvalidateAccountCount 在创建或删除账户后调用
func (c *StatsCache) InvalidateAccountCount(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	return c.rdb.Del(ctx, keyAccountCount).Err()
}
