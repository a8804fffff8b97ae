package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// LeaderboardStore 排行榜 zset 的访问层, 实时读路径全部走这里
type LeaderboardStore interface {
	Clear(ctx context.Context, key string) error
	Add(ctx context.Context, key string, members ...redis.Z) error
	// TopWithScores 按分数降序取 [start, stop] 区间的成员
	TopWithScores(ctx context.Context, key string, start, stop int64) ([]redis.Z, error)
	Count(ctx context.Context, key string) (int64, error)
}

type RedisLeaderboardStore struct {
	rdb redis.Cmdable
}

var _ LeaderboardStore = (*RedisLeaderboardStore)(nil)

func NewRedisLeaderboardStore(rdb redis.Cmdable) LeaderboardStore {
	return &RedisLeaderboardStore{rdb: rdb}
}

func (s *RedisLeaderboardStore) Clear(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("Clear failed at del: %w", err)
	}
	return nil
}

func (s *RedisLeaderboardStore) Add(ctx context.Context, key string, members ...redis.Z) error {
	if len(members) == 0 {
		return nil
	}
	if err := s.rdb.ZAdd(ctx, key, members...).Err(); err != nil {
		return fmt.Errorf("Add failed at zadd: %w", err)
	}
	return nil
}

func (s *RedisLeaderboardStore) TopWithScores(ctx context.Context, key string, start, stop int64) ([]redis.Z, error) {
	zs, err := s.rdb.ZRevRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("TopWithScores failed at zrevrange: %w", err)
	}
	return zs, nil
}

func (s *RedisLeaderboardStore) Count(ctx context.Context, key string) (int64, error) {
	total, err := s.rdb.ZCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("Count failed at zcard: %w", err)
	}
	return total, nil
}
