package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const rebuildBatchSize = 1000

// RankingRebuildService 以 user_statistics 为准全量重建 Redis 排行榜,
// 用于 Redis 数据丢失或与库中状态漂移后的对账
type RankingRebuildService interface {
	RebuildGlobalRanking(ctx context.Context) (int, error)
	RebuildRatingRanking(ctx context.Context) (int, error)
	// RebuildAll 并发重建两个全站排行榜, 互不阻塞, 任一失败不影响另一个完成
	RebuildAll(ctx context.Context) error
}

type RankingRebuildServiceImpl struct {
	store  RankingStore
	boards LeaderboardStore
	log    loggerv2.Logger
}

var _ RankingRebuildService = (*RankingRebuildServiceImpl)(nil)

func NewRankingRebuildService(db *gorm.DB, rdb redis.Cmdable, log loggerv2.Logger) RankingRebuildService {
	return &RankingRebuildServiceImpl{
		store:  NewGormRankingStore(db),
		boards: NewRedisLeaderboardStore(rdb),
		log:    log,
	}
}

// RebuildGlobalRanking 重建解题分排行榜。先清空再按主键顺序分批回填,
// 重建期间到达的增量更新按成员覆盖, 不会与回填冲突
func (s *RankingRebuildServiceImpl) RebuildGlobalRanking(ctx context.Context) (int, error) {
	begin := time.Now()

	if err := s.boards.Clear(ctx, GlobalRankingKey); err != nil {
		return 0, fmt.Errorf("RebuildGlobalRanking failed at del key: %w", err)
	}

	count := 0
	lastUserID := uint64(0)
	for {
		batch, err := s.store.ListSolvers(ctx, lastUserID, rebuildBatchSize)
		if err != nil {
			return count, fmt.Errorf("RebuildGlobalRanking failed at load batch: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		members := make([]redis.Z, 0, len(batch))
		for _, stats := range batch {
			members = append(members, redis.Z{
				Score:  EncodeGlobalScore(stats.GlobalScore, stats.LastSolveAt),
				Member: strconv.FormatUint(stats.UserID, 10),
			})
		}
		if err = s.boards.Add(ctx, GlobalRankingKey, members...); err != nil {
			return count, fmt.Errorf("RebuildGlobalRanking failed at zadd batch: %w", err)
		}

		count += len(batch)
		lastUserID = batch[len(batch)-1].UserID
	}

	s.log.InfoContext(ctx, "global ranking rebuilt",
		logger.Int("count", count),
		logger.String("duration", time.Since(begin).String()))
	return count, nil
}

// RebuildRatingRanking 重建竞赛积分排行榜, 仅收录参加过比赛的用户
func (s *RankingRebuildServiceImpl) RebuildRatingRanking(ctx context.Context) (int, error) {
	begin := time.Now()

	if err := s.boards.Clear(ctx, GlobalRatingRankingKey); err != nil {
		return 0, fmt.Errorf("RebuildRatingRanking failed at del key: %w", err)
	}

	count := 0
	lastUserID := uint64(0)
	for {
		batch, err := s.store.ListRated(ctx, lastUserID, rebuildBatchSize)
		if err != nil {
			return count, fmt.Errorf("RebuildRatingRanking failed at load batch: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		members := make([]redis.Z, 0, len(batch))
		for _, stats := range batch {
			members = append(members, redis.Z{
				Score:  float64(stats.ContestRating),
				Member: strconv.FormatUint(stats.UserID, 10),
			})
		}
		if err = s.boards.Add(ctx, GlobalRatingRankingKey, members...); err != nil {
			return count, fmt.Errorf("RebuildRatingRanking failed at zadd batch: %w", err)
		}

		count += len(batch)
		lastUserID = batch[len(batch)-1].UserID
	}

	s.log.InfoContext(ctx, "rating ranking rebuilt",
		logger.Int("count", count),
		logger.String("duration", time.Since(begin).String()))
	return count, nil
}

func (s *RankingRebuildServiceImpl) RebuildAll(ctx context.Context) error {
	var eg errgroup.Group
	eg.Go(func() error {
		_, err := s.RebuildGlobalRanking(ctx)
		return err
	})
	eg.Go(func() error {
		_, err := s.RebuildRatingRanking(ctx)
		return err
	})
	return eg.Wait()
}
