package rebuilder

import (
	"context"

	"github.com/to404hanga/online_judge_aggregator/service"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

type RankingRebuilder struct {
	rebuildSvc service.RankingRebuildService
	log        loggerv2.Logger
}

// NewRankingRebuilder 创建新的排行榜重建器
func NewRankingRebuilder(rebuildSvc service.RankingRebuildService, log loggerv2.Logger) *RankingRebuilder {
	return &RankingRebuilder{
		rebuildSvc: rebuildSvc,
		log:        log,
	}
}

// RunRebuild 运行排行榜重建任务
func (r *RankingRebuilder) RunRebuild(ctx context.Context) error {
	r.log.InfoContext(ctx, "Starting ranking rebuild job")

	if err := r.rebuildSvc.RebuildAll(ctx); err != nil {
		return err
	}

	r.log.InfoContext(ctx, "Ranking rebuild completed")
	return nil
}
