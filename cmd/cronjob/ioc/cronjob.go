package ioc

import (
	"github.com/to404hanga/online_judge_aggregator/job"
	"github.com/to404hanga/online_judge_aggregator/service"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

func InitScheduler(l loggerv2.Logger, judgeSvc service.JudgeService, rebuildSvc service.RankingRebuildService) *job.CronScheduler {
	scheduler := job.NewCronScheduler(l)

	scheduler.AddJob(InitSubmissionSweeper(judgeSvc, l))
	scheduler.AddJob(InitRankingRebuilder(rebuildSvc, l))

	return scheduler
}
