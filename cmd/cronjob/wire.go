//go:build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/to404hanga/online_judge_aggregator/cmd/cronjob/ioc"
	commonioc "github.com/to404hanga/online_judge_aggregator/ioc"
	"github.com/to404hanga/online_judge_aggregator/job"
	"github.com/to404hanga/online_judge_aggregator/service"
)

func InitScheduler() *job.CronScheduler {
	wire.Build(
		commonioc.InitDB,
		commonioc.InitLogger,
		commonioc.InitRedis,
		commonioc.InitKafkaClient,
		commonioc.InitKafkaProducer,
		commonioc.InitStreamHub,
		ioc.InitNilJudgeEngineClient,
		ioc.InitNilMinIO,

		service.NewGormSubmissionStore,
		commonioc.InitBatchTracker,
		service.NewRankingService,
		service.NewRankingRebuildService,
		commonioc.InitBus,
		commonioc.InitJudgeService,

		ioc.InitScheduler,
	)
	return &job.CronScheduler{}
}
