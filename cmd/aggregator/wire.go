//go:build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/to404hanga/online_judge_aggregator/cmd/aggregator/ioc"
	commonioc "github.com/to404hanga/online_judge_aggregator/ioc"
	"github.com/to404hanga/online_judge_aggregator/service"
	"github.com/to404hanga/online_judge_aggregator/web"
)

func BuildDependency() *App {
	wire.Build(
		commonioc.InitDB,
		commonioc.InitLogger,
		commonioc.InitRedis,
		commonioc.InitJWTHandler,
		commonioc.InitKafkaClient,
		commonioc.InitKafkaProducer,
		commonioc.InitMinIO,
		commonioc.InitStreamHub,

		service.NewGormSubmissionStore,
		commonioc.InitBatchTracker,
		commonioc.InitJudgeEngineClient,
		service.NewRankingService,
		service.NewRankingRebuildService,
		commonioc.InitBus,
		commonioc.InitJudgeService,
		commonioc.InitSubmissionConsumer,

		commonioc.InitJudgeCallbackHandler,
		web.NewSubmissionHandler,
		web.NewLeaderboardHandler,
		web.NewLeaderboardStreamHandler,
		web.NewHealthHandler,

		ioc.InitGinServer,
		newApp,
	)
	return &App{}
}
