package ioc

import (
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_aggregator/config"
	"github.com/to404hanga/online_judge_aggregator/event"
	"github.com/to404hanga/online_judge_aggregator/pkg/minio"
	"github.com/to404hanga/online_judge_aggregator/service"
	"github.com/to404hanga/online_judge_aggregator/web"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

func judgeEngineConfig() config.JudgeEngineConfig {
	var cfg config.JudgeEngineConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal judge engine config failed: %v", err)
	}
	return cfg
}

func InitBatchTracker(rdb redis.Cmdable) service.BatchTracker {
	cfg := judgeEngineConfig()
	return service.NewRedisBatchTracker(rdb, time.Duration(cfg.TrackingTTLMs)*time.Millisecond)
}

func InitJudgeEngineClient() service.JudgeEngineClient {
	cfg := judgeEngineConfig()
	return service.NewHTTPJudgeEngineClient(cfg.BaseURL, time.Duration(cfg.TimeoutMs)*time.Millisecond)
}

func InitJudgeService(store service.SubmissionStore, tracker service.BatchTracker,
	engine service.JudgeEngineClient, minioSvc *minio.MinIOService,
	producer event.Producer, bus *event.Bus, l loggerv2.Logger) service.JudgeService {
	cfg := judgeEngineConfig()
	return service.NewJudgeService(store, tracker, engine, minioSvc, producer, bus, l,
		cfg.CallbackBaseURL, cfg.TestcaseBucket)
}

func InitJudgeCallbackHandler(judgeSvc service.JudgeService, l loggerv2.Logger) *web.JudgeCallbackHandler {
	cfg := judgeEngineConfig()
	return web.NewJudgeCallbackHandler(judgeSvc, l, cfg.AuthToken)
}
