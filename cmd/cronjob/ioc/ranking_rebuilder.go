package ioc

import (
	"log"
	"time"

	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_aggregator/cmd/cronjob/config"
	"github.com/to404hanga/online_judge_aggregator/job"
	"github.com/to404hanga/online_judge_aggregator/job/rebuilder"
	"github.com/to404hanga/online_judge_aggregator/service"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

func InitRankingRebuilder(rebuildSvc service.RankingRebuildService, l loggerv2.Logger) *job.JobConfig {
	var cfg config.RankingRebuilderConfig
	err := viper.UnmarshalKey(cfg.Key(), &cfg)
	if err != nil {
		log.Panicf("unmarshal ranking rebuilder config fail, err: %v", err)
	}

	m := rebuilder.NewRankingRebuilder(rebuildSvc, l)
	jbCfg := &job.JobConfig{
		Name:        "排行榜重建",
		CronExpr:    cfg.CronExpr,
		JobFunc:     m.RunRebuild,
		Description: "以数据库统计为准全量重建全站排行榜",
		Enabled:     cfg.Enabled,
		Timeout:     time.Duration(cfg.Timeout) * time.Millisecond,
	}
	return jbCfg
}
