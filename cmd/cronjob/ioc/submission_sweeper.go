package ioc

import (
	"log"
	"time"

	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_aggregator/cmd/cronjob/config"
	"github.com/to404hanga/online_judge_aggregator/job"
	"github.com/to404hanga/online_judge_aggregator/job/sweeper"
	"github.com/to404hanga/online_judge_aggregator/service"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

func InitSubmissionSweeper(judgeSvc service.JudgeService, l loggerv2.Logger) *job.JobConfig {
	var cfg config.SubmissionSweeperConfig
	err := viper.UnmarshalKey(cfg.Key(), &cfg)
	if err != nil {
		log.Panicf("unmarshal submission sweeper config fail, err: %v", err)
	}

	m := sweeper.NewSubmissionSweeper(judgeSvc, l, time.Duration(cfg.OlderThan)*time.Minute)
	jbCfg := &job.JobConfig{
		Name:        "卡死提交巡检",
		CronExpr:    cfg.CronExpr,
		JobFunc:     m.RunSweep,
		Description: "兜底终判长时间未收齐回调的提交",
		Enabled:     cfg.Enabled,
		Timeout:     time.Duration(cfg.Timeout) * time.Millisecond,
	}
	return jbCfg
}
