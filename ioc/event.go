package ioc

import (
	"log"

	"github.com/IBM/sarama"
	"github.com/to404hanga/online_judge_aggregator/event"
	"github.com/to404hanga/online_judge_aggregator/service"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// InitBus 判题完成事件在进程内同步分发, 排行榜订阅者在此注册
func InitBus(rankingSvc service.RankingService, l loggerv2.Logger) *event.Bus {
	bus := event.NewBus(l)
	bus.Subscribe("ranking", rankingSvc.OnSubmissionJudged)
	return bus
}

func InitSubmissionConsumer(client sarama.Client, judgeSvc service.JudgeService, l loggerv2.Logger) *event.SubmissionConsumer {
	consumer, err := event.NewSubmissionConsumer(client, judgeSvc.DispatchSubmission, l)
	if err != nil {
		log.Panicf("create submission consumer failed: %v", err)
	}
	return consumer
}
