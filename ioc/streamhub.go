package ioc

import (
	"github.com/to404hanga/online_judge_aggregator/pkg/streamhub"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

func InitStreamHub(l loggerv2.Logger) *streamhub.Hub {
	return streamhub.NewHub(l)
}
