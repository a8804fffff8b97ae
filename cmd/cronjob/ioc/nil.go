package ioc

import (
	"github.com/to404hanga/online_judge_aggregator/pkg/minio"
	"github.com/to404hanga/online_judge_aggregator/service"
)

// 巡检任务只做兜底终判, 不会派发判题, 引擎与对象存储依赖留空

func InitNilJudgeEngineClient() service.JudgeEngineClient {
	return nil
}

func InitNilMinIO() *minio.MinIOService {
	return nil
}
