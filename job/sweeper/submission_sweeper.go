package sweeper

import (
	"context"
	"time"

	"github.com/to404hanga/online_judge_aggregator/service"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

type SubmissionSweeper struct {
	judgeSvc  service.JudgeService
	log       loggerv2.Logger
	olderThan time.Duration
}

// NewSubmissionSweeper 创建新的卡死提交巡检器
func NewSubmissionSweeper(judgeSvc service.JudgeService, log loggerv2.Logger, olderThan time.Duration) *SubmissionSweeper {
	return &SubmissionSweeper{
		judgeSvc:  judgeSvc,
		log:       log,
		olderThan: olderThan,
	}
}

// RunSweep 运行卡死提交兜底终判任务
func (s *SubmissionSweeper) RunSweep(ctx context.Context) error {
	swept, err := s.judgeSvc.SweepStuckSubmissions(ctx, s.olderThan)
	if err != nil {
		return err
	}

	if swept > 0 {
		s.log.InfoContext(ctx, "Submission sweep completed", logger.Int("swept", swept))
	}
	return nil
}
