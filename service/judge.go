package service

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/to404hanga/online_judge_aggregator/constants"
	"github.com/to404hanga/online_judge_aggregator/event"
	"github.com/to404hanga/online_judge_aggregator/model"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

const doneLockTTL = time.Minute

// 兜底终判时缺失用例的占位状态, 映射表未收录, 按 RuntimeError 归类
const syntheticMissingStatus = "Internal Error"

// ObjectStorage 测试用例对象存储
type ObjectStorage interface {
	GetObjectContent(ctx context.Context, bucketName, objectKey string) ([]byte, error)
}

type JudgeService interface {
	// DispatchSubmission 派发一次提交的全部测试用例到判题引擎
	DispatchSubmission(ctx context.Context, submissionID uint64) error
	// OnTestcaseResult 处理判题引擎的单用例回调, 重复与迟到的回调均静默吞掉
	OnTestcaseResult(ctx context.Context, param *model.JudgeCallbackParam) error
	// SweepStuckSubmissions 对超过时限仍未终判的提交做兜底终判, 返回处理条数
	SweepStuckSubmissions(ctx context.Context, olderThan time.Duration) (int, error)
	GetSubmission(ctx context.Context, param *model.GetSubmissionParam) (*model.GetSubmissionResponse, error)
	GetLatestSubmission(ctx context.Context, param *model.GetLatestSubmissionParam) (*model.GetLatestSubmissionResponse, error)
}

type JudgeServiceImpl struct {
	store    SubmissionStore
	tracker  BatchTracker
	engine   JudgeEngineClient
	storage  ObjectStorage
	producer event.Producer
	bus      *event.Bus
	log      loggerv2.Logger

	callbackBaseURL string
	testcaseBucket  string
}

var _ JudgeService = (*JudgeServiceImpl)(nil)

func NewJudgeService(store SubmissionStore, tracker BatchTracker, engine JudgeEngineClient,
	storage ObjectStorage, producer event.Producer, bus *event.Bus, log loggerv2.Logger,
	callbackBaseURL, testcaseBucket string) JudgeService {
	return &JudgeServiceImpl{
		store:           store,
		tracker:         tracker,
		engine:          engine,
		storage:         storage,
		producer:        producer,
		bus:             bus,
		log:             log,
		callbackBaseURL: callbackBaseURL,
		testcaseBucket:  testcaseBucket,
	}
}

// DispatchSubmission 派发一次提交的全部测试用例到判题引擎。
// 先写批次跟踪再派发, 保证首个回调到达时元信息一定可见
func (s *JudgeServiceImpl) DispatchSubmission(ctx context.Context, submissionID uint64) error {
	submission, err := s.store.FindSubmission(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("DispatchSubmission failed at find submission: %w", err)
	}
	if submission.Status != model.SubmissionStatusPending {
		s.log.WarnContext(ctx, "skip dispatch for non-pending submission",
			logger.Uint64("submission_id", submissionID),
			logger.String("status", submission.Status.String()))
		return nil
	}

	problem, err := s.store.FindProblem(ctx, submission.ProblemID)
	if err != nil {
		return fmt.Errorf("DispatchSubmission failed at find problem: %w", err)
	}

	testcases := make([]TestcaseSubmission, 0, problem.TestcaseCount)
	for i := 1; i <= problem.TestcaseCount; i++ {
		stdin, err := s.storage.GetObjectContent(ctx, s.testcaseBucket,
			fmt.Sprintf("problem/%d/%d.in", problem.ID, i))
		if err != nil {
			return fmt.Errorf("DispatchSubmission failed at fetch testcase input: %w", err)
		}
		expected, err := s.storage.GetObjectContent(ctx, s.testcaseBucket,
			fmt.Sprintf("problem/%d/%d.out", problem.ID, i))
		if err != nil {
			return fmt.Errorf("DispatchSubmission failed at fetch testcase output: %w", err)
		}

		testcases = append(testcases, TestcaseSubmission{
			SourceCode:     submission.Code,
			LanguageID:     int(submission.Language),
			Stdin:          string(stdin),
			ExpectedOutput: string(expected),
			CPUTimeLimit:   problem.TimeLimit,
			MemoryLimit:    problem.MemoryLimit,
			CallbackURL: fmt.Sprintf("%s%s?submission_id=%d&testcase_index=%d",
				s.callbackBaseURL, constants.JudgeCallbackPath, submissionID, i),
		})
	}

	err = s.tracker.CreateBatch(ctx, submissionID, BatchMeta{
		TotalTestcases: problem.TestcaseCount,
		ProblemID:      problem.ID,
		UserID:         submission.UserID,
		ContestID:      submission.ContestID,
		SubmittedAt:    submission.CreatedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("DispatchSubmission failed at create batch: %w", err)
	}

	if _, err = s.engine.SubmitBatch(ctx, testcases); err != nil {
		if delErr := s.tracker.DeleteBatch(ctx, submissionID); delErr != nil {
			s.log.ErrorContext(ctx, "delete batch after dispatch failure failed",
				logger.Uint64("submission_id", submissionID), logger.Error(delErr))
		}
		return fmt.Errorf("DispatchSubmission failed at submit batch: %w", err)
	}

	if err = s.store.MarkRunning(ctx, submissionID); err != nil {
		return fmt.Errorf("DispatchSubmission failed at mark running: %w", err)
	}

	s.log.InfoContext(ctx, "submission dispatched",
		logger.Uint64("submission_id", submissionID),
		logger.Uint64("problem_id", problem.ID),
		logger.Int("testcases", problem.TestcaseCount))
	return nil
}

func (s *JudgeServiceImpl) OnTestcaseResult(ctx context.Context, param *model.JudgeCallbackParam) error {
	meta, err := s.tracker.Meta(ctx, param.SubmissionID)
	if err == ErrBatchNotFound {
		// 迟到回调: 批次已终判并清理, 或提交根本不存在
		s.log.DebugContext(ctx, "drop callback without tracking state",
			logger.Uint64("submission_id", param.SubmissionID),
			logger.String("token", param.Token))
		return nil
	}
	if err != nil {
		return fmt.Errorf("OnTestcaseResult failed at read meta: %w", err)
	}

	outcome, err := s.tracker.RecordResult(ctx, param.SubmissionID, param.Token, model.TestcaseResult{
		Index:      *param.TestcaseIndex,
		Status:     param.Status,
		TimeUsed:   param.TimeUsed,
		MemoryUsed: param.MemoryUsed,
		Output:     param.Output,
	})
	if err != nil {
		return fmt.Errorf("OnTestcaseResult failed at record result: %w", err)
	}
	if outcome.Duplicate {
		s.log.DebugContext(ctx, "drop duplicate callback",
			logger.Uint64("submission_id", param.SubmissionID),
			logger.String("token", param.Token))
		return nil
	}

	if outcome.Received >= meta.TotalTestcases {
		return s.tryFinalize(ctx, param.SubmissionID, meta, false)
	}
	return nil
}

// tryFinalize 终判。done 锁保证并发路径下只有一个调用方真正执行;
// partial 为真时对缺失用例填充占位结果再判定
func (s *JudgeServiceImpl) tryFinalize(ctx context.Context, submissionID uint64, meta *BatchMeta, partial bool) error {
	acquired, err := s.tracker.TryAcquireDone(ctx, submissionID, doneLockTTL)
	if err != nil {
		return fmt.Errorf("tryFinalize failed at acquire done lock: %w", err)
	}
	if !acquired {
		return nil
	}

	results, err := s.tracker.Results(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("tryFinalize failed at read results: %w", err)
	}
	if partial {
		results = fillMissingResults(results, meta.TotalTestcases)
	}

	verdict := ResolveVerdict(results)
	judgedAt := time.Now()

	testcases := make([]model.SubmissionTestcase, 0, len(results))
	for _, r := range results {
		testcases = append(testcases, model.SubmissionTestcase{
			SubmissionID:  submissionID,
			TestcaseIndex: r.Index,
			Status:        r.Status,
			TimeUsed:      r.TimeUsed,
			MemoryUsed:    r.MemoryUsed,
			Output:        r.Output,
		})
	}

	updated, err := s.store.SaveVerdict(ctx, submissionID, verdict, judgedAt, testcases)
	if err != nil {
		return fmt.Errorf("tryFinalize failed at save verdict: %w", err)
	}

	if updated {
		msg := &event.SubmissionJudgedMessage{
			SubmissionID:    submissionID,
			UserID:          meta.UserID,
			ProblemID:       meta.ProblemID,
			ContestID:       meta.ContestID,
			Status:          verdict.Status.Int8(),
			PassedTestcases: verdict.Passed,
			TotalTestcases:  meta.TotalTestcases,
			SubmittedAt:     meta.SubmittedAt,
			JudgedAt:        judgedAt.UnixMilli(),
		}
		s.bus.Publish(ctx, msg)
		s.produceJudged(ctx, msg)

		s.log.InfoContext(ctx, "submission finalized",
			logger.Uint64("submission_id", submissionID),
			logger.String("status", verdict.Status.String()),
			logger.Int("passed", verdict.Passed),
			logger.Int("total", meta.TotalTestcases),
			logger.Bool("partial", partial))
	}

	if err = s.tracker.DeleteBatch(ctx, submissionID); err != nil {
		s.log.ErrorContext(ctx, "delete batch after finalize failed",
			logger.Uint64("submission_id", submissionID), logger.Error(err))
	}
	return nil
}

// produceJudged 对外发布判题完成事件, 失败只记录日志, 不影响终判结果
func (s *JudgeServiceImpl) produceJudged(ctx context.Context, msg *event.SubmissionJudgedMessage) {
	payload, err := msg.Marshal()
	if err != nil {
		s.log.ErrorContext(ctx, "marshal submission judged message failed",
			logger.Uint64("submission_id", msg.SubmissionID), logger.Error(err))
		return
	}
	_, _, err = s.producer.Produce(ctx, &sarama.ProducerMessage{
		Topic: event.SubmissionJudgedTopic,
		Key:   sarama.StringEncoder(fmt.Sprintf("%d", msg.SubmissionID)),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		s.log.ErrorContext(ctx, "produce submission judged message failed",
			logger.Uint64("submission_id", msg.SubmissionID), logger.Error(err))
	}
}

func fillMissingResults(results []model.TestcaseResult, total int) []model.TestcaseResult {
	present := make(map[int]struct{}, len(results))
	for _, r := range results {
		present[r.Index] = struct{}{}
	}
	for i := 1; i <= total; i++ {
		if _, ok := present[i]; !ok {
			results = append(results, model.TestcaseResult{Index: i, Status: syntheticMissingStatus})
		}
	}
	return results
}

func (s *JudgeServiceImpl) SweepStuckSubmissions(ctx context.Context, olderThan time.Duration) (int, error) {
	stuck, err := s.store.ListStuckJudging(ctx, time.Now().Add(-olderThan), 100)
	if err != nil {
		return 0, fmt.Errorf("SweepStuckSubmissions failed at list stuck: %w", err)
	}

	swept := 0
	for _, submission := range stuck {
		meta, err := s.tracker.Meta(ctx, submission.ID)
		if err == ErrBatchNotFound {
			// 跟踪状态已丢失, 无法得知收到过什么, 直接判 UnknownError。
			// 终态落库后同样要发判题完成事件, 否则题目统计漏记这笔提交
			judgedAt := time.Now()
			verdict := Verdict{Status: model.SubmissionStatusUnknownError}
			updated, err := s.store.SaveVerdict(ctx, submission.ID, verdict, judgedAt, nil)
			if err != nil {
				s.log.ErrorContext(ctx, "sweep submission without tracking state failed",
					logger.Uint64("submission_id", submission.ID), logger.Error(err))
				continue
			}
			if updated {
				msg := &event.SubmissionJudgedMessage{
					SubmissionID: submission.ID,
					UserID:       submission.UserID,
					ProblemID:    submission.ProblemID,
					ContestID:    submission.ContestID,
					Status:       verdict.Status.Int8(),
					SubmittedAt:  submission.CreatedAt.UnixMilli(),
					JudgedAt:     judgedAt.UnixMilli(),
				}
				s.bus.Publish(ctx, msg)
				s.produceJudged(ctx, msg)
				swept++
			}
			continue
		}
		if err != nil {
			s.log.ErrorContext(ctx, "sweep read meta failed",
				logger.Uint64("submission_id", submission.ID), logger.Error(err))
			continue
		}

		if err = s.tryFinalize(ctx, submission.ID, meta, true); err != nil {
			s.log.ErrorContext(ctx, "sweep finalize failed",
				logger.Uint64("submission_id", submission.ID), logger.Error(err))
			continue
		}
		swept++
	}

	if swept > 0 {
		s.log.InfoContext(ctx, "swept stuck submissions", logger.Int("count", swept))
	}
	return swept, nil
}

func (s *JudgeServiceImpl) GetSubmission(ctx context.Context, param *model.GetSubmissionParam) (*model.GetSubmissionResponse, error) {
	submission, testcases, err := s.store.FindSubmissionWithTestcases(ctx, param.SubmissionID)
	if err != nil {
		return nil, fmt.Errorf("GetSubmission failed at find submission: %w", err)
	}
	return &model.GetSubmissionResponse{
		Submission: *submission,
		Testcases:  testcases,
	}, nil
}

func (s *JudgeServiceImpl) GetLatestSubmission(ctx context.Context, param *model.GetLatestSubmissionParam) (*model.GetLatestSubmissionResponse, error) {
	var contestID *uint64
	if param.ContestID != 0 {
		contestID = &param.ContestID
	}
	submission, err := s.store.FindLatestSubmission(ctx, param.Operator, param.ProblemID, contestID)
	if err != nil {
		return nil, fmt.Errorf("GetLatestSubmission failed at find latest submission: %w", err)
	}
	return &model.GetLatestSubmissionResponse{Submission: *submission}, nil
}
