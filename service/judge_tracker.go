package service

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/to404hanga/online_judge_aggregator/model"
)

// 批次跟踪键, 同一提交的四个键共同构成一次判题周期的全部临时状态
const (
	trackingMetaKey     = "judge:sub:%d:meta"
	trackingResultsKey  = "judge:sub:%d:resultsI"
	trackingSeenKey     = "judge:sub:%d:seen"
	trackingDoneLockKey = "judge:sub:%d:done:lock"
)

var ErrBatchNotFound = errors.New("judge batch tracking not found")

// BatchMeta 派发时写入的批次元信息
type BatchMeta struct {
	TotalTestcases int
	ProblemID      uint64
	UserID         uint64
	ContestID      *uint64
	SubmittedAt    int64 // 毫秒时间戳
}

// RecordOutcome 单次结果写入的结论
type RecordOutcome struct {
	Duplicate bool // token 重复投递, 本次为 no-op
	Received  int  // 写入后的已收到用例数
}

// BatchTracker 判题批次的临时状态存储。实现必须保证 RecordResult 与
// TryAcquireDone 的原子性, 并发回调是常态而非例外
type BatchTracker interface {
	CreateBatch(ctx context.Context, submissionID uint64, meta BatchMeta) error
	Meta(ctx context.Context, submissionID uint64) (*BatchMeta, error)
	RecordResult(ctx context.Context, submissionID uint64, token string, result model.TestcaseResult) (RecordOutcome, error)
	Results(ctx context.Context, submissionID uint64) ([]model.TestcaseResult, error)
	TryAcquireDone(ctx context.Context, submissionID uint64, ttl time.Duration) (bool, error)
	DeleteBatch(ctx context.Context, submissionID uint64) error
}

//go:embed lua/record_result.lua
var recordResultScript string

type RedisBatchTracker struct {
	rdb    redis.Cmdable
	script *redis.Script
	ttl    time.Duration // 键的兜底过期时间, 防止回调全部丢失时状态泄漏
}

var _ BatchTracker = (*RedisBatchTracker)(nil)

func NewRedisBatchTracker(rdb redis.Cmdable, ttl time.Duration) BatchTracker {
	return &RedisBatchTracker{
		rdb:    rdb,
		script: redis.NewScript(recordResultScript),
		ttl:    ttl,
	}
}

func (t *RedisBatchTracker) CreateBatch(ctx context.Context, submissionID uint64, meta BatchMeta) error {
	metaKey := fmt.Sprintf(trackingMetaKey, submissionID)

	fields := map[string]any{
		"total":        meta.TotalTestcases,
		"problem_id":   meta.ProblemID,
		"user_id":      meta.UserID,
		"submitted_at": meta.SubmittedAt,
	}
	if meta.ContestID != nil {
		fields["contest_id"] = *meta.ContestID
	}

	pipe := t.rdb.TxPipeline()
	pipe.HSet(ctx, metaKey, fields)
	pipe.PExpire(ctx, metaKey, t.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("CreateBatch failed at write meta: %w", err)
	}
	return nil
}

func (t *RedisBatchTracker) Meta(ctx context.Context, submissionID uint64) (*BatchMeta, error) {
	metaKey := fmt.Sprintf(trackingMetaKey, submissionID)

	fields, err := t.rdb.HGetAll(ctx, metaKey).Result()
	if err != nil {
		return nil, fmt.Errorf("Meta failed at read meta: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrBatchNotFound
	}

	meta := &BatchMeta{}
	if meta.TotalTestcases, err = strconv.Atoi(fields["total"]); err != nil {
		return nil, fmt.Errorf("Meta failed at parse total: %w", err)
	}
	if meta.ProblemID, err = strconv.ParseUint(fields["problem_id"], 10, 64); err != nil {
		return nil, fmt.Errorf("Meta failed at parse problem_id: %w", err)
	}
	if meta.UserID, err = strconv.ParseUint(fields["user_id"], 10, 64); err != nil {
		return nil, fmt.Errorf("Meta failed at parse user_id: %w", err)
	}
	if meta.SubmittedAt, err = strconv.ParseInt(fields["submitted_at"], 10, 64); err != nil {
		return nil, fmt.Errorf("Meta failed at parse submitted_at: %w", err)
	}
	if raw, exists := fields["contest_id"]; exists {
		contestID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("Meta failed at parse contest_id: %w", err)
		}
		meta.ContestID = &contestID
	}
	return meta, nil
}

// RecordResult 原子地完成 token 去重与结果写入。同一下标被不同 token
// 重复上报时后写覆盖(last-write-wins), 已收到用例数不会重复累加
func (t *RedisBatchTracker) RecordResult(ctx context.Context, submissionID uint64, token string, result model.TestcaseResult) (RecordOutcome, error) {
	seenKey := fmt.Sprintf(trackingSeenKey, submissionID)
	resultsKey := fmt.Sprintf(trackingResultsKey, submissionID)

	payload, err := json.MarshalString(result)
	if err != nil {
		return RecordOutcome{}, fmt.Errorf("RecordResult failed at marshal result: %w", err)
	}

	received, err := t.script.Run(ctx, t.rdb, []string{seenKey, resultsKey},
		token, result.Index, payload, t.ttl.Milliseconds()).Int()
	if err != nil {
		return RecordOutcome{}, fmt.Errorf("RecordResult failed at run script: %w", err)
	}
	if received < 0 {
		return RecordOutcome{Duplicate: true}, nil
	}
	return RecordOutcome{Received: received}, nil
}

func (t *RedisBatchTracker) Results(ctx context.Context, submissionID uint64) ([]model.TestcaseResult, error) {
	resultsKey := fmt.Sprintf(trackingResultsKey, submissionID)

	raw, err := t.rdb.HGetAll(ctx, resultsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("Results failed at read results: %w", err)
	}

	results := make([]model.TestcaseResult, 0, len(raw))
	for _, payload := range raw {
		var result model.TestcaseResult
		if err = json.UnmarshalString(payload, &result); err != nil {
			return nil, fmt.Errorf("Results failed at unmarshal result: %w", err)
		}
		results = append(results, result)
	}
	return results, nil
}

// TryAcquireDone 终判锁, set-if-absent 带 TTL。整条流水线唯一的互斥点:
// 只有创建成功的调用方可以执行终判, 其余一律立即返回
func (t *RedisBatchTracker) TryAcquireDone(ctx context.Context, submissionID uint64, ttl time.Duration) (bool, error) {
	lockKey := fmt.Sprintf(trackingDoneLockKey, submissionID)

	ok, err := t.rdb.SetNX(ctx, lockKey, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("TryAcquireDone failed at setnx: %w", err)
	}
	return ok, nil
}

func (t *RedisBatchTracker) DeleteBatch(ctx context.Context, submissionID uint64) error {
	err := t.rdb.Del(ctx,
		fmt.Sprintf(trackingMetaKey, submissionID),
		fmt.Sprintf(trackingResultsKey, submissionID),
		fmt.Sprintf(trackingSeenKey, submissionID),
		fmt.Sprintf(trackingDoneLockKey, submissionID),
	).Err()
	if err != nil {
		return fmt.Errorf("DeleteBatch failed at del keys: %w", err)
	}
	return nil
}
