package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/to404hanga/online_judge_aggregator/model"
	"gorm.io/gorm"
)

var ErrSubmissionNotFound = errors.New("submission not found")

// SubmissionStore 提交与判题结果的持久化层
type SubmissionStore interface {
	FindSubmission(ctx context.Context, submissionID uint64) (*model.Submission, error)
	FindSubmissionWithTestcases(ctx context.Context, submissionID uint64) (*model.Submission, []model.SubmissionTestcase, error)
	FindLatestSubmission(ctx context.Context, userID, problemID uint64, contestID *uint64) (*model.Submission, error)
	FindProblem(ctx context.Context, problemID uint64) (*model.Problem, error)
	MarkRunning(ctx context.Context, submissionID uint64) error
	// SaveVerdict 原子写入终态与用例结果。提交已处于终态时返回 false 且不做任何修改
	SaveVerdict(ctx context.Context, submissionID uint64, verdict Verdict, judgedAt time.Time, testcases []model.SubmissionTestcase) (bool, error)
	// ListStuckJudging 列出超过时限仍未终判的提交, Pending(派发失败滞留)与 Running 都算
	ListStuckJudging(ctx context.Context, before time.Time, limit int) ([]model.Submission, error)
}

type GormSubmissionStore struct {
	db *gorm.DB
}

var _ SubmissionStore = (*GormSubmissionStore)(nil)

func NewGormSubmissionStore(db *gorm.DB) SubmissionStore {
	return &GormSubmissionStore{db: db}
}

func (s *GormSubmissionStore) FindSubmission(ctx context.Context, submissionID uint64) (*model.Submission, error) {
	var submission model.Submission
	err := s.db.WithContext(ctx).Where("id = ?", submissionID).First(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("FindSubmission failed at query: %w", err)
	}
	return &submission, nil
}

func (s *GormSubmissionStore) FindSubmissionWithTestcases(ctx context.Context, submissionID uint64) (*model.Submission, []model.SubmissionTestcase, error) {
	submission, err := s.FindSubmission(ctx, submissionID)
	if err != nil {
		return nil, nil, err
	}

	var testcases []model.SubmissionTestcase
	err = s.db.WithContext(ctx).Where("submission_id = ?", submissionID).
		Order("testcase_index ASC").Find(&testcases).Error
	if err != nil {
		return nil, nil, fmt.Errorf("FindSubmissionWithTestcases failed at query testcases: %w", err)
	}
	return submission, testcases, nil
}

func (s *GormSubmissionStore) FindLatestSubmission(ctx context.Context, userID, problemID uint64, contestID *uint64) (*model.Submission, error) {
	query := s.db.WithContext(ctx).Where("user_id = ? AND problem_id = ?", userID, problemID)
	if contestID != nil {
		query = query.Where("contest_id = ?", *contestID)
	} else {
		query = query.Where("contest_id IS NULL")
	}

	var submission model.Submission
	err := query.Order("id DESC").First(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("FindLatestSubmission failed at query: %w", err)
	}
	return &submission, nil
}

func (s *GormSubmissionStore) FindProblem(ctx context.Context, problemID uint64) (*model.Problem, error) {
	var problem model.Problem
	err := s.db.WithContext(ctx).Where("id = ?", problemID).First(&problem).Error
	if err != nil {
		return nil, fmt.Errorf("FindProblem failed at query: %w", err)
	}
	return &problem, nil
}

func (s *GormSubmissionStore) MarkRunning(ctx context.Context, submissionID uint64) error {
	err := s.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ? AND status = ?", submissionID, model.SubmissionStatusPending).
		Update("status", model.SubmissionStatusRunning).Error
	if err != nil {
		return fmt.Errorf("MarkRunning failed at update: %w", err)
	}
	return nil
}

func (s *GormSubmissionStore) SaveVerdict(ctx context.Context, submissionID uint64, verdict Verdict, judgedAt time.Time, testcases []model.SubmissionTestcase) (bool, error) {
	updated := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 状态守卫保证终态只写一次, 竞态下后到者空转
		res := tx.Model(&model.Submission{}).
			Where("id = ? AND status IN ?", submissionID,
				[]model.SubmissionStatus{model.SubmissionStatusPending, model.SubmissionStatusRunning}).
			Updates(map[string]any{
				"status":      verdict.Status,
				"time_used":   verdict.TimeUsed,
				"memory_used": verdict.MemoryUsed,
				"judged_at":   judgedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("SaveVerdict failed at update submission: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if len(testcases) > 0 {
			if err := tx.Create(&testcases).Error; err != nil {
				return fmt.Errorf("SaveVerdict failed at create testcases: %w", err)
			}
		}
		updated = true
		return nil
	})
	return updated, err
}

func (s *GormSubmissionStore) ListStuckJudging(ctx context.Context, before time.Time, limit int) ([]model.Submission, error) {
	var submissions []model.Submission
	err := s.db.WithContext(ctx).
		Where("status IN ? AND created_at < ?",
			[]model.SubmissionStatus{model.SubmissionStatusPending, model.SubmissionStatusRunning}, before).
		Order("id ASC").Limit(limit).Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("ListStuckJudging failed at query: %w", err)
	}
	return submissions, nil
}
