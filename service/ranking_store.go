package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/to404hanga/online_judge_aggregator/model"
	"github.com/to404hanga/online_judge_aggregator/pkg/pointer"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrContestNotFound = errors.New("contest not found")

// RankingStore 排行榜数据的持久化层
type RankingStore interface {
	FindProblem(ctx context.Context, problemID uint64) (*model.Problem, error)
	// IncrementProblemStatistics 增量维护题目统计, 并发提交下计数不允许丢更新
	IncrementProblemStatistics(ctx context.Context, problemID uint64, accepted bool) error
	// CountPriorAccepted 统计该用户在该题此前已通过的提交数, 排除本次提交
	CountPriorAccepted(ctx context.Context, userID, problemID, excludeSubmissionID uint64) (int64, error)
	// UpsertUserSolve 累计解题分并刷新最近解题时间, 返回更新后的统计行
	UpsertUserSolve(ctx context.Context, userID uint64, score int, solveAt time.Time) (*model.UserStatistics, error)
	FindContest(ctx context.Context, contestID uint64) (*model.Contest, error)
	// UpdateParticipant 在行锁内对参赛记录执行 mutate 并落库, 不存在时先创建
	UpdateParticipant(ctx context.Context, contestID, userID uint64, mutate func(*model.ContestParticipant)) (*model.ContestParticipant, error)
	ListParticipants(ctx context.Context, contestID uint64, userIDs []uint64) ([]model.ContestParticipant, error)
	// ListSolvers 按 user_id 升序分批列出有解题分的用户, 供重建使用
	ListSolvers(ctx context.Context, afterUserID uint64, limit int) ([]model.UserStatistics, error)
	// ListRated 按 user_id 升序分批列出参加过比赛的用户, 供重建使用
	ListRated(ctx context.Context, afterUserID uint64, limit int) ([]model.UserStatistics, error)
}

type GormRankingStore struct {
	db *gorm.DB
}

var _ RankingStore = (*GormRankingStore)(nil)

func NewGormRankingStore(db *gorm.DB) RankingStore {
	return &GormRankingStore{db: db}
}

func (s *GormRankingStore) FindProblem(ctx context.Context, problemID uint64) (*model.Problem, error) {
	var problem model.Problem
	err := s.db.WithContext(ctx).Where("id = ?", problemID).First(&problem).Error
	if err != nil {
		return nil, fmt.Errorf("FindProblem failed at query: %w", err)
	}
	return &problem, nil
}

// IncrementProblemStatistics 计数与比率分两条语句,
// 比率基于已落库的计数列在库内重算, 避免读改写竞态
func (s *GormRankingStore) IncrementProblemStatistics(ctx context.Context, problemID uint64, accepted bool) error {
	acceptedInc := 0
	if accepted {
		acceptedInc = 1
	}

	err := s.db.WithContext(ctx).Model(&model.Problem{}).
		Where("id = ?", problemID).
		Updates(map[string]any{
			"total_submissions": gorm.Expr("total_submissions + 1"),
			"total_accepted":    gorm.Expr("total_accepted + ?", acceptedInc),
		}).Error
	if err != nil {
		return fmt.Errorf("IncrementProblemStatistics failed at update counters: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&model.Problem{}).
		Where("id = ? AND total_submissions > 0", problemID).
		UpdateColumn("acceptance_rate", gorm.Expr("total_accepted * 100.0 / total_submissions")).Error
	if err != nil {
		return fmt.Errorf("IncrementProblemStatistics failed at update acceptance rate: %w", err)
	}
	return nil
}

func (s *GormRankingStore) CountPriorAccepted(ctx context.Context, userID, problemID, excludeSubmissionID uint64) (int64, error) {
	var prior int64
	err := s.db.WithContext(ctx).Model(&model.Submission{}).
		Where("user_id = ? AND problem_id = ? AND status = ? AND id <> ?",
			userID, problemID, model.SubmissionStatusAccepted, excludeSubmissionID).
		Count(&prior).Error
	if err != nil {
		return 0, fmt.Errorf("CountPriorAccepted failed at count: %w", err)
	}
	return prior, nil
}

func (s *GormRankingStore) UpsertUserSolve(ctx context.Context, userID uint64, score int, solveAt time.Time) (*model.UserStatistics, error) {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"global_score":  gorm.Expr("global_score + ?", score),
			"last_solve_at": solveAt,
		}),
	}).Create(&model.UserStatistics{
		UserID:      userID,
		GlobalScore: int64(score),
		LastSolveAt: pointer.ToPtr(solveAt),
	}).Error
	if err != nil {
		return nil, fmt.Errorf("UpsertUserSolve failed at upsert: %w", err)
	}

	var stats model.UserStatistics
	err = s.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("UpsertUserSolve failed at reload: %w", err)
	}
	return &stats, nil
}

func (s *GormRankingStore) FindContest(ctx context.Context, contestID uint64) (*model.Contest, error) {
	var contest model.Contest
	err := s.db.WithContext(ctx).Where("id = ?", contestID).First(&contest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("FindContest failed at query: %w", err)
	}
	return &contest, nil
}

func (s *GormRankingStore) UpdateParticipant(ctx context.Context, contestID, userID uint64, mutate func(*model.ContestParticipant)) (*model.ContestParticipant, error) {
	var participant model.ContestParticipant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contest_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&model.ContestParticipant{
			ContestID:     contestID,
			UserID:        userID,
			ProblemScores: make(model.ProblemScoreMap),
		}).Error
		if err != nil {
			return fmt.Errorf("ensure participant failed: %w", err)
		}

		// 行锁串行化同一选手的并发判题结果, JSON 列读改写必须互斥
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("contest_id = ? AND user_id = ?", contestID, userID).
			First(&participant).Error
		if err != nil {
			return fmt.Errorf("lock participant failed: %w", err)
		}
		if participant.ProblemScores == nil {
			participant.ProblemScores = make(model.ProblemScoreMap)
		}

		mutate(&participant)

		return tx.Model(&model.ContestParticipant{}).
			Where("id = ?", participant.ID).
			Updates(map[string]any{
				"total_score":        participant.TotalScore,
				"problem_scores":     participant.ProblemScores,
				"total_submissions":  participant.TotalSubmissions,
				"last_submission_at": participant.LastSubmissionAt,
			}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("UpdateParticipant failed at transaction: %w", err)
	}
	return &participant, nil
}

func (s *GormRankingStore) ListParticipants(ctx context.Context, contestID uint64, userIDs []uint64) ([]model.ContestParticipant, error) {
	var participants []model.ContestParticipant
	err := s.db.WithContext(ctx).
		Where("contest_id = ? AND user_id IN ?", contestID, userIDs).
		Find(&participants).Error
	if err != nil {
		return nil, fmt.Errorf("ListParticipants failed at query: %w", err)
	}
	return participants, nil
}

func (s *GormRankingStore) ListSolvers(ctx context.Context, afterUserID uint64, limit int) ([]model.UserStatistics, error) {
	var batch []model.UserStatistics
	err := s.db.WithContext(ctx).
		Where("user_id > ? AND global_score > 0", afterUserID).
		Order("user_id ASC").
		Limit(limit).
		Find(&batch).Error
	if err != nil {
		return nil, fmt.Errorf("ListSolvers failed at query: %w", err)
	}
	return batch, nil
}

func (s *GormRankingStore) ListRated(ctx context.Context, afterUserID uint64, limit int) ([]model.UserStatistics, error) {
	var batch []model.UserStatistics
	err := s.db.WithContext(ctx).
		Where("user_id > ? AND contests_participated > 0", afterUserID).
		Order("user_id ASC").
		Limit(limit).
		Find(&batch).Error
	if err != nil {
		return nil, fmt.Errorf("ListRated failed at query: %w", err)
	}
	return batch, nil
}
