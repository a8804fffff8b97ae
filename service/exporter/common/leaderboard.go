package common

import (
	"context"
	"fmt"

	"github.com/to404hanga/online_judge_aggregator/model"
	"gorm.io/gorm"
)

// FetchLeaderboard 分页读取比赛排行榜数据, 同分按最后提交时间升序
func FetchLeaderboard(db *gorm.DB, ctx context.Context, contestID uint64, page, limit int) ([]model.ContestParticipant, error) {
	var participants []model.ContestParticipant
	if err := db.WithContext(ctx).
		Model(&model.ContestParticipant{}).
		Where("contest_id = ?", contestID).
		Order("total_score DESC, last_submission_at ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&participants).Error; err != nil {
		return nil, fmt.Errorf("fetch leaderboard failed: %w", err)
	}
	return participants, nil
}
