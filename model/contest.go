package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	json "github.com/bytedance/sonic"
)

type Contest struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	CreatorID uint64    `json:"creator_id"`
	UpdaterID uint64    `json:"updater_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Contest) TableName() string {
	return "contest"
}

// Active 提交时刻是否处于比赛窗口内
func (c *Contest) Active(at time.Time) bool {
	return !at.Before(c.StartTime) && at.Before(c.EndTime)
}

// ProblemScore 单题得分明细, IOI 赛制: 仅保留历史最高分
type ProblemScore struct {
	Score          int   `json:"score"`
	Submissions    int   `json:"submissions"`
	LastSubmitTime int64 `json:"last_submit_time"` // 毫秒时间戳
}

type ProblemScoreMap map[uint64]ProblemScore

func (m ProblemScoreMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.MarshalString(m)
}

func (m *ProblemScoreMap) Scan(src any) error {
	if src == nil {
		*m = make(ProblemScoreMap)
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.UnmarshalString(v, m)
	default:
		return fmt.Errorf("unsupported problem score map type: %T", src)
	}
}

type ContestParticipant struct {
	ID        uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	ContestID uint64 `json:"contest_id" gorm:"uniqueIndex:idx_contest_user"`
	UserID    uint64 `json:"user_id" gorm:"uniqueIndex:idx_contest_user"`

	TotalScore       int             `json:"total_score"` // 恒等于 ProblemScores 中各题分数之和
	ProblemScores    ProblemScoreMap `json:"problem_scores" gorm:"type:json"`
	TotalSubmissions int             `json:"total_submissions"`
	LastSubmissionAt *time.Time      `json:"last_submission_at"`
	Rank             *int            `json:"rank"` // 周期性回填, 实时排名以 Redis 为准

	// 赛后由外部 rating 服务回写
	RatingBefore *int `json:"rating_before"`
	RatingAfter  *int `json:"rating_after"`
	RatingDelta  *int `json:"rating_delta"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ContestParticipant) TableName() string {
	return "contest_participant"
}
