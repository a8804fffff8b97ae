package model

import "time"

// UserStatistics 用户全局统计, 排行榜重建的关系型数据源
type UserStatistics struct {
	UserID uint64 `json:"user_id" gorm:"primaryKey"`

	GlobalScore int64      `json:"global_score"` // 累计解题分
	LastSolveAt *time.Time `json:"last_solve_at"`

	ContestRating        int `json:"contest_rating"` // 由外部 rating 服务回写
	ContestsParticipated int `json:"contests_participated"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (UserStatistics) TableName() string {
	return "user_statistics"
}
