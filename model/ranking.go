package model

import "time"

type GetGlobalRankingListParam struct {
	CommonParam `json:"-"`

	Page     int `form:"page" binding:"required,min=1"`
	PageSize int `form:"page_size" binding:"required,min=10,max=100"`
}

// GlobalRankingEntry 全站排行榜条目(按解题分)
type GlobalRankingEntry struct {
	Rank        int        `json:"rank"`
	UserID      uint64     `json:"user_id"`
	GlobalScore int64      `json:"global_score"`
	LastSolveAt *time.Time `json:"last_solve_at"`
}

type GetGlobalRankingListResponse struct {
	List     []GlobalRankingEntry `json:"list"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

// RatingRankingEntry 全站排行榜条目(按竞赛积分)
type RatingRankingEntry struct {
	Rank          int    `json:"rank"`
	UserID        uint64 `json:"user_id"`
	ContestRating int    `json:"contest_rating"`
}

type GetGlobalRatingRankingListResponse struct {
	List     []RatingRankingEntry `json:"list"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

type GetContestLeaderboardParam struct {
	ContestCommonParam `json:"-"`

	Page     int `form:"page" binding:"required,min=1"`
	PageSize int `form:"page_size" binding:"required,min=10,max=100"`
}

// ContestLeaderboardEntry 比赛排行榜条目, 同分时按 LastSubmissionAt 升序
type ContestLeaderboardEntry struct {
	Rank             int             `json:"rank"`
	UserID           uint64          `json:"user_id"`
	TotalScore       int             `json:"total_score"`
	TotalSubmissions int             `json:"total_submissions"`
	LastSubmissionAt *time.Time      `json:"last_submission_at"`
	Problems         ProblemScoreMap `json:"problems"`
}

type GetContestLeaderboardResponse struct {
	List     []ContestLeaderboardEntry `json:"list"`
	Total    int                       `json:"total"`
	Page     int                       `json:"page"`
	PageSize int                       `json:"page_size"`
}

// LeaderboardDelta 比赛排行榜增量推送载荷
type LeaderboardDelta struct {
	ContestID        uint64     `json:"contest_id"`
	UserID           uint64     `json:"user_id"`
	ProblemID        uint64     `json:"problem_id"`
	ProblemScore     int        `json:"problem_score"`
	TotalScore       int        `json:"total_score"`
	TotalSubmissions int        `json:"total_submissions"`
	LastSubmissionAt *time.Time `json:"last_submission_at"`
}

type SubscribeContestLeaderboardParam struct {
	ContestCommonParam `json:"-"`
}

type ExportType int8

const (
	ExportTypeCSV ExportType = iota
	ExportTypeXLSX
)

type ExportContestLeaderboardParam struct {
	CommonParam `json:"-"`

	ContestID  uint64     `form:"contest_id" binding:"required"`
	ExportType ExportType `form:"export_type" binding:"omitempty,oneof=0 1"`
}
