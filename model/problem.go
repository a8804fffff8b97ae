package model

import "time"

type Problem struct {
	ID            uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	Title         string `json:"title"`
	Score         int    `json:"score"`          // 题目满分, IOI 赛制下按通过用例数折算
	TimeLimit     int    `json:"time_limit"`     // 毫秒
	MemoryLimit   int    `json:"memory_limit"`   // MB
	TestcaseCount int    `json:"testcase_count"` // 测试用例数, 与 MinIO 中的用例文件一一对应

	// 以下为统计列, 由判题完成事件增量维护
	TotalSubmissions int     `json:"total_submissions"`
	TotalAccepted    int     `json:"total_accepted"`
	AcceptanceRate   float64 `json:"acceptance_rate"` // 百分比, TotalSubmissions > 0 时有效

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Problem) TableName() string {
	return "problem"
}
