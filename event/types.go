package event

import (
	"time"

	json "github.com/bytedance/sonic"
)

const (
	SubmissionTopic       = "submission_topic"
	SubmissionJudgedTopic = "submission_judged_topic"
)

// SubmissionMessage 待判题提交事件, 由 controller 在落库后发布
type SubmissionMessage struct {
	SubmissionID uint64 `json:"submission_id"`
}

func (s *SubmissionMessage) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// SubmissionJudgedMessage 判题完成事件, 仅在持久化落库成功后发布
type SubmissionJudgedMessage struct {
	SubmissionID    uint64  `json:"submission_id"`
	UserID          uint64  `json:"user_id"`
	ProblemID       uint64  `json:"problem_id"`
	ContestID       *uint64 `json:"contest_id,omitempty"`
	Status          int8    `json:"status"`
	PassedTestcases int     `json:"passed_testcases"`
	TotalTestcases  int     `json:"total_testcases"`
	SubmittedAt     int64   `json:"submitted_at"` // 毫秒时间戳
	JudgedAt        int64   `json:"judged_at"`    // 毫秒时间戳
}

func (s *SubmissionJudgedMessage) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

func (s *SubmissionJudgedMessage) SubmittedTime() time.Time {
	return time.UnixMilli(s.SubmittedAt)
}

func (s *SubmissionJudgedMessage) JudgedTime() time.Time {
	return time.UnixMilli(s.JudgedAt)
}
