package model

import "time"

type SubmissionStatus int8

const (
	SubmissionStatusPending            SubmissionStatus = iota // 等待判题
	SubmissionStatusRunning                                    // 已派发判题引擎, 等待回调
	SubmissionStatusAccepted                                   // 通过
	SubmissionStatusWrongAnswer                                // 答案错误
	SubmissionStatusTimeLimitExceeded                          // 超时
	SubmissionStatusCompilationError                           // 编译错误
	SubmissionStatusRuntimeError                               // 运行时错误(未识别的具体原因)
	SubmissionStatusSegmentationFault                          // SIGSEGV
	SubmissionStatusFileSizeExceeded                           // SIGXFSZ
	SubmissionStatusFloatingPointError                         // SIGFPE
	SubmissionStatusAborted                                    // SIGABRT
	SubmissionStatusNonZeroExit                                // NZEC
	SubmissionStatusUnknownError                               // 判题引擎异常或结果缺失
)

func (s SubmissionStatus) Int8() int8 {
	return int8(s)
}

// Terminal 是否为终态, 终态一经写入不再变更
func (s SubmissionStatus) Terminal() bool {
	return s >= SubmissionStatusAccepted
}

func (s SubmissionStatus) String() string {
	switch s {
	case SubmissionStatusPending:
		return "Pending"
	case SubmissionStatusRunning:
		return "Running"
	case SubmissionStatusAccepted:
		return "Accepted"
	case SubmissionStatusWrongAnswer:
		return "WrongAnswer"
	case SubmissionStatusTimeLimitExceeded:
		return "TimeLimitExceeded"
	case SubmissionStatusCompilationError:
		return "CompilationError"
	case SubmissionStatusRuntimeError:
		return "RuntimeError"
	case SubmissionStatusSegmentationFault:
		return "SegmentationFault"
	case SubmissionStatusFileSizeExceeded:
		return "FileSizeExceeded"
	case SubmissionStatusFloatingPointError:
		return "FloatingPointError"
	case SubmissionStatusAborted:
		return "Aborted"
	case SubmissionStatusNonZeroExit:
		return "NonZeroExit"
	default:
		return "UnknownError"
	}
}

type Submission struct {
	ID        uint64           `json:"id" gorm:"primaryKey;autoIncrement"`
	ProblemID uint64           `json:"problem_id" gorm:"index"`
	UserID    uint64           `json:"user_id" gorm:"index:idx_user_problem"`
	ContestID *uint64          `json:"contest_id" gorm:"index"` // 练习提交为空
	Language  int8             `json:"language"`
	Code      string           `json:"code" gorm:"type:text"`
	Status    SubmissionStatus `json:"status" gorm:"index"`
	// TimeUsed 所有上报了耗时的测试用例的平均耗时(毫秒), 判题完成前为空
	TimeUsed *int `json:"time_used"`
	// MemoryUsed 所有上报了内存的测试用例的最大内存(KB), 判题完成前为空
	MemoryUsed *int       `json:"memory_used"`
	CreatedAt  time.Time  `json:"created_at" gorm:"index"`
	JudgedAt   *time.Time `json:"judged_at"`
}

func (Submission) TableName() string {
	return "submission"
}

// SubmissionTestcase 单条测试用例的持久化结果, 判题完成时批量落库
type SubmissionTestcase struct {
	ID            uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	SubmissionID  uint64 `json:"submission_id" gorm:"uniqueIndex:idx_submission_index"`
	TestcaseIndex int    `json:"testcase_index" gorm:"uniqueIndex:idx_submission_index"`
	Status        string `json:"status"` // 判题引擎原生状态串
	TimeUsed      *int   `json:"time_used"`
	MemoryUsed    *int   `json:"memory_used"`
	Output        string `json:"output" gorm:"type:text"` // 仅展示用, 可能被截断
}

func (SubmissionTestcase) TableName() string {
	return "submission_testcase"
}

// TestcaseResult 判题引擎回调中单个测试用例的结果
type TestcaseResult struct {
	Index      int    `json:"index"`
	Status     string `json:"status"`
	TimeUsed   *int   `json:"time_used"`   // 毫秒
	MemoryUsed *int   `json:"memory_used"` // KB
	Output     string `json:"output"`
}

type JudgeCallbackParam struct {
	SubmissionID  uint64 `form:"submission_id" binding:"required"`
	TestcaseIndex *int   `form:"testcase_index" binding:"required"`

	Token      string `json:"token" binding:"required"`
	Status     string `json:"status" binding:"required"`
	TimeUsed   *int   `json:"time_used"`
	MemoryUsed *int   `json:"memory_used"`
	Output     string `json:"output"`
}

type GetSubmissionParam struct {
	CommonParam `json:"-"`

	SubmissionID uint64 `form:"submission_id" binding:"required"`
}

type GetSubmissionResponse struct {
	Submission Submission           `json:"submission"`
	Testcases  []SubmissionTestcase `json:"testcases"`
}

type GetLatestSubmissionParam struct {
	ContestCommonParam `json:"-"`

	ProblemID uint64 `form:"problem_id" binding:"required"`
}

type GetLatestSubmissionResponse struct {
	Submission Submission `json:"submission"`
}
