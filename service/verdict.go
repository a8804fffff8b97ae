package service

import (
	"sort"
	"strings"

	"github.com/to404hanga/online_judge_aggregator/model"
)

const nativeStatusAccepted = "Accepted"

// 判题引擎原生状态串到提交状态的固定映射, 未命中的一律归入 RuntimeError
var nativeStatusMap = map[string]model.SubmissionStatus{
	"Wrong Answer":            model.SubmissionStatusWrongAnswer,
	"Time Limit Exceeded":     model.SubmissionStatusTimeLimitExceeded,
	"Runtime Error (SIGSEGV)": model.SubmissionStatusSegmentationFault,
	"Runtime Error (SIGXFSZ)": model.SubmissionStatusFileSizeExceeded,
	"Runtime Error (SIGFPE)":  model.SubmissionStatusFloatingPointError,
	"Runtime Error (SIGABRT)": model.SubmissionStatusAborted,
	"Runtime Error (NZEC)":    model.SubmissionStatusNonZeroExit,
}

// Verdict 一次提交的最终判定
type Verdict struct {
	Status model.SubmissionStatus
	// TimeUsed 所有上报了耗时的用例的平均耗时(毫秒), 无用例上报时为空。
	// 注意: 未通过的用例同样参与计算
	TimeUsed *int
	// MemoryUsed 所有上报了内存的用例的最大内存(KB), 无用例上报时为空
	MemoryUsed *int
	// Passed 通过的用例数
	Passed int
}

// ResolveVerdict 由全量(或超时兜底的部分)用例结果推导唯一终态。
// 优先级: 空结果 -> UnknownError; 任一用例状态含 compilation -> CompilationError;
// 全部 Accepted -> Accepted; 否则取下标最小的未通过用例按映射表定状态
func ResolveVerdict(results []model.TestcaseResult) Verdict {
	if len(results) == 0 {
		return Verdict{Status: model.SubmissionStatusUnknownError}
	}

	sorted := make([]model.TestcaseResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Index < sorted[j].Index
	})

	verdict := Verdict{Status: model.SubmissionStatusAccepted}

	// 编译错误按约定只在第一个用例上报, 但这里不依赖这一点
	compilation := false
	for _, r := range sorted {
		if strings.Contains(strings.ToLower(r.Status), "compilation") {
			compilation = true
			break
		}
	}

	var (
		timeSum, timeCnt int
		maxMemory        *int
	)
	for _, r := range sorted {
		if r.Status == nativeStatusAccepted {
			verdict.Passed++
		} else if !compilation && verdict.Status == model.SubmissionStatusAccepted {
			// 第一个未通过的用例决定终态
			if mapped, ok := nativeStatusMap[r.Status]; ok {
				verdict.Status = mapped
			} else {
				verdict.Status = model.SubmissionStatusRuntimeError
			}
		}

		if r.TimeUsed != nil {
			timeSum += *r.TimeUsed
			timeCnt++
		}
		if r.MemoryUsed != nil && (maxMemory == nil || *r.MemoryUsed > *maxMemory) {
			m := *r.MemoryUsed
			maxMemory = &m
		}
	}
	if compilation {
		verdict.Status = model.SubmissionStatusCompilationError
	}

	if timeCnt > 0 {
		avg := timeSum / timeCnt
		verdict.TimeUsed = &avg
	}
	verdict.MemoryUsed = maxMemory

	return verdict
}
