package service

import (
	"testing"

	"github.com/to404hanga/online_judge_aggregator/model"
	"github.com/to404hanga/online_judge_aggregator/pkg/pointer"
)

func TestResolveVerdict_Empty(t *testing.T) {
	v := ResolveVerdict(nil)
	if v.Status != model.SubmissionStatusUnknownError {
		t.Fatalf("expected UnknownError, got %s", v.Status)
	}
	if v.TimeUsed != nil || v.MemoryUsed != nil {
		t.Fatalf("expected nil metrics for empty results")
	}
}

func TestResolveVerdict_AllAccepted(t *testing.T) {
	v := ResolveVerdict([]model.TestcaseResult{
		{Index: 1, Status: "Accepted", TimeUsed: pointer.ToPtr(10), MemoryUsed: pointer.ToPtr(100)},
		{Index: 2, Status: "Accepted", TimeUsed: pointer.ToPtr(20), MemoryUsed: pointer.ToPtr(300)},
	})
	if v.Status != model.SubmissionStatusAccepted {
		t.Fatalf("expected Accepted, got %s", v.Status)
	}
	if v.Passed != 2 {
		t.Fatalf("expected 2 passed, got %d", v.Passed)
	}
}

func TestResolveVerdict_CompilationErrorWins(t *testing.T) {
	v := ResolveVerdict([]model.TestcaseResult{
		{Index: 1, Status: "Accepted"},
		{Index: 2, Status: "Compilation Error"},
	})
	if v.Status != model.SubmissionStatusCompilationError {
		t.Fatalf("expected CompilationError, got %s", v.Status)
	}
}

func TestResolveVerdict_FirstFailingIndexDecides(t *testing.T) {
	// 乱序到达, 状态必须由下标最小的未通过用例决定
	v := ResolveVerdict([]model.TestcaseResult{
		{Index: 3, Status: "Wrong Answer"},
		{Index: 1, Status: "Accepted"},
		{Index: 2, Status: "Time Limit Exceeded"},
	})
	if v.Status != model.SubmissionStatusTimeLimitExceeded {
		t.Fatalf("expected TimeLimitExceeded, got %s", v.Status)
	}
	if v.Passed != 1 {
		t.Fatalf("expected 1 passed, got %d", v.Passed)
	}
}

func TestResolveVerdict_UnknownNativeStatus(t *testing.T) {
	v := ResolveVerdict([]model.TestcaseResult{
		{Index: 1, Status: "Internal Error"},
	})
	if v.Status != model.SubmissionStatusRuntimeError {
		t.Fatalf("expected RuntimeError for unmapped status, got %s", v.Status)
	}
}

func TestResolveVerdict_SignalMapping(t *testing.T) {
	cases := map[string]model.SubmissionStatus{
		"Runtime Error (SIGSEGV)": model.SubmissionStatusSegmentationFault,
		"Runtime Error (SIGXFSZ)": model.SubmissionStatusFileSizeExceeded,
		"Runtime Error (SIGFPE)":  model.SubmissionStatusFloatingPointError,
		"Runtime Error (SIGABRT)": model.SubmissionStatusAborted,
		"Runtime Error (NZEC)":    model.SubmissionStatusNonZeroExit,
	}
	for native, expected := range cases {
		v := ResolveVerdict([]model.TestcaseResult{{Index: 1, Status: native}})
		if v.Status != expected {
			t.Errorf("%s: expected %s, got %s", native, expected, v.Status)
		}
	}
}

func TestResolveVerdict_Metrics(t *testing.T) {
	// 平均耗时只统计有上报的用例, 未通过用例同样参与; 内存取最大值
	v := ResolveVerdict([]model.TestcaseResult{
		{Index: 1, Status: "Accepted", TimeUsed: pointer.ToPtr(10), MemoryUsed: pointer.ToPtr(100)},
		{Index: 2, Status: "Wrong Answer", TimeUsed: pointer.ToPtr(20), MemoryUsed: pointer.ToPtr(300)},
		{Index: 3, Status: "Runtime Error (NZEC)"},
	})
	if v.TimeUsed == nil || *v.TimeUsed != 15 {
		t.Fatalf("expected avg time 15, got %v", v.TimeUsed)
	}
	if v.MemoryUsed == nil || *v.MemoryUsed != 300 {
		t.Fatalf("expected max memory 300, got %v", v.MemoryUsed)
	}
	if v.Status != model.SubmissionStatusWrongAnswer {
		t.Fatalf("expected WrongAnswer, got %s", v.Status)
	}
}
