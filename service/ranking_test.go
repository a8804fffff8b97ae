package service

import (
	"testing"
	"time"
)

func TestEncodeGlobalScore_HigherScoreAlwaysWins(t *testing.T) {
	early := time.Unix(1700000000, 0)
	late := time.Unix(1800000000, 0)

	// 分数高但解题晚, 仍排在分数低但解题早的前面
	high := EncodeGlobalScore(30, &late)
	low := EncodeGlobalScore(20, &early)
	if high <= low {
		t.Fatalf("score 30 must rank above score 20: %f <= %f", high, low)
	}
}

func TestEncodeGlobalScore_EarlierSolveBreaksTie(t *testing.T) {
	early := time.Unix(1700000000, 0)
	late := time.Unix(1700000001, 0)

	a := EncodeGlobalScore(20, &early)
	b := EncodeGlobalScore(20, &late)
	if a <= b {
		t.Fatalf("earlier solve must rank above on equal score: %f <= %f", a, b)
	}
}

func TestEncodeGlobalScore_NilLastSolveRanksLast(t *testing.T) {
	solved := time.Unix(1700000000, 0)
	if EncodeGlobalScore(20, nil) >= EncodeGlobalScore(20, &solved) {
		t.Fatal("missing last solve time must rank below any recorded one on equal score")
	}
}

func TestDecodeGlobalScore_RoundTrip(t *testing.T) {
	solveAt := time.Unix(1756700000, 0)
	score, decoded := decodeGlobalScore(EncodeGlobalScore(123, &solveAt))
	if score != 123 {
		t.Fatalf("expected score 123, got %d", score)
	}
	if decoded == nil || !decoded.Equal(solveAt) {
		t.Fatalf("expected solve time %v, got %v", solveAt, decoded)
	}

	score, decoded = decodeGlobalScore(EncodeGlobalScore(7, nil))
	if score != 7 || decoded != nil {
		t.Fatalf("expected (7, nil), got (%d, %v)", score, decoded)
	}
}
