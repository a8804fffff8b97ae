package service

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/to404hanga/online_judge_aggregator/event"
	"github.com/to404hanga/online_judge_aggregator/model"
	"github.com/to404hanga/online_judge_aggregator/pkg/streamhub"
)

type userProblem struct {
	userID    uint64
	problemID uint64
}

type fakeRankingStore struct {
	problems     map[uint64]*model.Problem
	contests     map[uint64]*model.Contest
	users        map[uint64]*model.UserStatistics
	participants map[uint64]map[uint64]*model.ContestParticipant
	// 每个 (用户, 题目) 下已通过的提交 ID, CountPriorAccepted 的数据源
	acceptedSubs map[userProblem][]uint64
}

var _ RankingStore = (*fakeRankingStore)(nil)

func newFakeRankingStore() *fakeRankingStore {
	return &fakeRankingStore{
		problems:     make(map[uint64]*model.Problem),
		contests:     make(map[uint64]*model.Contest),
		users:        make(map[uint64]*model.UserStatistics),
		participants: make(map[uint64]map[uint64]*model.ContestParticipant),
		acceptedSubs: make(map[userProblem][]uint64),
	}
}

func (f *fakeRankingStore) FindProblem(ctx context.Context, problemID uint64) (*model.Problem, error) {
	problem, exists := f.problems[problemID]
	if !exists {
		return nil, fmt.Errorf("problem %d not found", problemID)
	}
	cp := *problem
	return &cp, nil
}

func (f *fakeRankingStore) IncrementProblemStatistics(ctx context.Context, problemID uint64, accepted bool) error {
	problem, exists := f.problems[problemID]
	if !exists {
		return fmt.Errorf("problem %d not found", problemID)
	}
	problem.TotalSubmissions++
	if accepted {
		problem.TotalAccepted++
	}
	if problem.TotalSubmissions > 0 {
		problem.AcceptanceRate = float64(problem.TotalAccepted) * 100.0 / float64(problem.TotalSubmissions)
	}
	return nil
}

func (f *fakeRankingStore) CountPriorAccepted(ctx context.Context, userID, problemID, excludeSubmissionID uint64) (int64, error) {
	var prior int64
	for _, id := range f.acceptedSubs[userProblem{userID, problemID}] {
		if id != excludeSubmissionID {
			prior++
		}
	}
	return prior, nil
}

func (f *fakeRankingStore) UpsertUserSolve(ctx context.Context, userID uint64, score int, solveAt time.Time) (*model.UserStatistics, error) {
	stats, exists := f.users[userID]
	if !exists {
		stats = &model.UserStatistics{UserID: userID}
		f.users[userID] = stats
	}
	stats.GlobalScore += int64(score)
	stats.LastSolveAt = &solveAt
	cp := *stats
	return &cp, nil
}

func (f *fakeRankingStore) FindContest(ctx context.Context, contestID uint64) (*model.Contest, error) {
	contest, exists := f.contests[contestID]
	if !exists {
		return nil, ErrContestNotFound
	}
	cp := *contest
	return &cp, nil
}

func (f *fakeRankingStore) UpdateParticipant(ctx context.Context, contestID, userID uint64, mutate func(*model.ContestParticipant)) (*model.ContestParticipant, error) {
	if _, exists := f.participants[contestID]; !exists {
		f.participants[contestID] = make(map[uint64]*model.ContestParticipant)
	}
	participant, exists := f.participants[contestID][userID]
	if !exists {
		participant = &model.ContestParticipant{
			ContestID:     contestID,
			UserID:        userID,
			ProblemScores: make(model.ProblemScoreMap),
		}
		f.participants[contestID][userID] = participant
	}
	mutate(participant)
	cp := *participant
	return &cp, nil
}

func (f *fakeRankingStore) ListParticipants(ctx context.Context, contestID uint64, userIDs []uint64) ([]model.ContestParticipant, error) {
	var participants []model.ContestParticipant
	for _, userID := range userIDs {
		if p, exists := f.participants[contestID][userID]; exists {
			participants = append(participants, *p)
		}
	}
	return participants, nil
}

func (f *fakeRankingStore) listUsers(afterUserID uint64, limit int, keep func(*model.UserStatistics) bool) []model.UserStatistics {
	ids := make([]uint64, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var batch []model.UserStatistics
	for _, id := range ids {
		stats := f.users[id]
		if id <= afterUserID || !keep(stats) {
			continue
		}
		batch = append(batch, *stats)
		if len(batch) == limit {
			break
		}
	}
	return batch
}

func (f *fakeRankingStore) ListSolvers(ctx context.Context, afterUserID uint64, limit int) ([]model.UserStatistics, error) {
	return f.listUsers(afterUserID, limit, func(s *model.UserStatistics) bool {
		return s.GlobalScore > 0
	}), nil
}

func (f *fakeRankingStore) ListRated(ctx context.Context, afterUserID uint64, limit int) ([]model.UserStatistics, error) {
	return f.listUsers(afterUserID, limit, func(s *model.UserStatistics) bool {
		return s.ContestsParticipated > 0
	}), nil
}

type fakeLeaderboardStore struct {
	zsets map[string]map[string]float64
}

var _ LeaderboardStore = (*fakeLeaderboardStore)(nil)

func newFakeLeaderboardStore() *fakeLeaderboardStore {
	return &fakeLeaderboardStore{zsets: make(map[string]map[string]float64)}
}

func (f *fakeLeaderboardStore) Clear(ctx context.Context, key string) error {
	delete(f.zsets, key)
	return nil
}

func (f *fakeLeaderboardStore) Add(ctx context.Context, key string, members ...redis.Z) error {
	if _, exists := f.zsets[key]; !exists {
		f.zsets[key] = make(map[string]float64)
	}
	for _, member := range members {
		f.zsets[key][member.Member.(string)] = member.Score
	}
	return nil
}

func (f *fakeLeaderboardStore) TopWithScores(ctx context.Context, key string, start, stop int64) ([]redis.Z, error) {
	zs := make([]redis.Z, 0, len(f.zsets[key]))
	for member, score := range f.zsets[key] {
		zs = append(zs, redis.Z{Member: member, Score: score})
	}
	sort.Slice(zs, func(i, j int) bool {
		if zs[i].Score != zs[j].Score {
			return zs[i].Score > zs[j].Score
		}
		return zs[i].Member.(string) > zs[j].Member.(string)
	})
	if start >= int64(len(zs)) {
		return nil, nil
	}
	if stop >= int64(len(zs)) {
		stop = int64(len(zs)) - 1
	}
	return zs[start : stop+1], nil
}

func (f *fakeLeaderboardStore) Count(ctx context.Context, key string) (int64, error) {
	return int64(len(f.zsets[key])), nil
}

func (f *fakeLeaderboardStore) score(key, member string) (float64, bool) {
	score, exists := f.zsets[key][member]
	return score, exists
}

type rankingFixture struct {
	store  *fakeRankingStore
	boards *fakeLeaderboardStore
	hub    *streamhub.Hub
	svc    *RankingServiceImpl
}

func newRankingFixture() *rankingFixture {
	store := newFakeRankingStore()
	boards := newFakeLeaderboardStore()
	hub := streamhub.NewHub(nopLogger())
	return &rankingFixture{
		store:  store,
		boards: boards,
		hub:    hub,
		svc: &RankingServiceImpl{
			store:  store,
			boards: boards,
			hub:    hub,
			log:    nopLogger(),
		},
	}
}

func judgedMsg(submissionID, userID, problemID uint64, contestID *uint64,
	status model.SubmissionStatus, passed, total int, submittedAt, judgedAt time.Time) *event.SubmissionJudgedMessage {
	return &event.SubmissionJudgedMessage{
		SubmissionID:    submissionID,
		UserID:          userID,
		ProblemID:       problemID,
		ContestID:       contestID,
		Status:          status.Int8(),
		PassedTestcases: passed,
		TotalTestcases:  total,
		SubmittedAt:     submittedAt.UnixMilli(),
		JudgedAt:        judgedAt.UnixMilli(),
	}
}

func TestOnSubmissionJudged_NonTerminalIgnored(t *testing.T) {
	f := newRankingFixture()
	ctx := context.Background()
	f.store.problems[7] = &model.Problem{ID: 7, Score: 100, TestcaseCount: 10}
	now := time.Now()

	err := f.svc.OnSubmissionJudged(ctx, judgedMsg(1, 42, 7, nil, model.SubmissionStatusRunning, 0, 10, now, now))
	if err != nil {
		t.Fatalf("OnSubmissionJudged failed: %v", err)
	}
	if f.store.problems[7].TotalSubmissions != 0 {
		t.Fatal("non-terminal event must not touch problem statistics")
	}
}

func TestOnSubmissionJudged_ProblemStatistics(t *testing.T) {
	f := newRankingFixture()
	ctx := context.Background()
	f.store.problems[7] = &model.Problem{ID: 7, Score: 100, TestcaseCount: 10}
	now := time.Now()

	err := f.svc.OnSubmissionJudged(ctx, judgedMsg(1, 42, 7, nil, model.SubmissionStatusAccepted, 10, 10, now, now))
	if err != nil {
		t.Fatalf("OnSubmissionJudged failed: %v", err)
	}
	err = f.svc.OnSubmissionJudged(ctx, judgedMsg(2, 43, 7, nil, model.SubmissionStatusWrongAnswer, 3, 10, now, now))
	if err != nil {
		t.Fatalf("OnSubmissionJudged failed: %v", err)
	}

	problem := f.store.problems[7]
	if problem.TotalSubmissions != 2 || problem.TotalAccepted != 1 {
		t.Fatalf("expected counters (2, 1), got (%d, %d)", problem.TotalSubmissions, problem.TotalAccepted)
	}
	if problem.AcceptanceRate != 50 {
		t.Fatalf("expected acceptance rate 50, got %f", problem.AcceptanceRate)
	}
}

func TestOnSubmissionJudged_FirstAcceptOnlyScoresGlobal(t *testing.T) {
	f := newRankingFixture()
	ctx := context.Background()
	f.store.problems[7] = &model.Problem{ID: 7, Score: 100, TestcaseCount: 10}
	now := time.Now()

	err := f.svc.OnSubmissionJudged(ctx, judgedMsg(1, 42, 7, nil, model.SubmissionStatusAccepted, 10, 10, now, now))
	if err != nil {
		t.Fatalf("OnSubmissionJudged failed: %v", err)
	}
	if f.store.users[42].GlobalScore != 100 {
		t.Fatalf("expected global score 100 after first accept, got %d", f.store.users[42].GlobalScore)
	}
	score, exists := f.boards.score(GlobalRankingKey, "42")
	if !exists {
		t.Fatal("expected user 42 in global ranking zset")
	}
	if score != EncodeGlobalScore(100, &now) {
		t.Fatalf("zset score mismatch: got %f", score)
	}

	// 同一题重复通过不再计分, 排行榜分数保持不变
	f.store.acceptedSubs[userProblem{42, 7}] = []uint64{1}
	err = f.svc.OnSubmissionJudged(ctx, judgedMsg(2, 42, 7, nil, model.SubmissionStatusAccepted, 10, 10, now, now))
	if err != nil {
		t.Fatalf("OnSubmissionJudged failed: %v", err)
	}
	if f.store.users[42].GlobalScore != 100 {
		t.Fatalf("repeated accept must not add score, got %d", f.store.users[42].GlobalScore)
	}
	if again, _ := f.boards.score(GlobalRankingKey, "42"); again != score {
		t.Fatalf("repeated accept must not change zset score: %f != %f", again, score)
	}
}

func TestContestLeaderboard_BestScorePerProblem(t *testing.T) {
	f := newRankingFixture()
	ctx := context.Background()
	contestID := uint64(5)
	now := time.Now()
	f.store.problems[7] = &model.Problem{ID: 7, Score: 100, TestcaseCount: 10}
	f.store.contests[contestID] = &model.Contest{
		ID: contestID, StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour),
	}
	key := fmt.Sprintf(ContestLeaderboardKey, contestID)

	firstAt := now.Add(-30 * time.Minute)
	err := f.svc.OnSubmissionJudged(ctx, judgedMsg(1, 42, 7, &contestID, model.SubmissionStatusWrongAnswer, 4, 10, firstAt, firstAt))
	if err != nil {
		t.Fatalf("OnSubmissionJudged failed: %v", err)
	}
	secondAt := now.Add(-20 * time.Minute)
	err = f.svc.OnSubmissionJudged(ctx, judgedMsg(2, 42, 7, &contestID, model.SubmissionStatusWrongAnswer, 8, 10, secondAt, secondAt))
	if err != nil {
		t.Fatalf("OnSubmissionJudged failed: %v", err)
	}

	participant := f.store.participants[contestID][42]
	if participant.ProblemScores[7].Score != 80 {
		t.Fatalf("expected best score 80, got %d", participant.ProblemScores[7].Score)
	}
	if participant.LastSubmissionAt == nil || !participant.LastSubmissionAt.Equal(time.UnixMilli(secondAt.UnixMilli())) {
		t.Fatalf("improving submission must refresh last submission time, got %v", participant.LastSubmissionAt)
	}

	// 低分提交不降分, 也不刷新排位时间
	thirdAt := now.Add(-10 * time.Minute)
	err = f.svc.OnSubmissionJudged(ctx, judgedMsg(3, 42, 7, &contestID, model.SubmissionStatusWrongAnswer, 2, 10, thirdAt, thirdAt))
	if err != nil {
		t.Fatalf("OnSubmissionJudged failed: %v", err)
	}
	participant = f.store.participants[contestID][42]
	if participant.ProblemScores[7].Score != 80 {
		t.Fatalf("lower score must not overwrite best: got %d", participant.ProblemScores[7].Score)
	}
	if !participant.LastSubmissionAt.Equal(time.UnixMilli(secondAt.UnixMilli())) {
		t.Fatalf("non-improving submission must not refresh last submission time, got %v", participant.LastSubmissionAt)
	}
	if participant.ProblemScores[7].Submissions != 3 || participant.TotalSubmissions != 3 {
		t.Fatalf("all submissions count attempts: got (%d, %d)",
			participant.ProblemScores[7].Submissions, participant.TotalSubmissions)
	}
	if score, _ := f.boards.score(key, "42"); score != float64(participant.TotalScore) {
		t.Fatalf("zset score must track total score: %f != %d", score, participant.TotalScore)
	}
}

func TestContestLeaderboard_TotalIsSumOfProblemScores(t *testing.T) {
	f := newRankingFixture()
	ctx := context.Background()
	contestID := uint64(5)
	now := time.Now()
	f.store.problems[7] = &model.Problem{ID: 7, Score: 100, TestcaseCount: 10}
	f.store.problems[8] = &model.Problem{ID: 8, Score: 200, TestcaseCount: 4}
	f.store.contests[contestID] = &model.Contest{
		ID: contestID, StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour),
	}

	err := f.svc.OnSubmissionJudged(ctx, judgedMsg(1, 42, 7, &contestID, model.SubmissionStatusWrongAnswer, 6, 10, now, now))
	if err != nil {
		t.Fatalf("OnSubmissionJudged failed: %v", err)
	}
	err = f.svc.OnSubmissionJudged(ctx, judgedMsg(2, 42, 8, &contestID, model.SubmissionStatusWrongAnswer, 3, 4, now, now))
	if err != nil {
		t.Fatalf("OnSubmissionJudged failed: %v", err)
	}

	participant := f.store.participants[contestID][42]
	sum := 0
	for _, ps := range participant.ProblemScores {
		sum += ps.Score
	}
	if sum != 60+150 {
		t.Fatalf("expected problem scores 60 and 150, got sum %d", sum)
	}
	if participant.TotalScore != sum {
		t.Fatalf("total score must equal sum of problem scores: %d != %d", participant.TotalScore, sum)
	}
	key := fmt.Sprintf(ContestLeaderboardKey, contestID)
	if score, _ := f.boards.score(key, "42"); score != float64(sum) {
		t.Fatalf("zset score must equal total score: %f != %d", score, sum)
	}
}

func TestContestLeaderboard_OutOfWindowSubmissionNotScored(t *testing.T) {
	f := newRankingFixture()
	ctx := context.Background()
	contestID := uint64(5)
	now := time.Now()
	f.store.problems[7] = &model.Problem{ID: 7, Score: 100, TestcaseCount: 10}
	f.store.contests[contestID] = &model.Contest{
		ID: contestID, StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour),
	}

	// 比赛已结束, 只判题不计分
	err := f.svc.OnSubmissionJudged(ctx, judgedMsg(1, 42, 7, &contestID, model.SubmissionStatusWrongAnswer, 10, 10, now, now))
	if err != nil {
		t.Fatalf("OnSubmissionJudged failed: %v", err)
	}

	if _, exists := f.store.participants[contestID][42]; exists {
		t.Fatal("out-of-window submission must not create participant")
	}
	key := fmt.Sprintf(ContestLeaderboardKey, contestID)
	if _, exists := f.boards.score(key, "42"); exists {
		t.Fatal("out-of-window submission must not enter leaderboard zset")
	}
	if f.store.problems[7].TotalSubmissions != 1 {
		t.Fatal("problem statistics still count out-of-window submissions")
	}
}

func TestContestLeaderboard_UnknownContestSkipped(t *testing.T) {
	f := newRankingFixture()
	ctx := context.Background()
	contestID := uint64(99)
	now := time.Now()
	f.store.problems[7] = &model.Problem{ID: 7, Score: 100, TestcaseCount: 10}

	err := f.svc.OnSubmissionJudged(ctx, judgedMsg(1, 42, 7, &contestID, model.SubmissionStatusWrongAnswer, 5, 10, now, now))
	if err != nil {
		t.Fatalf("unknown contest must not fail the event: %v", err)
	}
	if len(f.store.participants) != 0 {
		t.Fatal("unknown contest must not create participants")
	}
}

func TestGetContestLeaderboard_OrderAndTieBreak(t *testing.T) {
	f := newRankingFixture()
	ctx := context.Background()
	contestID := uint64(5)
	now := time.Now()
	f.store.problems[7] = &model.Problem{ID: 7, Score: 100, TestcaseCount: 10}
	f.store.contests[contestID] = &model.Contest{
		ID: contestID, StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour),
	}

	// 43 先交出同样的 60 分, 同分时应排在 42 之前; 44 分数最高
	earlier := now.Add(-30 * time.Minute)
	later := now.Add(-10 * time.Minute)
	for _, sub := range []struct {
		id     uint64
		userID uint64
		passed int
		at     time.Time
	}{
		{1, 43, 6, earlier},
		{2, 42, 6, later},
		{3, 44, 9, later},
	} {
		err := f.svc.OnSubmissionJudged(ctx, judgedMsg(sub.id, sub.userID, 7, &contestID,
			model.SubmissionStatusWrongAnswer, sub.passed, 10, sub.at, sub.at))
		if err != nil {
			t.Fatalf("OnSubmissionJudged failed: %v", err)
		}
	}

	resp, err := f.svc.GetContestLeaderboard(ctx, &model.GetContestLeaderboardParam{
		ContestCommonParam: model.ContestCommonParam{CommonParam: model.CommonParam{Operator: 1}, ContestID: contestID},
		Page:               1,
		PageSize:           10,
	})
	if err != nil {
		t.Fatalf("GetContestLeaderboard failed: %v", err)
	}
	if resp.Total != 3 || len(resp.List) != 3 {
		t.Fatalf("expected 3 entries, got total %d list %d", resp.Total, len(resp.List))
	}
	order := make([]uint64, 0, len(resp.List))
	for i, entry := range resp.List {
		if entry.Rank != i+1 {
			t.Fatalf("expected rank %d, got %d", i+1, entry.Rank)
		}
		order = append(order, entry.UserID)
	}
	if !reflect.DeepEqual(order, []uint64{44, 43, 42}) {
		t.Fatalf("expected order [44 43 42], got %v", order)
	}
}

func TestRebuildAll_MatchesStatisticsAndIsIdempotent(t *testing.T) {
	store := newFakeRankingStore()
	boards := newFakeLeaderboardStore()
	svc := &RankingRebuildServiceImpl{store: store, boards: boards, log: nopLogger()}
	ctx := context.Background()

	solveAt := time.Unix(1756700000, 0)
	store.users[1] = &model.UserStatistics{UserID: 1, GlobalScore: 300, LastSolveAt: &solveAt, ContestRating: 1500, ContestsParticipated: 2}
	store.users[2] = &model.UserStatistics{UserID: 2, GlobalScore: 100, LastSolveAt: &solveAt}
	store.users[3] = &model.UserStatistics{UserID: 3, ContestRating: 1200, ContestsParticipated: 1}
	store.users[4] = &model.UserStatistics{UserID: 4} // 无解题分也无比赛, 两个榜都不收录

	// 重建前榜上有脏数据, 必须被清掉
	_ = boards.Add(ctx, GlobalRankingKey, redis.Z{Member: "999", Score: 1})
	_ = boards.Add(ctx, GlobalRatingRankingKey, redis.Z{Member: "999", Score: 1})

	if err := svc.RebuildAll(ctx); err != nil {
		t.Fatalf("RebuildAll failed: %v", err)
	}

	wantGlobal := map[string]float64{
		"1": EncodeGlobalScore(300, &solveAt),
		"2": EncodeGlobalScore(100, &solveAt),
	}
	if !reflect.DeepEqual(boards.zsets[GlobalRankingKey], wantGlobal) {
		t.Fatalf("global ranking mismatch: got %v", boards.zsets[GlobalRankingKey])
	}
	wantRating := map[string]float64{"1": 1500, "3": 1200}
	if !reflect.DeepEqual(boards.zsets[GlobalRatingRankingKey], wantRating) {
		t.Fatalf("rating ranking mismatch: got %v", boards.zsets[GlobalRatingRankingKey])
	}

	// 重复重建结果不变
	if err := svc.RebuildAll(ctx); err != nil {
		t.Fatalf("second RebuildAll failed: %v", err)
	}
	if !reflect.DeepEqual(boards.zsets[GlobalRankingKey], wantGlobal) ||
		!reflect.DeepEqual(boards.zsets[GlobalRatingRankingKey], wantRating) {
		t.Fatal("rebuild must be idempotent")
	}
}

func TestRebuildGlobalRanking_Pagination(t *testing.T) {
	store := newFakeRankingStore()
	boards := newFakeLeaderboardStore()
	svc := &RankingRebuildServiceImpl{store: store, boards: boards, log: nopLogger()}
	ctx := context.Background()

	solveAt := time.Unix(1756700000, 0)
	for i := uint64(1); i <= rebuildBatchSize+5; i++ {
		store.users[i] = &model.UserStatistics{UserID: i, GlobalScore: int64(i), LastSolveAt: &solveAt}
	}

	count, err := svc.RebuildGlobalRanking(ctx)
	if err != nil {
		t.Fatalf("RebuildGlobalRanking failed: %v", err)
	}
	if count != rebuildBatchSize+5 {
		t.Fatalf("expected %d users rebuilt, got %d", rebuildBatchSize+5, count)
	}
	if len(boards.zsets[GlobalRankingKey]) != rebuildBatchSize+5 {
		t.Fatalf("expected %d zset members, got %d", rebuildBatchSize+5, len(boards.zsets[GlobalRankingKey]))
	}
	member := strconv.FormatUint(rebuildBatchSize+3, 10)
	if score, exists := boards.score(GlobalRankingKey, member); !exists || score != EncodeGlobalScore(rebuildBatchSize+3, &solveAt) {
		t.Fatalf("member %s missing or mis-scored after paginated rebuild", member)
	}
}
