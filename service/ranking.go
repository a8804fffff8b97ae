package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/to404hanga/online_judge_aggregator/event"
	"github.com/to404hanga/online_judge_aggregator/model"
	"github.com/to404hanga/online_judge_aggregator/pkg/streamhub"
	"github.com/to404hanga/online_judge_aggregator/service/exporter/factory"
	"github.com/to404hanga/pkg404/gotools/transform"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"gorm.io/gorm"
)

const (
	GlobalRankingKey       = "global:ranking:problem-based"
	GlobalRatingRankingKey = "global:ranking:contest-based"
	ContestLeaderboardKey  = "contest:%d:leaderboard"

	// 打包分数: globalScore * 10^10 + (9999999999 - 最近解题秒级时间戳),
	// 高位比分数, 低位同分时先解出者大。重建任务依赖同一编码
	MaxSolveEpochSeconds  = 9999999999
	GlobalScoreMultiplier = 10000000000
)

// EncodeGlobalScore 将累计解题分与最近解题时间打包为 zset 分数
func EncodeGlobalScore(globalScore int64, lastSolveAt *time.Time) float64 {
	var tiebreak int64
	if lastSolveAt != nil {
		tiebreak = MaxSolveEpochSeconds - lastSolveAt.Unix()
	}
	return float64(globalScore*GlobalScoreMultiplier + tiebreak)
}

func decodeGlobalScore(score float64) (int64, *time.Time) {
	packed := int64(score)
	globalScore := packed / GlobalScoreMultiplier
	tiebreak := packed % GlobalScoreMultiplier
	if tiebreak == 0 {
		return globalScore, nil
	}
	solveAt := time.Unix(MaxSolveEpochSeconds-tiebreak, 0)
	return globalScore, &solveAt
}

type RankingService interface {
	// OnSubmissionJudged 消费判题完成事件, 维护题目统计与各排行榜
	OnSubmissionJudged(ctx context.Context, msg *event.SubmissionJudgedMessage) error
	// GetGlobalRankingList 获取全站排行榜(按解题分)
	GetGlobalRankingList(ctx context.Context, param *model.GetGlobalRankingListParam) (*model.GetGlobalRankingListResponse, error)
	// GetGlobalRatingRankingList 获取全站排行榜(按竞赛积分)
	GetGlobalRatingRankingList(ctx context.Context, param *model.GetGlobalRankingListParam) (*model.GetGlobalRatingRankingListResponse, error)
	// GetContestLeaderboard 获取比赛排行榜
	GetContestLeaderboard(ctx context.Context, param *model.GetContestLeaderboardParam) (*model.GetContestLeaderboardResponse, error)
	// Export 导出比赛排行榜
	Export(ctx context.Context, param *model.ExportContestLeaderboardParam, writer io.Writer) error
}

// RankingServiceImpl 排行榜服务实现, 实时读路径强依赖 Redis,
// 关系型数据仅作为重建与导出的数据源
type RankingServiceImpl struct {
	store           RankingStore
	boards          LeaderboardStore
	hub             *streamhub.Hub
	log             loggerv2.Logger
	exporterFactory *factory.ExporterFactory
}

var _ RankingService = (*RankingServiceImpl)(nil)

func NewRankingService(db *gorm.DB, rdb redis.Cmdable, hub *streamhub.Hub, log loggerv2.Logger) RankingService {
	return &RankingServiceImpl{
		store:           NewGormRankingStore(db),
		boards:          NewRedisLeaderboardStore(rdb),
		hub:             hub,
		log:             log,
		exporterFactory: factory.NewExporterFactory(db, log),
	}
}

// OnSubmissionJudged 消费判题完成事件。题目统计对所有终态提交生效,
// 全站解题分仅对首次通过生效, 比赛排行榜对窗口内的全部提交生效
func (s *RankingServiceImpl) OnSubmissionJudged(ctx context.Context, msg *event.SubmissionJudgedMessage) error {
	status := model.SubmissionStatus(msg.Status)
	if !status.Terminal() {
		return nil
	}
	accepted := status == model.SubmissionStatusAccepted

	problem, err := s.store.FindProblem(ctx, msg.ProblemID)
	if err != nil {
		return fmt.Errorf("OnSubmissionJudged failed at find problem: %w", err)
	}

	if err = s.store.IncrementProblemStatistics(ctx, msg.ProblemID, accepted); err != nil {
		return fmt.Errorf("OnSubmissionJudged failed at update problem statistics: %w", err)
	}

	if accepted {
		if err = s.updateGlobalRanking(ctx, msg, problem); err != nil {
			return fmt.Errorf("OnSubmissionJudged failed at update global ranking: %w", err)
		}
	}

	if msg.ContestID != nil {
		if err = s.updateContestLeaderboard(ctx, msg, problem); err != nil {
			return fmt.Errorf("OnSubmissionJudged failed at update contest leaderboard: %w", err)
		}
	}
	return nil
}

// updateGlobalRanking 首次通过才累计解题分, 重复通过同一题不重复计分
func (s *RankingServiceImpl) updateGlobalRanking(ctx context.Context, msg *event.SubmissionJudgedMessage, problem *model.Problem) error {
	prior, err := s.store.CountPriorAccepted(ctx, msg.UserID, msg.ProblemID, msg.SubmissionID)
	if err != nil {
		return fmt.Errorf("count prior accepted failed: %w", err)
	}
	if prior > 0 {
		return nil
	}

	stats, err := s.store.UpsertUserSolve(ctx, msg.UserID, problem.Score, msg.JudgedTime())
	if err != nil {
		return fmt.Errorf("upsert user statistics failed: %w", err)
	}

	err = s.boards.Add(ctx, GlobalRankingKey, redis.Z{
		Score:  EncodeGlobalScore(stats.GlobalScore, stats.LastSolveAt),
		Member: strconv.FormatUint(msg.UserID, 10),
	})
	if err != nil {
		return fmt.Errorf("zadd global ranking failed: %w", err)
	}
	return nil
}

// updateContestLeaderboard IOI 赛制: 单题得分按通过用例数折算,
// 只保留历史最高分, 重复提交不降分。窗口外的提交只判题不计分
func (s *RankingServiceImpl) updateContestLeaderboard(ctx context.Context, msg *event.SubmissionJudgedMessage, problem *model.Problem) error {
	contestID := *msg.ContestID

	contest, err := s.store.FindContest(ctx, contestID)
	if errors.Is(err, ErrContestNotFound) {
		s.log.WarnContext(ctx, "skip leaderboard update for unknown contest",
			logger.Uint64("contest_id", contestID),
			logger.Uint64("submission_id", msg.SubmissionID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("find contest failed: %w", err)
	}
	if !contest.Active(msg.SubmittedTime()) {
		s.log.DebugContext(ctx, "skip leaderboard update for out-of-window submission",
			logger.Uint64("contest_id", contestID),
			logger.Uint64("submission_id", msg.SubmissionID))
		return nil
	}

	problemScore := 0
	if msg.TotalTestcases > 0 {
		problemScore = problem.Score * msg.PassedTestcases / msg.TotalTestcases
	}

	participant, err := s.store.UpdateParticipant(ctx, contestID, msg.UserID, func(p *model.ContestParticipant) {
		ps := p.ProblemScores[msg.ProblemID]
		ps.Submissions++
		ps.LastSubmitTime = msg.JudgedAt
		improved := problemScore > ps.Score
		if improved {
			ps.Score = problemScore
		}
		p.ProblemScores[msg.ProblemID] = ps

		total := 0
		for _, v := range p.ProblemScores {
			total += v.Score
		}
		p.TotalScore = total
		p.TotalSubmissions++
		if improved {
			// 同分排名看最后一次涨分提交, 无效提交不影响排位时间
			submitAt := msg.JudgedTime()
			p.LastSubmissionAt = &submitAt
		}
	})
	if err != nil {
		return fmt.Errorf("update participant failed: %w", err)
	}

	err = s.boards.Add(ctx, fmt.Sprintf(ContestLeaderboardKey, contestID), redis.Z{
		Score:  float64(participant.TotalScore),
		Member: strconv.FormatUint(msg.UserID, 10),
	})
	if err != nil {
		return fmt.Errorf("zadd contest leaderboard failed: %w", err)
	}

	s.publishDelta(ctx, &model.LeaderboardDelta{
		ContestID:        contestID,
		UserID:           msg.UserID,
		ProblemID:        msg.ProblemID,
		ProblemScore:     participant.ProblemScores[msg.ProblemID].Score,
		TotalScore:       participant.TotalScore,
		TotalSubmissions: participant.TotalSubmissions,
		LastSubmissionAt: participant.LastSubmissionAt,
	})
	return nil
}

// publishDelta 推送排行榜增量, 失败不影响主流程
func (s *RankingServiceImpl) publishDelta(ctx context.Context, delta *model.LeaderboardDelta) {
	payload, err := json.Marshal(delta)
	if err != nil {
		s.log.ErrorContext(ctx, "marshal leaderboard delta failed",
			logger.Uint64("contest_id", delta.ContestID), logger.Error(err))
		return
	}
	s.hub.Publish(delta.ContestID, payload)
}

// GetGlobalRankingList 获取全站排行榜(按解题分)
func (s *RankingServiceImpl) GetGlobalRankingList(ctx context.Context, param *model.GetGlobalRankingListParam) (*model.GetGlobalRankingListResponse, error) {
	start := int64((param.Page - 1) * param.PageSize)
	stop := start + int64(param.PageSize) - 1

	zs, err := s.boards.TopWithScores(ctx, GlobalRankingKey, start, stop)
	if err != nil {
		return nil, fmt.Errorf("get global ranking from redis failed: %w", err)
	}
	total, err := s.boards.Count(ctx, GlobalRankingKey)
	if err != nil {
		return nil, fmt.Errorf("get global ranking total from redis failed: %w", err)
	}

	list := transform.SliceFromSlice(zs, func(idx int, z redis.Z) model.GlobalRankingEntry {
		userID, _ := strconv.ParseUint(z.Member.(string), 10, 64)
		globalScore, lastSolveAt := decodeGlobalScore(z.Score)
		return model.GlobalRankingEntry{
			Rank:        int(start) + idx + 1,
			UserID:      userID,
			GlobalScore: globalScore,
			LastSolveAt: lastSolveAt,
		}
	})

	return &model.GetGlobalRankingListResponse{
		List:     list,
		Total:    int(total),
		Page:     param.Page,
		PageSize: param.PageSize,
	}, nil
}

// GetGlobalRatingRankingList 获取全站排行榜(按竞赛积分)
func (s *RankingServiceImpl) GetGlobalRatingRankingList(ctx context.Context, param *model.GetGlobalRankingListParam) (*model.GetGlobalRatingRankingListResponse, error) {
	start := int64((param.Page - 1) * param.PageSize)
	stop := start + int64(param.PageSize) - 1

	zs, err := s.boards.TopWithScores(ctx, GlobalRatingRankingKey, start, stop)
	if err != nil {
		return nil, fmt.Errorf("get rating ranking from redis failed: %w", err)
	}
	total, err := s.boards.Count(ctx, GlobalRatingRankingKey)
	if err != nil {
		return nil, fmt.Errorf("get rating ranking total from redis failed: %w", err)
	}

	list := transform.SliceFromSlice(zs, func(idx int, z redis.Z) model.RatingRankingEntry {
		userID, _ := strconv.ParseUint(z.Member.(string), 10, 64)
		return model.RatingRankingEntry{
			Rank:          int(start) + idx + 1,
			UserID:        userID,
			ContestRating: int(z.Score),
		}
	})

	return &model.GetGlobalRatingRankingListResponse{
		List:     list,
		Total:    int(total),
		Page:     param.Page,
		PageSize: param.PageSize,
	}, nil
}

// GetContestLeaderboard 获取比赛排行榜。zset 只存总分, 明细从库中批量补齐,
// 同分条目在页内按最后提交时间升序修正
func (s *RankingServiceImpl) GetContestLeaderboard(ctx context.Context, param *model.GetContestLeaderboardParam) (*model.GetContestLeaderboardResponse, error) {
	leaderboardKey := fmt.Sprintf(ContestLeaderboardKey, param.ContestID)

	start := int64((param.Page - 1) * param.PageSize)
	stop := start + int64(param.PageSize) - 1

	zs, err := s.boards.TopWithScores(ctx, leaderboardKey, start, stop)
	if err != nil {
		return nil, fmt.Errorf("get contest leaderboard from redis failed: %w", err)
	}
	total, err := s.boards.Count(ctx, leaderboardKey)
	if err != nil {
		return nil, fmt.Errorf("get contest leaderboard total from redis failed: %w", err)
	}

	userIDs := make([]uint64, 0, len(zs))
	for _, z := range zs {
		userID, err := strconv.ParseUint(z.Member.(string), 10, 64)
		if err != nil {
			s.log.ErrorContext(ctx, "parse leaderboard member failed",
				logger.Uint64("contest_id", param.ContestID),
				logger.Any("member", z.Member))
			continue
		}
		userIDs = append(userIDs, userID)
	}

	var participants []model.ContestParticipant
	if len(userIDs) > 0 {
		participants, err = s.store.ListParticipants(ctx, param.ContestID, userIDs)
		if err != nil {
			return nil, fmt.Errorf("get participants from db failed: %w", err)
		}
	}
	detail := make(map[uint64]model.ContestParticipant, len(participants))
	for _, p := range participants {
		detail[p.UserID] = p
	}

	list := make([]model.ContestLeaderboardEntry, 0, len(userIDs))
	for _, userID := range userIDs {
		p, exists := detail[userID]
		if !exists {
			s.log.WarnContext(ctx, "leaderboard member missing participant detail",
				logger.Uint64("contest_id", param.ContestID),
				logger.Uint64("user_id", userID))
			continue
		}
		list = append(list, model.ContestLeaderboardEntry{
			UserID:           p.UserID,
			TotalScore:       p.TotalScore,
			TotalSubmissions: p.TotalSubmissions,
			LastSubmissionAt: p.LastSubmissionAt,
			Problems:         p.ProblemScores,
		})
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].TotalScore != list[j].TotalScore {
			return list[i].TotalScore > list[j].TotalScore
		}
		li, lj := list[i].LastSubmissionAt, list[j].LastSubmissionAt
		if li == nil || lj == nil {
			return lj == nil && li != nil
		}
		return li.Before(*lj)
	})
	for i := range list {
		list[i].Rank = int(start) + i + 1
	}

	return &model.GetContestLeaderboardResponse{
		List:     list,
		Total:    int(total),
		Page:     param.Page,
		PageSize: param.PageSize,
	}, nil
}

// Export 导出比赛排行榜
func (s *RankingServiceImpl) Export(ctx context.Context, param *model.ExportContestLeaderboardParam, writer io.Writer) error {
	exporterType := factory.CSVLeaderboardExporter
	if param.ExportType == model.ExportTypeXLSX {
		exporterType = factory.XLSXLeaderboardExporter
	}

	exp := s.exporterFactory.GetExporter(exporterType)
	if exp == nil {
		return fmt.Errorf("get leaderboard exporter failed: exporter not found")
	}
	return exp.Export(ctx, param.ContestID, writer)
}
