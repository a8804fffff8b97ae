package constants

const (
	JudgeCallbackPath = "/internal/JudgeCallback" // 判题引擎回调, 每个测试用例回调一次
)

const (
	GetSubmissionPath       = "/GetSubmission"       // 获取提交记录
	GetLatestSubmissionPath = "/GetLatestSubmission" // 获取最新提交记录
)

const (
	GetGlobalRankingListPath        = "/GetGlobalRankingList"          // 获取全站排行榜(按解题分)
	GetGlobalRatingRankingListPath  = "/GetGlobalRatingRankingList"    // 获取全站排行榜(按竞赛积分)
	GetContestLeaderboardPath       = "/GetContestLeaderboard"         // 获取比赛排行榜
	SubscribeContestLeaderboardPath = "/SubscribeContestLeaderboard"   // 订阅比赛排行榜推送
	ExportContestLeaderboardPath    = "/ExportContestLeaderboard"      // 导出比赛排行榜
	RebuildGlobalRankingPath        = "/internal/RebuildGlobalRanking" // 手动触发全站排行榜重建, 仅内部使用
)
