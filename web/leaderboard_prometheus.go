package web

import "github.com/prometheus/client_golang/prometheus"

var (
	getGlobalRankingListRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "online_judge_aggregator",
			Subsystem: "leaderboard",
			Name:      "get_global_ranking_list_requests_total",
			Help:      "GetGlobalRankingList requests total.",
		},
		[]string{"code", "reason"},
	)
	getGlobalRankingListDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "online_judge_aggregator",
			Subsystem: "leaderboard",
			Name:      "get_global_ranking_list_duration_seconds",
			Help:      "GetGlobalRankingList duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"code", "reason"},
	)
	getContestLeaderboardRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "online_judge_aggregator",
			Subsystem: "leaderboard",
			Name:      "get_contest_leaderboard_requests_total",
			Help:      "GetContestLeaderboard requests total.",
		},
		[]string{"code", "reason"},
	)
	getContestLeaderboardDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "online_judge_aggregator",
			Subsystem: "leaderboard",
			Name:      "get_contest_leaderboard_duration_seconds",
			Help:      "GetContestLeaderboard duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"code", "reason"},
	)
	leaderboardStreamSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "online_judge_aggregator",
			Subsystem: "leaderboard",
			Name:      "stream_subscribers",
			Help:      "Active leaderboard stream subscribers.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		getGlobalRankingListRequestsTotal,
		getGlobalRankingListDurationSeconds,
		getContestLeaderboardRequestsTotal,
		getContestLeaderboardDurationSeconds,
		leaderboardStreamSubscribers,
	)
}
