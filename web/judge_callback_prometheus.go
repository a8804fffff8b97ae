package web

import "github.com/prometheus/client_golang/prometheus"

var (
	judgeCallbackRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "online_judge_aggregator",
			Subsystem: "judge",
			Name:      "callback_requests_total",
			Help:      "JudgeCallback requests total.",
		},
		[]string{"code", "reason"},
	)
	judgeCallbackDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "online_judge_aggregator",
			Subsystem: "judge",
			Name:      "callback_duration_seconds",
			Help:      "JudgeCallback duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"code", "reason"},
	)
)

func init() {
	prometheus.MustRegister(
		judgeCallbackRequestsTotal,
		judgeCallbackDurationSeconds,
	)
}
