package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/to404hanga/online_judge_aggregator/constants"
	"github.com/to404hanga/online_judge_aggregator/model"
	"github.com/to404hanga/online_judge_aggregator/pkg/gintool"
	"github.com/to404hanga/online_judge_aggregator/pkg/streamhub"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

const (
	streamWriteTimeout   = 10 * time.Second
	streamPingInterval   = 30 * time.Second
	streamSubscriberSize = 64
)

// LeaderboardStreamHandler 比赛排行榜增量推送, WebSocket 长连接。
// 推送尽力而为, 客户端掉线重连后应拉一次全量排行榜对账
type LeaderboardStreamHandler struct {
	hub      *streamhub.Hub
	log      loggerv2.Logger
	upgrader websocket.Upgrader
}

var _ Handler = (*LeaderboardStreamHandler)(nil)

func NewLeaderboardStreamHandler(hub *streamhub.Hub, log loggerv2.Logger) *LeaderboardStreamHandler {
	return &LeaderboardStreamHandler{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 跨域已由 CORS 中间件统一处理
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *LeaderboardStreamHandler) Register(r *gin.Engine) {
	r.GET(constants.SubscribeContestLeaderboardPath, gintool.WrapContestHandler(h.SubscribeContestLeaderboard, h.log))
}

func (h *LeaderboardStreamHandler) SubscribeContestLeaderboard(c *gin.Context, param *model.SubscribeContestLeaderboardParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Uint64("contest_id", param.ContestID),
		logger.Uint64("user_id", param.Operator))

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.ErrorContext(ctx, "upgrade leaderboard stream failed", logger.Error(err))
		return
	}

	sub := h.hub.Subscribe(param.ContestID, streamSubscriberSize)
	leaderboardStreamSubscribers.Inc()
	defer func() {
		h.hub.Unsubscribe(param.ContestID, sub)
		leaderboardStreamSubscribers.Dec()
		conn.Close()
	}()

	h.log.InfoContext(ctx, "leaderboard stream subscribed")

	// 读泵只用于感知连接关闭, 忽略客户端数据帧
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingInterval)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-sub.C():
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.log.DebugContext(ctx, "write leaderboard delta failed", logger.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
