package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/online_judge_aggregator/constants"
	"github.com/to404hanga/online_judge_aggregator/model"
	"github.com/to404hanga/online_judge_aggregator/pkg/gintool"
	"github.com/to404hanga/online_judge_aggregator/service"
	"github.com/to404hanga/online_judge_aggregator/service/exporter/factory"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

type LeaderboardHandler struct {
	rankingSvc service.RankingService
	rebuildSvc service.RankingRebuildService
	log        loggerv2.Logger
}

var _ Handler = (*LeaderboardHandler)(nil)

func NewLeaderboardHandler(rankingSvc service.RankingService, rebuildSvc service.RankingRebuildService, log loggerv2.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		rankingSvc: rankingSvc,
		rebuildSvc: rebuildSvc,
		log:        log,
	}
}

func (h *LeaderboardHandler) Register(r *gin.Engine) {
	r.GET(constants.GetGlobalRankingListPath, gintool.WrapHandler(h.GetGlobalRankingList, h.log))
	r.GET(constants.GetGlobalRatingRankingListPath, gintool.WrapHandler(h.GetGlobalRatingRankingList, h.log))
	r.GET(constants.GetContestLeaderboardPath, gintool.WrapContestHandler(h.GetContestLeaderboard, h.log))
	r.GET(constants.ExportContestLeaderboardPath, gintool.WrapHandler(h.ExportContestLeaderboard, h.log))
	r.POST(constants.RebuildGlobalRankingPath, h.RebuildGlobalRanking)
}

func (h *LeaderboardHandler) GetGlobalRankingList(c *gin.Context, param *model.GetGlobalRankingListParam) {
	begin := time.Now()
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Int("page", param.Page),
		logger.Int("page_size", param.PageSize))

	resp, err := h.rankingSvc.GetGlobalRankingList(ctx, param)
	if err != nil {
		getGlobalRankingListRequestsTotal.WithLabelValues("500", "internal error").Inc()
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		})
		h.log.ErrorContext(ctx, "GetGlobalRankingList failed", logger.Error(err))
		return
	}

	getGlobalRankingListRequestsTotal.WithLabelValues("200", "success").Inc()
	getGlobalRankingListDurationSeconds.WithLabelValues("200", "success").
		Observe(time.Since(begin).Seconds())
	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    resp,
	})
}

func (h *LeaderboardHandler) GetGlobalRatingRankingList(c *gin.Context, param *model.GetGlobalRankingListParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Int("page", param.Page),
		logger.Int("page_size", param.PageSize))

	resp, err := h.rankingSvc.GetGlobalRatingRankingList(ctx, param)
	if err != nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		})
		h.log.ErrorContext(ctx, "GetGlobalRatingRankingList failed", logger.Error(err))
		return
	}

	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    resp,
	})
}

func (h *LeaderboardHandler) GetContestLeaderboard(c *gin.Context, param *model.GetContestLeaderboardParam) {
	begin := time.Now()
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Uint64("contest_id", param.ContestID),
		logger.Int("page", param.Page),
		logger.Int("page_size", param.PageSize))

	resp, err := h.rankingSvc.GetContestLeaderboard(ctx, param)
	if err != nil {
		getContestLeaderboardRequestsTotal.WithLabelValues("500", "internal error").Inc()
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		})
		h.log.ErrorContext(ctx, "GetContestLeaderboard failed", logger.Error(err))
		return
	}

	getContestLeaderboardRequestsTotal.WithLabelValues("200", "success").Inc()
	getContestLeaderboardDurationSeconds.WithLabelValues("200", "success").
		Observe(time.Since(begin).Seconds())
	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    resp,
	})
}

// ExportContestLeaderboard 导出比赛排行榜, 直接以附件形式流式写回
func (h *LeaderboardHandler) ExportContestLeaderboard(c *gin.Context, param *model.ExportContestLeaderboardParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Uint64("contest_id", param.ContestID),
		logger.Int8("export_type", int8(param.ExportType)))

	exporterType := factory.CSVLeaderboardExporter
	if param.ExportType == model.ExportTypeXLSX {
		exporterType = factory.XLSXLeaderboardExporter
	}

	filename := fmt.Sprintf("contest_%d_leaderboard%s", param.ContestID, factory.ExporterSuffixMap[exporterType])
	c.Header("Content-Type", factory.ExporterContentTypeMap[exporterType])
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(filename))

	if err := h.rankingSvc.Export(ctx, param, c.Writer); err != nil {
		// 响应头可能已经写出, 只能记录日志并中断
		h.log.ErrorContext(ctx, "ExportContestLeaderboard failed", logger.Error(err))
		c.Abort()
		return
	}
}

// RebuildGlobalRanking 手动触发全站排行榜重建, 仅内部使用
func (h *LeaderboardHandler) RebuildGlobalRanking(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.rebuildSvc.RebuildAll(ctx); err != nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		})
		h.log.ErrorContext(ctx, "RebuildGlobalRanking failed", logger.Error(err))
		return
	}

	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
	})
}
