package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/online_judge_aggregator/constants"
	"github.com/to404hanga/online_judge_aggregator/model"
	"github.com/to404hanga/online_judge_aggregator/pkg/gintool"
	"github.com/to404hanga/online_judge_aggregator/service"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

type SubmissionHandler struct {
	judgeSvc service.JudgeService
	log      loggerv2.Logger
}

var _ Handler = (*SubmissionHandler)(nil)

func NewSubmissionHandler(judgeSvc service.JudgeService, log loggerv2.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		judgeSvc: judgeSvc,
		log:      log,
	}
}

func (h *SubmissionHandler) Register(r *gin.Engine) {
	r.GET(constants.GetSubmissionPath, gintool.WrapHandler(h.GetSubmission, h.log))
	r.GET(constants.GetLatestSubmissionPath, gintool.WrapContestHandler(h.GetLatestSubmission, h.log))
}

func (h *SubmissionHandler) GetSubmission(c *gin.Context, param *model.GetSubmissionParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Uint64("submission_id", param.SubmissionID))

	resp, err := h.judgeSvc.GetSubmission(ctx, param)
	if errors.Is(err, service.ErrSubmissionNotFound) {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusNotFound,
			Message: "submission not found",
		})
		return
	}
	if err != nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		})
		h.log.ErrorContext(ctx, "GetSubmission failed", logger.Error(err))
		return
	}

	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    resp,
	})
}

func (h *SubmissionHandler) GetLatestSubmission(c *gin.Context, param *model.GetLatestSubmissionParam) {
	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Uint64("contest_id", param.ContestID),
		logger.Uint64("problem_id", param.ProblemID))

	resp, err := h.judgeSvc.GetLatestSubmission(ctx, param)
	if errors.Is(err, service.ErrSubmissionNotFound) {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusNotFound,
			Message: "submission not found",
		})
		return
	}
	if err != nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		})
		h.log.ErrorContext(ctx, "GetLatestSubmission failed", logger.Error(err))
		return
	}

	gintool.GinResponse(c, &gintool.Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    resp,
	})
}
