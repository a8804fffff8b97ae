package web

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/to404hanga/online_judge_aggregator/constants"
	"github.com/to404hanga/online_judge_aggregator/model"
	"github.com/to404hanga/online_judge_aggregator/service"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// JudgeCallbackHandler 判题引擎回调入口。内部端点, 不走用户鉴权,
// 凭共享 token 验证来源
type JudgeCallbackHandler struct {
	judgeSvc  service.JudgeService
	log       loggerv2.Logger
	authToken string
}

var _ Handler = (*JudgeCallbackHandler)(nil)

func NewJudgeCallbackHandler(judgeSvc service.JudgeService, log loggerv2.Logger, authToken string) *JudgeCallbackHandler {
	return &JudgeCallbackHandler{
		judgeSvc:  judgeSvc,
		log:       log,
		authToken: authToken,
	}
}

func (h *JudgeCallbackHandler) Register(r *gin.Engine) {
	r.PUT(constants.JudgeCallbackPath, h.JudgeCallback)
}

// JudgeCallback 处理单个测试用例的回调。除存储故障外一律返回 2xx,
// 引擎只会对非 2xx 重试
func (h *JudgeCallbackHandler) JudgeCallback(c *gin.Context) {
	begin := time.Now()
	code := http.StatusOK
	reason := "success"
	defer func() {
		judgeCallbackRequestsTotal.WithLabelValues(strconv.Itoa(code), reason).Inc()
		judgeCallbackDurationSeconds.WithLabelValues(strconv.Itoa(code), reason).
			Observe(time.Since(begin).Seconds())
	}()

	token := c.GetHeader(constants.HeaderCallbackAuthKey)
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.authToken)) != 1 {
		code, reason = http.StatusUnauthorized, "bad auth token"
		c.JSON(code, gin.H{"message": "unauthorized"})
		h.log.WarnContext(c.Request.Context(), "judge callback with bad auth token")
		return
	}

	var param model.JudgeCallbackParam
	if err := c.ShouldBindQuery(&param); err != nil {
		code, reason = http.StatusBadRequest, "bind query failed"
		c.JSON(code, gin.H{"message": err.Error()})
		return
	}
	if err := c.ShouldBindJSON(&param); err != nil {
		code, reason = http.StatusBadRequest, "bind json failed"
		c.JSON(code, gin.H{"message": err.Error()})
		return
	}
	// gin 的绑定校验在 main 中被关闭, 必填项手动检查
	if param.SubmissionID == 0 || param.TestcaseIndex == nil || param.Token == "" || param.Status == "" {
		code, reason = http.StatusBadRequest, "missing required fields"
		c.JSON(code, gin.H{"message": "missing required fields"})
		return
	}

	ctx := loggerv2.ContextWithFields(c.Request.Context(),
		logger.Uint64("submission_id", param.SubmissionID),
		logger.Int("testcase_index", *param.TestcaseIndex),
		logger.String("token", param.Token))

	if err := h.judgeSvc.OnTestcaseResult(ctx, &param); err != nil {
		// 返回 5xx 触发引擎重试, token 去重保证重试无副作用
		code, reason = http.StatusInternalServerError, "record result failed"
		c.JSON(code, gin.H{"message": err.Error()})
		h.log.ErrorContext(ctx, "JudgeCallback failed", logger.Error(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "success"})
}
