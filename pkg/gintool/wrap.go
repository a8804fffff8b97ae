package gintool

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/to404hanga/online_judge_aggregator/constants"
	"github.com/to404hanga/online_judge_aggregator/model"
	"github.com/to404hanga/online_judge_aggregator/web/jwt"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// gin 的绑定校验在 main 中被关闭, 绑定完成后在此统一校验
var validate = func() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}()

// WrapHandler 包装处理函数
func WrapHandler[T model.CommonParamInterface](h func(c *gin.Context, pType T), log loggerv2.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		param, ok := bindParam[T](c, log)
		if !ok {
			return
		}

		if err := ExtractOperator(c, param); err != nil {
			GinResponse(c, &Response{
				Code:    http.StatusBadRequest,
				Message: err.Error(),
			})
			log.ErrorContext(c.Request.Context(), "WrapHandler ExtractOperator failed", logger.Error(err))
			return
		}

		h(c, param)
	}
}

// WrapContestHandler 包装比赛处理函数, 操作人与比赛 ID 取自比赛 token
func WrapContestHandler[T model.ContestCommonParamInterface](h func(c *gin.Context, pType T), log loggerv2.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		param, ok := bindParam[T](c, log)
		if !ok {
			return
		}

		userClaims, exists := c.Get(constants.ContextUserClaimsKey)
		if !exists {
			GinResponse(c, &Response{
				Code:    http.StatusBadRequest,
				Message: "contest user claims not found",
			})
			log.ErrorContext(c.Request.Context(), "WrapContestHandler contest user claims not found")
			return
		}
		contestUserClaims, ok := userClaims.(jwt.ContestUserClaims)
		if !ok {
			GinResponse(c, &Response{
				Code:    http.StatusBadRequest,
				Message: "contest user claims type assertion failed",
			})
			log.ErrorContext(c.Request.Context(), "WrapContestHandler contest user claims type assertion failed")
			return
		}

		param.SetOperator(contestUserClaims.UserId)
		param.SetContestID(contestUserClaims.ContestID)

		h(c, param)
	}
}

func bindParam[T any](c *gin.Context, log loggerv2.Logger) (T, bool) {
	var param T
	// 1) URI
	if len(c.Params) > 0 {
		if err := c.ShouldBindUri(&param); err != nil {
			GinResponse(c, &Response{
				Code:    http.StatusBadRequest,
				Message: err.Error(),
			})
			log.ErrorContext(c.Request.Context(), "bindParam bind uri failed", logger.Error(err))
			return param, false
		}
	}

	// 2) Header
	if err := c.ShouldBindHeader(&param); err != nil {
		GinResponse(c, &Response{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		})
		log.ErrorContext(c.Request.Context(), "bindParam bind header failed", logger.Error(err))
		return param, false
	}

	// 3) Query/Form
	if c.Request.URL != nil && c.Request.URL.RawQuery != "" {
		if err := c.ShouldBindQuery(&param); err != nil {
			GinResponse(c, &Response{
				Code:    http.StatusBadRequest,
				Message: err.Error(),
			})
			log.ErrorContext(c.Request.Context(), "bindParam bind query failed", logger.Error(err))
			return param, false
		}
	}

	// 4) JSON, GET 等无请求体的场景跳过
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&param); err != nil {
			GinResponse(c, &Response{
				Code:    http.StatusBadRequest,
				Message: err.Error(),
			})
			log.ErrorContext(c.Request.Context(), "bindParam bind json failed", logger.Error(err))
			return param, false
		}
	}

	if err := validate.Struct(param); err != nil {
		GinResponse(c, &Response{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		})
		log.ErrorContext(c.Request.Context(), "bindParam validate failed", logger.Error(err))
		return param, false
	}

	return param, true
}
