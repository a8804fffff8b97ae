package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/to404hanga/online_judge_aggregator/constants"
	ojjwt "github.com/to404hanga/online_judge_aggregator/web/jwt"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

type JWTMiddlewareBuilder struct {
	ojjwt.Handler
	log              loggerv2.Logger
	checkContestPath []string
}

func NewJWTMiddlewareBuilder(handler ojjwt.Handler, log loggerv2.Logger, checkContestPath []string) *JWTMiddlewareBuilder {
	return &JWTMiddlewareBuilder{
		Handler:          handler,
		log:              log,
		checkContestPath: checkContestPath,
	}
}

// CheckContest 校验比赛 token, 仅对配置的路径前缀生效
func (m *JWTMiddlewareBuilder) CheckContest() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		path := ctx.Request.URL.Path
		flag := false
		for _, p := range m.checkContestPath {
			if strings.HasPrefix(path, p) {
				flag = true
				break
			}
		}
		if !flag {
			ctx.Next()
			return
		}

		var uc ojjwt.ContestUserClaims
		token, err := jwt.ParseWithClaims(m.ExtractToken(ctx), &uc, func(t *jwt.Token) (any, error) {
			return m.JwtKey(), nil
		})
		if err != nil || token == nil || !token.Valid {
			m.log.ErrorContext(ctx, "CheckContest failed",
				logger.Error(err),
				logger.Bool("token==nil", token == nil),
			)
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		if err = m.CheckSession(ctx, uc.Ssid); err != nil {
			m.log.ErrorContext(ctx, "CheckContest failed", logger.Error(err))
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		ctx.Set(constants.ContextUserClaimsKey, uc)
		ctx.Next()
	}
}
