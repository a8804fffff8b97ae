package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type CORSMiddlewareBuilder struct {
	allowOrigins     []string
	allowMethods     []string
	allowHeaders     []string
	exposeHeaders    []string
	allowCredentials bool
	maxAge           time.Duration
}

func NewCORSMiddlewareBuilder(allowOrigins, allowMethods, allowHeaders, exposeHeaders []string, allowCredentials bool, maxAge time.Duration) *CORSMiddlewareBuilder {
	return &CORSMiddlewareBuilder{
		allowOrigins:     allowOrigins,
		allowMethods:     allowMethods,
		allowHeaders:     allowHeaders,
		exposeHeaders:    exposeHeaders,
		allowCredentials: allowCredentials,
		maxAge:           maxAge,
	}
}

func (m *CORSMiddlewareBuilder) Build() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		origin := ctx.GetHeader("Origin")
		if origin == "" {
			ctx.Next()
			return
		}
		if !m.originAllowed(origin) {
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}

		ctx.Header("Access-Control-Allow-Origin", origin)
		if m.allowCredentials {
			ctx.Header("Access-Control-Allow-Credentials", "true")
		}
		if len(m.exposeHeaders) > 0 {
			ctx.Header("Access-Control-Expose-Headers", strings.Join(m.exposeHeaders, ", "))
		}

		if ctx.Request.Method == http.MethodOptions {
			ctx.Header("Access-Control-Allow-Methods", strings.Join(m.allowMethods, ", "))
			ctx.Header("Access-Control-Allow-Headers", strings.Join(m.allowHeaders, ", "))
			ctx.Header("Access-Control-Max-Age", strconv.Itoa(int(m.maxAge.Seconds())))
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		ctx.Next()
	}
}

func (m *CORSMiddlewareBuilder) originAllowed(origin string) bool {
	for _, allowed := range m.allowOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
