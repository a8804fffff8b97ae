package jwt

import (
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Handler 校验 controller 签发的比赛 token, 本服务只验签不签发
type Handler interface {
	ExtractToken(ctx *gin.Context) string
	CheckSession(ctx *gin.Context, ssid string) error

	JwtKey() []byte
	GetUserClaims(ctx *gin.Context) (*ContestUserClaims, error)
}

type ContestUserClaims struct {
	jwt.RegisteredClaims
	UserId    uint64
	ContestID uint64
	Ssid      string
	UserAgent string
}
