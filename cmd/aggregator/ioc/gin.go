package ioc

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/to404hanga/online_judge_aggregator/config"
	"github.com/to404hanga/online_judge_aggregator/pkg/gintool"
	"github.com/to404hanga/online_judge_aggregator/web"
	"github.com/to404hanga/online_judge_aggregator/web/jwt"
	"github.com/to404hanga/online_judge_aggregator/web/middleware"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

func InitGinServer(l loggerv2.Logger, jwtHandler jwt.Handler,
	judgeCallbackHandler *web.JudgeCallbackHandler,
	submissionHandler *web.SubmissionHandler,
	leaderboardHandler *web.LeaderboardHandler,
	leaderboardStreamHandler *web.LeaderboardStreamHandler,
	healthHandler *web.HealthHandler) *web.GinServer {
	var cfg config.GinConfig
	err := viper.UnmarshalKey(cfg.Key(), &cfg)
	if err != nil {
		log.Panicf("unmarshal gin config failed, err: %v", err)
	}

	// 优先使用环境变量中设置的服务端口
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Addr = ":" + port
	}

	corsBuilder := middleware.NewCORSMiddlewareBuilder(
		cfg.AllowOrigins,
		cfg.AllowMethods,
		cfg.AllowHeaders,
		cfg.ExposeHeaders,
		cfg.AllowCredentials,
		time.Duration(cfg.MaxAge)*time.Second)
	jwtBuilder := middleware.NewJWTMiddlewareBuilder(jwtHandler, l, cfg.CheckContestPath)

	engine := gin.Default()
	engine.Use(
		corsBuilder.Build(),
		jwtBuilder.CheckContest(),
		gintool.ContextMiddleware(),
	)
	pprof.Register(engine)

	judgeCallbackHandler.Register(engine)
	submissionHandler.Register(engine)
	leaderboardHandler.Register(engine)
	leaderboardStreamHandler.Register(engine)
	healthHandler.Register(engine)

	return &web.GinServer{
		Engine: engine,
		Addr:   cfg.Addr,
	}
}
