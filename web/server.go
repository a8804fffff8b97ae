package web

import (
	"github.com/gin-gonic/gin"
)

// Handler 每个 handler 自行注册路由
type Handler interface {
	Register(r *gin.Engine)
}

type GinServer struct {
	Engine *gin.Engine
	Addr   string
}

func (s *GinServer) Start() error {
	return s.Engine.Run(s.Addr)
}
