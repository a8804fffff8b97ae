package event

import (
	"context"
	"sync"

	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// SubmissionJudgedHandler 判题完成事件的进程内订阅者
type SubmissionJudgedHandler func(ctx context.Context, msg *SubmissionJudgedMessage) error

type subscriber struct {
	name    string
	handler SubmissionJudgedHandler
}

// Bus 进程内事件总线, 订阅关系在启动期显式注册
type Bus struct {
	mu          sync.RWMutex
	subscribers []subscriber
	log         loggerv2.Logger
}

func NewBus(log loggerv2.Logger) *Bus {
	return &Bus{log: log}
}

// Subscribe 注册订阅者, 仅应在启动期调用
func (b *Bus) Subscribe(name string, h SubmissionJudgedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, subscriber{name: name, handler: h})
}

// Publish 同步分发事件, 单个订阅者失败只记录日志, 不影响其余订阅者
func (b *Bus) Publish(ctx context.Context, msg *SubmissionJudgedMessage) {
	b.mu.RLock()
	subs := b.subscribers
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.handler(ctx, msg); err != nil {
			b.log.ErrorContext(ctx, "publish submission judged event failed",
				logger.String("subscriber", sub.name),
				logger.Uint64("submission_id", msg.SubmissionID),
				logger.Error(err))
		}
	}
}
