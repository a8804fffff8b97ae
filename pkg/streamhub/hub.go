package streamhub

import (
	"sync"

	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// Subscriber 单个订阅连接, 缓冲满时丢弃消息(尽力而为, 客户端可随时轮询排行榜接口对账)
type Subscriber struct {
	ch chan []byte
}

func (s *Subscriber) C() <-chan []byte {
	return s.ch
}

// Hub 按比赛维度维护订阅关系的推送中心
type Hub struct {
	mu   sync.RWMutex
	subs map[uint64]map[*Subscriber]struct{}
	log  loggerv2.Logger
}

func NewHub(log loggerv2.Logger) *Hub {
	return &Hub{
		subs: make(map[uint64]map[*Subscriber]struct{}),
		log:  log,
	}
}

// Subscribe 订阅指定比赛的排行榜推送
func (h *Hub) Subscribe(contestID uint64, buffer int) *Subscriber {
	sub := &Subscriber{ch: make(chan []byte, buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.subs[contestID]; !exists {
		h.subs[contestID] = make(map[*Subscriber]struct{})
	}
	h.subs[contestID][sub] = struct{}{}
	return sub
}

// Unsubscribe 取消订阅并关闭通道
func (h *Hub) Unsubscribe(contestID uint64, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, exists := h.subs[contestID]; exists {
		if _, ok := set[sub]; ok {
			delete(set, sub)
			close(sub.ch)
		}
		if len(set) == 0 {
			delete(h.subs, contestID)
		}
	}
}

// Publish 向指定比赛的所有订阅者推送, 不阻塞发布方
func (h *Hub) Publish(contestID uint64, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[contestID] {
		select {
		case sub.ch <- payload:
		default:
			// 消费过慢, 丢弃本条
			h.log.Warn("leaderboard delta dropped for slow subscriber",
				logger.Uint64("contest_id", contestID))
		}
	}
}

// SubscriberCount 当前比赛的订阅数
func (h *Hub) SubscriberCount(contestID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[contestID])
}
