package streamhub

import (
	"testing"

	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"go.uber.org/zap"
)

func newTestHub() *Hub {
	return NewHub(loggerv2.NewZapContextLogger(zap.NewNop()))
}

func TestHub_PublishReachesContestSubscribersOnly(t *testing.T) {
	hub := newTestHub()
	sub1 := hub.Subscribe(1, 4)
	sub2 := hub.Subscribe(1, 4)
	other := hub.Subscribe(2, 4)

	hub.Publish(1, []byte("delta"))

	for i, sub := range []*Subscriber{sub1, sub2} {
		select {
		case payload := <-sub.C():
			if string(payload) != "delta" {
				t.Fatalf("subscriber %d got %q", i, payload)
			}
		default:
			t.Fatalf("subscriber %d got nothing", i)
		}
	}
	select {
	case payload := <-other.C():
		t.Fatalf("contest 2 subscriber must not receive contest 1 delta, got %q", payload)
	default:
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := newTestHub()
	sub := hub.Subscribe(1, 1)
	if hub.SubscriberCount(1) != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.SubscriberCount(1))
	}

	hub.Unsubscribe(1, sub)
	if hub.SubscriberCount(1) != 0 {
		t.Fatalf("expected 0 subscribers, got %d", hub.SubscriberCount(1))
	}
	if _, open := <-sub.C(); open {
		t.Fatal("channel must be closed after unsubscribe")
	}

	// 重复取消订阅是 no-op
	hub.Unsubscribe(1, sub)
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := newTestHub()
	sub := hub.Subscribe(1, 1)

	hub.Publish(1, []byte("first"))
	hub.Publish(1, []byte("second")) // 缓冲已满, 必须丢弃而不是阻塞

	payload := <-sub.C()
	if string(payload) != "first" {
		t.Fatalf("expected first delta, got %q", payload)
	}
	select {
	case payload := <-sub.C():
		t.Fatalf("second delta should have been dropped, got %q", payload)
	default:
	}
}
