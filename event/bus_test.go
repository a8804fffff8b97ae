package event

import (
	"context"
	"errors"
	"testing"

	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"go.uber.org/zap"
)

func TestBus_FailingSubscriberDoesNotBlockOthers(t *testing.T) {
	bus := NewBus(loggerv2.NewZapContextLogger(zap.NewNop()))

	var order []string
	bus.Subscribe("first", func(context.Context, *SubmissionJudgedMessage) error {
		order = append(order, "first")
		return errors.New("boom")
	})
	bus.Subscribe("second", func(context.Context, *SubmissionJudgedMessage) error {
		order = append(order, "second")
		return nil
	})

	bus.Publish(context.Background(), &SubmissionJudgedMessage{SubmissionID: 1})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected both subscribers invoked in order, got %v", order)
	}
}
