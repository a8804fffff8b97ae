package event

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/to404hanga/pkg404/gotools/retry"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

const submissionConsumerGroup = "online_judge_aggregator"

// SubmissionHandler 处理一条待判题提交
type SubmissionHandler func(ctx context.Context, submissionID uint64) error

// SubmissionConsumer 消费 controller 发布的待判题提交事件
type SubmissionConsumer struct {
	group  sarama.ConsumerGroup
	handle SubmissionHandler
	log    loggerv2.Logger
	cancel context.CancelFunc
}

func NewSubmissionConsumer(client sarama.Client, handle SubmissionHandler, log loggerv2.Logger) (*SubmissionConsumer, error) {
	group, err := sarama.NewConsumerGroupFromClient(submissionConsumerGroup, client)
	if err != nil {
		return nil, err
	}
	return &SubmissionConsumer{
		group:  group,
		handle: handle,
		log:    log,
	}, nil
}

// Start 启动消费循环, 非阻塞
func (c *SubmissionConsumer) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	go func() {
		for {
			err := c.group.Consume(ctx, []string{SubmissionTopic}, c)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				c.log.Error("submission consumer session ended", logger.Error(err))
			}
		}
	}()
}

func (c *SubmissionConsumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return c.group.Close()
}

func (c *SubmissionConsumer) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (c *SubmissionConsumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (c *SubmissionConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var payload SubmissionMessage
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			c.log.Error("unmarshal submission message failed",
				logger.String("topic", msg.Topic),
				logger.Int64("offset", msg.Offset),
				logger.Error(err))
			session.MarkMessage(msg, "")
			continue
		}

		// 重试后仍失败则放弃该条, 避免单条坏消息阻塞整个分区;
		// 遗留的 Pending 提交由巡检兜底
		err := retry.Do(session.Context(), func() error {
			return c.handle(session.Context(), payload.SubmissionID)
		})
		if err != nil {
			c.log.Error("dispatch submission failed after retries",
				logger.Uint64("submission_id", payload.SubmissionID),
				logger.Error(err))
		}
		session.MarkMessage(msg, "")
	}
	return nil
}
