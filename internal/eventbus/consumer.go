package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/libmcu/ocpp-session-core/internal/logger"
)

// KafkaConsumer consumes the remote-control command topic and hands
// each decoded Command to a CommandHandler. It implements
// sarama.ConsumerGroupHandler directly, the way the teacher's
// KafkaConsumer does.
type KafkaConsumer struct {
	group   SaramaConsumerGroup
	topic   string
	log     *logger.Logger
	cancel  context.CancelFunc
	handler CommandHandler
}

// NewKafkaConsumer dials brokers and joins groupID's consumer group.
func NewKafkaConsumer(brokers []string, groupID, topic string, log *logger.Logger) (*KafkaConsumer, error) {
	cfg := sarama.NewConfig()
	cfg.Consumer.Return.Errors = true
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRange()
	cfg.Consumer.Group.Session.Timeout = 10 * time.Second
	cfg.Consumer.Group.Heartbeat.Interval = 3 * time.Second

	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("eventbus: new consumer group: %w", err)
	}

	c := NewKafkaConsumerWithGroup(group, topic, log)
	go func() {
		for err := range group.Errors() {
			c.log.Errorf("eventbus: consumer group error: %v", err)
		}
	}()
	return c, nil
}

// NewKafkaConsumerWithGroup injects an already-constructed group,
// letting tests supply a fake SaramaConsumerGroup.
func NewKafkaConsumerWithGroup(group SaramaConsumerGroup, topic string, log *logger.Logger) *KafkaConsumer {
	return &KafkaConsumer{group: group, topic: topic, log: log}
}

// Start joins the topic and processes claims until Close is called.
// Consume blocks for the duration of a session, so it runs in its own
// goroutine and rejoins automatically on a non-fatal error.
func (c *KafkaConsumer) Start(handler CommandHandler) error {
	c.handler = handler

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	go func() {
		defer cancel()
		for {
			if err := c.group.Consume(ctx, []string{c.topic}, c); err != nil {
				c.log.Errorf("eventbus: consume error: %v", err)
				if ctx.Err() != nil {
					return
				}
				time.Sleep(time.Second)
			}
		}
	}()
	return nil
}

func (c *KafkaConsumer) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.group != nil {
		return c.group.Close()
	}
	return nil
}

func (c *KafkaConsumer) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (c *KafkaConsumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim decodes every message on the claim as a Command and
// hands it to the registered handler, marking each message regardless
// of decode success so a malformed command cannot block the
// partition forever.
func (c *KafkaConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var cmd Command
		if err := json.Unmarshal(msg.Value, &cmd); err != nil {
			c.log.Errorf("eventbus: unmarshal command: %v", err)
			session.MarkMessage(msg, "")
			continue
		}
		c.handler(&cmd)
		session.MarkMessage(msg, "")
	}
	return nil
}
