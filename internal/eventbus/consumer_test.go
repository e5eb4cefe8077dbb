package eventbus

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libmcu/ocpp-session-core/internal/logger"
)

type fakeConsumerGroup struct{}

func (fakeConsumerGroup) Consume(ctx context.Context, topics []string, handler sarama.ConsumerGroupHandler) error {
	return nil
}
func (fakeConsumerGroup) Errors() <-chan error { return make(chan error) }
func (fakeConsumerGroup) Close() error         { return nil }

type fakeSession struct{ marked []*sarama.ConsumerMessage }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, metadata string) {
	s.marked = append(s.marked, msg)
}
func (s *fakeSession) Context() context.Context                                       { return context.Background() }
func (s *fakeSession) Claims() map[string][]int32                                     { return nil }
func (s *fakeSession) MemberID() string                                               { return "" }
func (s *fakeSession) GenerationID() int32                                            { return 0 }
func (s *fakeSession) MarkOffset(topic string, partition int32, offset int64, metadata string) {}
func (s *fakeSession) ResetOffset(topic string, partition int32, offset int64, metadata string) {}
func (s *fakeSession) Commit()                                                        {}

type fakeClaim struct {
	ch chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.ch }
func (c *fakeClaim) Partition() int32                          { return 0 }
func (c *fakeClaim) Topic() string                             { return "commands" }
func (c *fakeClaim) InitialOffset() int64                      { return 0 }
func (c *fakeClaim) HighWaterMarkOffset() int64                { return 0 }

func TestKafkaConsumer_ConsumeClaim(t *testing.T) {
	log, err := logger.New(logger.DefaultConfig())
	require.NoError(t, err)

	var received []*Command
	c := NewKafkaConsumerWithGroup(fakeConsumerGroup{}, "commands", log)
	c.handler = func(cmd *Command) { received = append(received, cmd) }

	claim := &fakeClaim{ch: make(chan *sarama.ConsumerMessage, 2)}
	good, _ := json.Marshal(Command{ChargePointID: "CP001", Action: "RemoteStartTransaction"})
	claim.ch <- &sarama.ConsumerMessage{Value: good}
	claim.ch <- &sarama.ConsumerMessage{Value: []byte("not json")}
	close(claim.ch)

	session := &fakeSession{}
	require.NoError(t, c.ConsumeClaim(session, claim))

	require.Len(t, received, 1)
	assert.Equal(t, "CP001", received[0].ChargePointID)
	assert.Len(t, session.marked, 2, "both messages are marked, including the malformed one")
}
