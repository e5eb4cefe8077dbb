package eventbus

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/libmcu/ocpp-session-core/internal/events"
	"github.com/libmcu/ocpp-session-core/internal/logger"
)

// KafkaProducer publishes domain events asynchronously, keyed by
// charge point id so every event for one session lands in the same
// partition and downstream consumers see them in order.
type KafkaProducer struct {
	producer sarama.AsyncProducer
	topic    string
	log      *logger.Logger
}

// NewKafkaProducer dials brokers and starts the background goroutines
// that drain the producer's success/error channels.
func NewKafkaProducer(brokers []string, topic string, log *logger.Logger) (*KafkaProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Flush.Frequency = 500 * time.Millisecond
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("eventbus: new async producer: %w", err)
	}

	p := &KafkaProducer{producer: producer, topic: topic, log: log}
	go p.handleSuccesses()
	go p.handleErrors()
	return p, nil
}

// PublishEvent serializes event to JSON and enqueues it for delivery.
// It returns as soon as the message is handed to the producer's input
// channel, not once it is actually acknowledged by the broker.
func (p *KafkaProducer) PublishEvent(event events.Event) error {
	data, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("eventbus: marshal event: %w", err)
	}
	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.GetChargePointID()),
		Value: sarama.ByteEncoder(data),
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("eventbus: close producer: %w", err)
	}
	return nil
}

func (p *KafkaProducer) handleSuccesses() {
	for msg := range p.producer.Successes() {
		if p.log != nil {
			p.log.Debugf("eventbus: delivered event to %s (key=%s)", msg.Topic, msg.Key)
		}
	}
}

func (p *KafkaProducer) handleErrors() {
	for err := range p.producer.Errors() {
		if p.log != nil {
			p.log.ErrorWithErr(err.Err, fmt.Sprintf("eventbus: failed to deliver event to %s", err.Msg.Topic))
		}
	}
}
