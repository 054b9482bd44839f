// Package messaging provides an optional asynchronous ingestion path:
// a Kafka consumer that feeds submitted transactions into the
// Transaction Screener, and a producer that publishes screening results
// and sanction hits for downstream consumers.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ledgerwatch/btc-sanctions/internal/domain"
)

// KafkaConfig holds broker/topic configuration shared by the consumer
// and producer.
type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string
	Topics        KafkaTopicsConfig
}

// KafkaTopicsConfig holds the topic names this service reads from and
// writes to.
type KafkaTopicsConfig struct {
	TransactionsSubmitted string
	ScreeningCompleted    string
	SanctionsHit          string
}

// KafkaConsumer reads TransactionSubmitted events and hands each one to
// a handler for screening.
type KafkaConsumer struct {
	reader *kafka.Reader
	logger *zap.Logger
}

// NewKafkaConsumer builds a KafkaConsumer subscribed to the transactions
// topic.
func NewKafkaConsumer(cfg KafkaConfig, logger *zap.Logger) (*KafkaConsumer, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topics.TransactionsSubmitted,
		GroupID:        cfg.ConsumerGroup,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: 1 * time.Second,
	})

	logger.Info("kafka consumer initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topics.TransactionsSubmitted),
		zap.String("consumerGroup", cfg.ConsumerGroup))

	return &KafkaConsumer{reader: reader, logger: logger}, nil
}

// TransactionSubmittedEvent is the wire shape of a submitted-for-screening
// notification.
type TransactionSubmittedEvent struct {
	TxHash        string           `json:"txHash"`
	Direction     domain.Direction `json:"direction"`
	CorrelationID string           `json:"correlationId"`
}

// Consume reads events until ctx is canceled, invoking handler for each
// one. A message that fails to parse is committed (and dropped) so it is
// not retried forever; a message whose handler returns an error is left
// uncommitted so the broker redelivers it.
func (c *KafkaConsumer) Consume(ctx context.Context, handler func(context.Context, TransactionSubmittedEvent) error) error {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("kafka consumer stopping")
			return ctx.Err()
		default:
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("fetch message failed", zap.Error(err))
			continue
		}

		var event TransactionSubmittedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Warn("invalid transaction-submitted message", zap.Error(err))
			if cerr := c.reader.CommitMessages(ctx, msg); cerr != nil {
				c.logger.Error("commit failed", zap.Error(cerr))
			}
			continue
		}

		if err := handler(ctx, event); err != nil {
			c.logger.Error("handler failed, message will be redelivered",
				zap.String("txHash", event.TxHash), zap.Error(err))
			continue
		}

		if cerr := c.reader.CommitMessages(ctx, msg); cerr != nil {
			c.logger.Error("commit failed", zap.Error(cerr))
		}
	}
}

// Close releases the underlying reader.
func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}

// KafkaProducerConfig configures a KafkaProducer.
type KafkaProducerConfig struct {
	Brokers      []string
	RequiredAcks string
	RetryMax     int
}

// KafkaProducer publishes screening-completed and sanctions-hit events,
// keeping one writer per topic.
type KafkaProducer struct {
	brokers      []string
	requiredAcks kafka.RequiredAcks
	logger       *zap.Logger
	writers      map[string]*kafka.Writer
}

// NewKafkaProducer builds a KafkaProducer.
func NewKafkaProducer(cfg KafkaProducerConfig, logger *zap.Logger) (*KafkaProducer, error) {
	var acks kafka.RequiredAcks
	switch cfg.RequiredAcks {
	case "all", "-1":
		acks = kafka.RequireAll
	case "1":
		acks = kafka.RequireOne
	case "0":
		acks = kafka.RequireNone
	default:
		acks = kafka.RequireAll
	}

	logger.Info("kafka producer initialized",
		zap.Strings("brokers", cfg.Brokers), zap.String("requiredAcks", cfg.RequiredAcks))

	return &KafkaProducer{
		brokers:      cfg.Brokers,
		requiredAcks: acks,
		logger:       logger,
		writers:      make(map[string]*kafka.Writer),
	}, nil
}

func (p *KafkaProducer) writerFor(topic string) *kafka.Writer {
	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: p.requiredAcks,
		Async:        false,
	}
	p.writers[topic] = w
	return w
}

// Send marshals payload as JSON and publishes it to topic keyed by key.
func (p *KafkaProducer) Send(ctx context.Context, topic, key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal kafka payload: %w", err)
	}
	writer := p.writerFor(topic)
	msg := kafka.Message{Key: []byte(key), Value: value, Time: time.Now()}
	if err := writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("send kafka message to %s: %w", topic, err)
	}
	return nil
}

// Close closes every writer this producer has opened.
func (p *KafkaProducer) Close() error {
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			p.logger.Error("close writer failed", zap.String("topic", topic), zap.Error(err))
		}
	}
	return nil
}
