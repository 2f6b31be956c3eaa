// Package kafka publishes order lifecycle events for downstream services
// (notifications, analytics, account onboarding).
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
)

// Topics groups the streams this service writes to.
type Topics struct {
	OrderReceived string
	OrderPaid     string
	AccountInvite string
}

// Producer writes JSON messages keyed by entity id. Each topic gets its
// own writer so per-topic batching stays independent.
type Producer struct {
	writers map[string]*kafka.Writer
	topics  Topics
	log     *logger.Logger
}

func NewProducer(brokers []string, topics Topics, log *logger.Logger) *Producer {
	writers := make(map[string]*kafka.Writer)
	for _, topic := range []string{topics.OrderReceived, topics.OrderPaid, topics.AccountInvite} {
		writers[topic] = kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   topic,
		})
	}
	return &Producer{writers: writers, topics: topics, log: log}
}

// Close flushes and closes all writers.
func (p *Producer) Close() error {
	var firstErr error
	for _, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *Producer) publish(ctx context.Context, topic, key string, payload interface{}) error {
	w, ok := p.writers[topic]
	if !ok {
		return fmt.Errorf("no writer for topic %s", topic)
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message for %s: %w", topic, err)
	}
	if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value}); err != nil {
		return fmt.Errorf("write to %s: %w", topic, err)
	}
	p.log.Info("KAFKA", fmt.Sprintf("published to %s key=%s", topic, key))
	return nil
}

// OrderReceived announces a newly placed order.
func (p *Producer) OrderReceived(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, p.topics.OrderReceived, order.ID, order)
}

// OrderPaid announces a confirmed payment. Consumers send receipts and
// prompt the buyer to fill ticket details.
func (p *Producer) OrderPaid(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, p.topics.OrderPaid, order.ID, order)
}

// AccountInvite asks the account service to invite an auto-created buyer
// to finish setting up their account.
func (p *Producer) AccountInvite(ctx context.Context, user *models.User) error {
	return p.publish(ctx, p.topics.AccountInvite, user.ID, user)
}
