// Package notify publishes order update notifications for downstream
// consumers such as the kitchen counter display. Delivery is best
// effort; callers treat every publish as fire-and-forget.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

type Broadcaster interface {
	Broadcast(ctx context.Context, topic, orderID string) error
	Close() error
}

type message struct {
	OrderID string `json:"order_id"`
}

type kafkaBroadcaster struct {
	writer *kafka.Writer
}

// NewKafka builds a broadcaster over the given brokers (comma
// separated). An empty broker list yields a no-op broadcaster.
func NewKafka(brokersCSV string) Broadcaster {
	var brokers []string
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}

	if len(brokers) == 0 {
		log.Info().Msg("notify: no brokers configured, broadcasts disabled")
		return noopBroadcaster{}
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}

	log.Info().Strs("brokers", brokers).Msg("notify: kafka broadcaster ready")

	return &kafkaBroadcaster{writer: writer}
}

func (b *kafkaBroadcaster) Broadcast(ctx context.Context, topic, orderID string) error {
	payload, err := json.Marshal(message{OrderID: orderID})
	if err != nil {
		return fmt.Errorf("notify: failed to marshal broadcast payload: %w", err)
	}

	err = b.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(orderID),
		Value: payload,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("notify: failed to publish to %q: %w", topic, err)
	}

	return nil
}

func (b *kafkaBroadcaster) Close() error {
	return b.writer.Close()
}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(ctx context.Context, topic, orderID string) error {
	return nil
}

func (noopBroadcaster) Close() error {
	return nil
}
