package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/food_order/internal/mykafka"
	"github.com/Skotchmaster/food_order/pkg/logging"
)

const OrderEventsTopic = "order_events"

// Publisher sends order events to subscribers, local or remote.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type KafkaPublisher struct {
	producer *mykafka.Producer
}

func NewKafkaPublisher(producer *mykafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	return p.producer.PublishEvent(ctx, OrderEventsTopic, e.OrderID.String(), e)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer feeds order_events into a hub. Every instance reads in its own group so each one sees every event.
type Consumer struct {
	reader messageReader
	hub    *Hub
}

// GroupID is stable per instance so a restart resumes the same group.
func GroupID(instanceID string) string {
	return "food_order-realtime-" + instanceID
}

func NewConsumer(hub *Hub, instanceID string, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       OrderEventsTopic,
		GroupID:     GroupID(instanceID),
		StartOffset: kafka.LastOffset,
		MaxBytes:    10e6,
	})
	return &Consumer{reader: reader, hub: hub}
}

func (c *Consumer) Run(ctx context.Context) {
	l := logging.FromContext(ctx).With("component", "realtime.consumer")

	for {
		if ctx.Err() != nil {
			return
		}

		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return
			}
			l.Error("read_message_failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		var e Event
		if err := json.Unmarshal(m.Value, &e); err != nil {
			l.Warn("parse_message_failed", "offset", m.Offset, "error", err)
			continue
		}
		_ = c.hub.Publish(ctx, e)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
