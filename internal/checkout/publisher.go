package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const OrdersTopic = "storefront-orders"

type OrderPlacedEvent struct {
	OrderID      string       `json:"order_id"`
	ShopperID    string       `json:"shopper_id"`
	CustomerName string       `json:"customer_name"`
	Email        string       `json:"email"`
	Cart         CartSnapshot `json:"cart"`
	PlacedAt     time.Time    `json:"placed_at"`
}

type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event OrderPlacedEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  OrdersTopic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, event OrderPlacedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher records order events in the log when no broker is configured.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) PublishOrderPlaced(_ context.Context, event OrderPlacedEvent) error {
	p.log.Info("order placed",
		zap.String("order_id", event.OrderID),
		zap.String("shopper_id", event.ShopperID),
		zap.Int("items", len(event.Cart.Items)),
		zap.String("total", event.Cart.TotalAmount.StringFixed(2)))
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
