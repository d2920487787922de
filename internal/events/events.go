// Package events публикует примененные переходы заказов во внешнюю шину.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/iurnickita/clarsix/internal/events/config"
	"github.com/iurnickita/clarsix/internal/model"
)

// Transition - переход, подтвержденный сервером.
type Transition struct {
	OrderID    string            `json:"order_id"`
	Action     string            `json:"action"`
	From       model.OrderStatus `json:"from"`
	To         model.OrderStatus `json:"to"`
	Viewer     model.ID          `json:"viewer"`
	Role       string            `json:"role"`
	OccurredAt time.Time         `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, transition Transition) error
	Close() error
}

const defaultTopic = "order-transitions"

// NewPublisher возвращает публикацию в Kafka, если заданы брокеры, иначе заглушку.
func NewPublisher(cfg config.Config) Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return nopPublisher{}
	}
	topic := cfg.KafkaTopic
	if topic == "" {
		topic = defaultTopic
	}
	return &kafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(cfg.KafkaBrokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 5 * time.Second,
		},
	}
}

type kafkaPublisher struct {
	w *kafka.Writer
}

func (p *kafkaPublisher) Publish(ctx context.Context, transition Transition) error {
	value, err := json.Marshal(transition)
	if err != nil {
		return err
	}
	// ключ - id заказа, чтобы переходы одного заказа шли в одну партицию
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(transition.OrderID),
		Value: value,
		Time:  transition.OccurredAt,
	})
}

func (p *kafkaPublisher) Close() error {
	return p.w.Close()
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Transition) error { return nil }

func (nopPublisher) Close() error { return nil }
