// Package kafka publishes settlement events for downstream consumers
// (reconciliation, reporting). Publishing is best-effort: a failed publish
// is logged, never surfaced to the boarding flow.
package kafka

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/campustransit/farebeacon/internal/domain/interfaces"
	"github.com/campustransit/farebeacon/pkg/config"
)

type Publisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

var _ interfaces.EventPublisher = (*Publisher)(nil)

func NewPublisher(cfg config.KafkaConfig, logger zerolog.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.Topic,
			Balancer: &kafka.LeastBytes{},
		},
		logger: logger,
	}
}

func (p *Publisher) Publish(ctx context.Context, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Value: data,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
