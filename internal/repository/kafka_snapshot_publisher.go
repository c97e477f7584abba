package repository

import (
	"context"

	"StockDash/internal/domain/models"
	domrepo "StockDash/internal/domain/repository"
	pkgkafka "StockDash/pkg/kafka"
)

// KafkaSnapshotPublisher publishes dashboard snapshots keyed by symbol.
type KafkaSnapshotPublisher struct {
	p     *pkgkafka.Producer
	topic string
}

var _ domrepo.SnapshotPublisher = (*KafkaSnapshotPublisher)(nil)

func NewKafkaSnapshotPublisher(p *pkgkafka.Producer, topic string) *KafkaSnapshotPublisher {
	return &KafkaSnapshotPublisher{p: p, topic: topic}
}

func (k *KafkaSnapshotPublisher) Publish(ctx context.Context, s *models.Snapshot) error {
	return k.p.Publish(ctx, k.topic, []byte(s.Symbol), s)
}

func (k *KafkaSnapshotPublisher) Close() error {
	return k.p.Close()
}

// NopPublisher drops snapshots. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.Snapshot) error { return nil }
func (NopPublisher) Close() error                                    { return nil }
