package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Message metadata keys.
const (
	MetaEventType  = "event_type"
	MetaEntity     = "entity"
	MetaEntityID   = "entity_id"
	MetaSource     = "source"
	MetaVersion    = "version"
	MetaOccurredAt = "occurred_at"
)

// EventPublisher sends domain events. Callers treat failures as non-fatal.
type EventPublisher interface {
	Publish(ctx context.Context, event *DomainEvent) error
	Close() error
}

// BrokerPublisher publishes events as JSON messages on a watermill publisher.
type BrokerPublisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

func NewBrokerPublisher(publisher message.Publisher, topic string, logger *slog.Logger) *BrokerPublisher {
	return &BrokerPublisher{publisher: publisher, topic: topic, logger: logger}
}

// KafkaConfig selects the brokers and topic of entity change events.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// NewKafkaPublisher partitions by entity key, so the changes of one row stay
// ordered.
func NewKafkaPublisher(cfg KafkaConfig, logger *slog.Logger) (*BrokerPublisher, error) {
	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.Brokers,
		Marshaler: kafka.NewWithPartitioningMarshaler(partitionKey),
	}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}
	return NewBrokerPublisher(publisher, cfg.Topic, logger), nil
}

func partitionKey(_ string, msg *message.Message) (string, error) {
	return msg.Metadata.Get(MetaEntity) + "/" + msg.Metadata.Get(MetaEntityID), nil
}

// ToMessage encodes event with its routing metadata.
func ToMessage(ctx context.Context, event *DomainEvent) (*message.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal domain event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetaEventType, string(event.Type))
	msg.Metadata.Set(MetaSource, event.Source)
	msg.Metadata.Set(MetaVersion, event.Version)
	msg.Metadata.Set(MetaOccurredAt, event.Timestamp.Format(time.RFC3339))
	if change, ok := event.Data.(EntityChangedEvent); ok {
		msg.Metadata.Set(MetaEntity, change.Entity)
		msg.Metadata.Set(MetaEntityID, change.EntityID)
	}
	return msg, nil
}

func (p *BrokerPublisher) Publish(ctx context.Context, event *DomainEvent) error {
	msg, err := ToMessage(ctx, event)
	if err != nil {
		return err
	}
	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	p.logger.DebugContext(ctx, "Published domain event", "event_id", event.ID, "event_type", event.Type, "topic", p.topic)
	return nil
}

func (p *BrokerPublisher) Close() error {
	return p.publisher.Close()
}

// MemoryPublisher keeps events in process. It backs disabled event publishing
// and tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []DomainEvent
	logger *slog.Logger
}

func NewMemoryPublisher(logger *slog.Logger) *MemoryPublisher {
	return &MemoryPublisher{logger: logger}
}

func (m *MemoryPublisher) Publish(ctx context.Context, event *DomainEvent) error {
	m.mu.Lock()
	m.events = append(m.events, *event)
	m.mu.Unlock()

	m.logger.DebugContext(ctx, "Recorded domain event", "event_id", event.ID, "event_type", event.Type)
	return nil
}

func (m *MemoryPublisher) Close() error { return nil }

// Events returns a copy of everything published so far.
func (m *MemoryPublisher) Events() []DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]DomainEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Reset forgets the recorded events.
func (m *MemoryPublisher) Reset() {
	m.mu.Lock()
	m.events = nil
	m.mu.Unlock()
}
