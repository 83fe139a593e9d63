package config

import (
	"log/slog"
	"strings"

	"github.com/maritime-school/training-admin/internal/events"
)

// Event sinks accepted in EVENTS_PUBLISHER.
const (
	EventSinkKafka  = "kafka"
	EventSinkMemory = "memory"
)

// EventConfig controls where entity change events go.
type EventConfig struct {
	Enabled bool
	// Sink is kafka or memory. "mock" is read as memory.
	Sink         string
	KafkaBrokers string
	Topic        string
}

// Brokers splits KAFKA_BROKERS, ignoring blanks.
func (c *EventConfig) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// CreateEventPublisher returns the in-memory publisher unless events are
// enabled with the kafka sink.
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	sink := strings.ToLower(strings.TrimSpace(c.Sink))
	if !c.Enabled || sink != EventSinkKafka {
		if c.Enabled && sink != EventSinkMemory && sink != "mock" {
			logger.Warn("Unknown event sink, keeping events in memory", "sink", c.Sink)
		}
		return events.NewMemoryPublisher(logger), nil
	}

	logger.Info("Publishing entity changes to Kafka", "brokers", c.Brokers(), "topic", c.Topic)
	return events.NewKafkaPublisher(events.KafkaConfig{Brokers: c.Brokers(), Topic: c.Topic}, logger)
}
