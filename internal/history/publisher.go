// Package history publishes search-history events to Kafka for downstream
// consumers (query-history storage, analytics). Publishing is best effort:
// a failed publish is logged and dropped, never surfaced to the search
// caller.
package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// SearchCompletedEvent is emitted after every successful search.
type SearchCompletedEvent struct {
	SearchID         string    `json:"search_id"`
	Query            string    `json:"query"`
	ResultCount      int       `json:"result_count"`
	Ranked           bool      `json:"ranked"`
	UsedFallbackPlan bool      `json:"used_fallback_plan"`
	CompletedAt      time.Time `json:"completed_at"`
}

// messageWriter is the subset of kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config holds configuration for the history publisher.
type Config struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the Kafka topic for search-history events.
	Topic string
	// BatchSize is the maximum number of messages to batch before sending.
	BatchSize int
	// BatchTimeout is the maximum time to wait for a batch to fill.
	BatchTimeout time.Duration
	// WriteTimeout bounds each publish call.
	WriteTimeout time.Duration
}

// applyDefaults fills in zero values with defaults.
func (c *Config) applyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 10 * time.Millisecond
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
}

// Publisher publishes search-history events to Kafka.
type Publisher struct {
	writer       messageWriter
	writeTimeout time.Duration
	logger       zerolog.Logger
}

// NewPublisher creates a history publisher backed by a Kafka writer.
func NewPublisher(cfg Config, logger zerolog.Logger) *Publisher {
	cfg.applyDefaults()

	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
	})

	return newPublisher(writer, cfg, logger)
}

// newPublisher wires a publisher around any messageWriter.
func newPublisher(writer messageWriter, cfg Config, logger zerolog.Logger) *Publisher {
	cfg.applyDefaults()

	return &Publisher{
		writer:       writer,
		writeTimeout: cfg.WriteTimeout,
		logger:       logger.With().Str("component", "history_publisher").Logger(),
	}
}

// Publish sends one search-completed event. Failures are logged and
// dropped; history is not worth failing a search over.
func (p *Publisher) Publish(ctx context.Context, event SearchCompletedEvent) {
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("search_id", event.SearchID).
			Msg("failed to marshal search history event")
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.SearchID),
		Value: value,
	}

	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		p.logger.Warn().Err(err).Str("search_id", event.SearchID).
			Msg("failed to publish search history event")
		return
	}

	p.logger.Debug().Str("search_id", event.SearchID).
		Int("result_count", event.ResultCount).
		Msg("published search history event")
}

// Close closes the underlying Kafka writer.
func (p *Publisher) Close() error {
	p.logger.Info().Msg("closing history publisher")
	return p.writer.Close()
}
