package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/provinspector-io/provinspector/internal/ingestion"
)

// Kafka configuration errors.
var (
	ErrNoBrokers = errors.New("at least one broker address is required")
	ErrNoTopic   = errors.New("topic is required")
	ErrNoGroupID = errors.New("consumer group id is required")
)

// KafkaConfig describes the topic the debugger publishes debug steps to,
// one JSON-encoded step per message.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Validate checks the configuration is complete.
func (c KafkaConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return ErrNoBrokers
	}

	if c.Topic == "" {
		return ErrNoTopic
	}

	if c.GroupID == "" {
		return ErrNoGroupID
	}

	return nil
}

// messageReader is the subset of kafka.Reader the source consumes through.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaSource consumes debug steps from a Kafka topic. Offsets are committed
// as messages are read, so a restarted consumer group resumes where it left
// off.
type KafkaSource struct {
	reader messageReader
	logger *slog.Logger
}

// NewKafkaSource builds a consumer for the configured topic. A nil logger
// falls back to slog.Default.
func NewKafkaSource(cfg KafkaConfig, logger *slog.Logger) (*KafkaSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})

	return &KafkaSource{reader: reader, logger: logger}, nil
}

// Run consumes messages until the context is canceled or the reader is
// closed, decoding each into a debug step and handing it to the sink.
// Undecodable messages and rejected events are logged and skipped.
func (s *KafkaSource) Run(ctx context.Context, sink Sink) error {
	for {
		msg, err := s.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				s.logger.Info("stream consumer stopped")

				return nil
			}

			return fmt.Errorf("read message: %w", err)
		}

		step, err := ingestion.DecodeDebugStep(msg.Value)
		if err != nil {
			s.logger.Error("skipping undecodable event",
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
			)

			continue
		}

		if err := sink.Update(ctx, step); err != nil {
			s.logger.Error("event rejected",
				slog.String("step_id", step.ID),
				slog.String("error", err.Error()),
			)

			continue
		}

		s.logger.Debug("event applied",
			slog.String("step_id", step.ID),
			slog.Int64("offset", msg.Offset),
		)
	}
}

// Close releases the underlying reader, unblocking a concurrent Run.
func (s *KafkaSource) Close() error {
	return s.reader.Close()
}
