package escalate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"tailtrace/internal/research/models"
)

// KafkaSink publishes escalation requests to a review topic. Produce is
// asynchronous; delivery failures are logged, never surfaced to the run.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("build kafka client: %w", err)
	}
	return &KafkaSink{client: client, topic: topic, logger: logger}, nil
}

func (s *KafkaSink) Publish(ctx context.Context, req models.EscalationRequest) error {
	value, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode escalation request: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(req.Tail),
		Value: value,
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil && s.logger != nil {
			s.logger.Error("escalation publish failed",
				"run_id", req.RunID,
				"tail", req.Tail,
				"error", err,
			)
		}
	})
	return nil
}

// Close flushes pending records and releases the client.
func (s *KafkaSink) Close(ctx context.Context) error {
	if err := s.client.Flush(ctx); err != nil {
		return fmt.Errorf("flush escalation records: %w", err)
	}
	s.client.Close()
	return nil
}
