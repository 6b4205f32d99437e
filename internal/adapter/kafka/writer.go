package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/pota-spot-hunter/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes enriched spots to a Kafka topic.
// It implements pipeline.SpotPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the given brokers and topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishSpots serializes and publishes the run's enriched spots in a single
// WriteMessages call. Spots are keyed by activator so one operator's spots
// land on the same partition.
func (w *Writer) PublishSpots(ctx context.Context, spots []domain.EnrichedSpot, publishedAt time.Time) error {
	if len(spots) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(spots))
	for i := range spots {
		msg, err := serializeToMessage(spots[i], publishedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish spots: %w", err)
	}
	w.logger.Debug("spots published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an EnrichedSpot into a Kafka message.
func serializeToMessage(spot domain.EnrichedSpot, publishedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(spot)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize spot %d: %w", spot.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(spot.Activator),
		Value: data,
		Time:  spot.SpotTime,
		Headers: []kafkago.Header{
			{Key: "spot_id", Value: []byte(strconv.FormatInt(spot.ID, 10))},
			{Key: "location", Value: []byte(spot.Location)},
			{Key: "mode", Value: []byte(spot.Mode)},
			{Key: "published_at", Value: []byte(publishedAt.Format(time.RFC3339))},
		},
	}, nil
}
