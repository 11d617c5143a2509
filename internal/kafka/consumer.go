package kafka

import (
	"context"
	"encoding/json"
	"log"

	"ms-excursions/internal/models"

	"github.com/segmentio/kafka-go"
)

// messageReader is the slice of kafka.Reader the consumer uses. Offsets
// are committed explicitly, after the handler succeeds.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader messageReader
}

// NewConsumer creates a Kafka consumer for the given topic and group.
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader}
}

// ConsumeDayClosed delivers shift closures to the handler until ctx is
// cancelled. The offset is committed only after the handler succeeds, so
// an unprocessed closure is redelivered when the group restarts or
// rebalances. Unparseable payloads are committed and skipped.
func (c *Consumer) ConsumeDayClosed(ctx context.Context, handler func(closure models.ShiftClosure) error) {
	log.Println("day-closed consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("error fetching message: %v", err)
			continue
		}

		var closure models.ShiftClosure
		if err := json.Unmarshal(msg.Value, &closure); err != nil {
			log.Printf("failed to unmarshal closure event: %v", err)
			c.commit(ctx, msg)
			continue
		}

		if err := handler(closure); err != nil {
			log.Printf("day-closed handler failed for %s: %v", closure.BusinessDay, err)
			continue
		}
		c.commit(ctx, msg)
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		log.Printf("failed to commit offset %d: %v", msg.Offset, err)
	}
}

// Close gracefully shuts down the Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
