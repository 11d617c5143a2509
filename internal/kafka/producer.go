package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"ms-excursions/internal/models"

	"github.com/segmentio/kafka-go"
)

const (
	TopicSaleRecorded   = "sale-recorded"
	TopicRefundRecorded = "refund-recorded"
	TopicDayClosed      = "day-closed"
	TopicSeasonApplied  = "season-applied"
	TopicCardPayment    = "card-payment-recorded"
)

type Producer struct {
	Writer *kafka.Writer
}

// NewProducer returns a producer that routes by message topic, so one
// writer serves all four event streams.
func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer}
}

func (p *Producer) publish(topic, key string, payload interface{}) error {
	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

// PublishSaleRecorded streams a recorded sale to downstream consumers.
func (p *Producer) PublishSaleRecorded(result models.SaleResult) error {
	return p.publish(TopicSaleRecorded, strconv.FormatInt(result.Presale.ID, 10), result)
}

// PublishRefundRecorded streams a recorded refund.
func (p *Producer) PublishRefundRecorded(result models.RefundResult) error {
	key := strconv.FormatInt(result.Entry.ID, 10)
	return p.publish(TopicRefundRecorded, key, result)
}

// PublishDayClosed announces a shift closure; the season worker folds
// the day on receipt.
func (p *Producer) PublishDayClosed(closure models.ShiftClosure) error {
	return p.publish(TopicDayClosed, closure.BusinessDay, closure)
}

// PublishSeasonApplied reports one aggregation run.
func (p *Producer) PublishSeasonApplied(day string, seasonID int, applied, skipped int) error {
	payload := map[string]interface{}{
		"business_day": day,
		"season_id":    seasonID,
		"applied":      applied,
		"skipped":      skipped,
	}
	return p.publish(TopicSeasonApplied, fmt.Sprintf("%d:%s", seasonID, day), payload)
}

// PublishCardPayment streams the outcome of a card charge or refund.
func (p *Producer) PublishCardPayment(payment *models.Payment) error {
	return p.publish(TopicCardPayment, payment.PaymentID, payment)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
