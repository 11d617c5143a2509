package shift

import (
	"context"
	"fmt"
	"time"

	"ms-excursions/internal/logger"
	"ms-excursions/internal/models"
	"ms-excursions/internal/utils"
)

type DBLayer interface {
	InsertClosure(ctx context.Context, closure *models.ShiftClosure) (bool, error)
	GetClosure(ctx context.Context, day string) (*models.ShiftClosure, error)
	IsClosed(ctx context.Context, day string) (bool, error)
}

type Publisher interface {
	PublishDayClosed(closure models.ShiftClosure) error
}

// Service drives the per-day OPEN -> CLOSED state machine. CLOSED is
// terminal; after it the ledger accepts only forward-dated reversals
// for that day.
type Service struct {
	DB     DBLayer
	Kafka  Publisher
	Logger *logger.Logger
}

func NewService(db DBLayer, kafka Publisher, log *logger.Logger) *Service {
	return &Service{DB: db, Kafka: kafka, Logger: log}
}

// Close locks the business day. A second close of the same day returns
// AlreadyClosedError; the original closure row stands untouched.
func (s *Service) Close(ctx context.Context, day, actor string) (*models.ShiftClosure, error) {
	if !utils.ValidBusinessDay(day) {
		return nil, &models.ValidationError{Field: "business_day", Reason: fmt.Sprintf("malformed business day %q", day)}
	}

	closure := &models.ShiftClosure{
		BusinessDay: day,
		ClosedAt:    time.Now().UTC(),
		ClosedBy:    actor,
	}
	inserted, err := s.DB.InsertClosure(ctx, closure)
	if err != nil {
		return nil, fmt.Errorf("close day %s: %w", day, err)
	}
	if !inserted {
		return nil, &models.AlreadyClosedError{BusinessDay: day}
	}

	s.Logger.LogShift("CLOSE", day, fmt.Sprintf("closed by %s", actor))
	if s.Kafka != nil {
		if err := s.Kafka.PublishDayClosed(*closure); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("day-closed publish failed for %s: %v", day, err))
		}
	}
	return closure, nil
}

func (s *Service) IsClosed(ctx context.Context, day string) (bool, error) {
	return s.DB.IsClosed(ctx, day)
}

func (s *Service) GetClosure(ctx context.Context, day string) (*models.ShiftClosure, error) {
	return s.DB.GetClosure(ctx, day)
}
