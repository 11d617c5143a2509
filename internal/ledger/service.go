package ledger

import (
	"context"
	"fmt"

	"ms-excursions/internal/ledger/db"
	"ms-excursions/internal/logger"
	"ms-excursions/internal/models"
)

type DBLayer interface {
	Append(ctx context.Context, entry *models.LedgerEntry) (int64, error)
	Void(ctx context.Context, id int64) error
	GetEntryByID(ctx context.Context, id int64) (*models.LedgerEntry, error)
	SumByDimensions(ctx context.Context, f db.Filter) (int64, error)
	EntriesForDay(ctx context.Context, day string) ([]models.LedgerEntry, error)
}

// Service exposes the ledger write path and the read-side projections
// the reporting layer consumes. Every total is a pure sum over POSTED
// entries.
type Service struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{DB: db, Logger: log}
}

func (s *Service) Append(ctx context.Context, entry *models.LedgerEntry) (int64, error) {
	id, err := s.DB.Append(ctx, entry)
	if err != nil {
		return 0, err
	}
	s.Logger.LogLedger("APPEND", id, fmt.Sprintf("%s %s %d on %s", entry.Kind, entry.Type, entry.Amount, entry.BusinessDay))
	return id, nil
}

func (s *Service) Void(ctx context.Context, id int64) error {
	if err := s.DB.Void(ctx, id); err != nil {
		return err
	}
	s.Logger.LogLedger("VOID", id, "status flipped to VOID")
	return nil
}

func (s *Service) EntriesForDay(ctx context.Context, day string) ([]models.LedgerEntry, error) {
	return s.DB.EntriesForDay(ctx, day)
}

// CollectedTotal is the day's POSTED credit total (prepayments plus
// accepted sale amounts).
func (s *Service) CollectedTotal(ctx context.Context, day string) (int64, error) {
	return s.DB.SumByDimensions(ctx, db.Filter{
		BusinessDay: day,
		Types:       models.CreditTypes,
		Status:      models.StatusPosted,
	})
}

// RefundTotal is the day's reversed total as a positive number.
func (s *Service) RefundTotal(ctx context.Context, day string) (int64, error) {
	reversed, err := s.DB.SumByDimensions(ctx, db.Filter{
		BusinessDay: day,
		Types:       []models.EntryType{models.TypeSaleCancelReverse},
		Status:      models.StatusPosted,
	})
	if err != nil {
		return 0, err
	}
	return -reversed, nil
}

// NetTotal is the signed sum of every POSTED entry for the day, so
// CollectedTotal(day) - RefundTotal(day) == NetTotal(day) holds by
// construction.
func (s *Service) NetTotal(ctx context.Context, day string) (int64, error) {
	return s.DB.SumByDimensions(ctx, db.Filter{
		BusinessDay: day,
		Status:      models.StatusPosted,
	})
}

// MethodSplit breaks the day's net POSTED total down by payment method.
type MethodSplit struct {
	Cash  int64 `json:"cash"`
	Card  int64 `json:"card"`
	Mixed int64 `json:"mixed"`
}

func (s *Service) SplitByMethod(ctx context.Context, day string) (MethodSplit, error) {
	var split MethodSplit
	for _, m := range []struct {
		method models.PayMethod
		dst    *int64
	}{
		{models.MethodCash, &split.Cash},
		{models.MethodCard, &split.Card},
		{models.MethodMixed, &split.Mixed},
	} {
		total, err := s.DB.SumByDimensions(ctx, db.Filter{
			BusinessDay: day,
			Status:      models.StatusPosted,
			Method:      m.method,
		})
		if err != nil {
			return MethodSplit{}, err
		}
		*m.dst = total
	}
	return split, nil
}

// SellerDayNet is the seller's net POSTED total for one day, the figure
// the day-stats recompute folds into seller_day_stats.
func (s *Service) SellerDayNet(ctx context.Context, day string, sellerID int64) (int64, error) {
	return s.DB.SumByDimensions(ctx, db.Filter{
		BusinessDay: day,
		Status:      models.StatusPosted,
		Kind:        models.KindSellerShift,
		SellerID:    &sellerID,
	})
}
