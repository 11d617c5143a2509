package inventory

import (
	"context"
	"fmt"

	"ms-excursions/internal/logger"
	"ms-excursions/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type DBLayer interface {
	CreateSlot(ctx context.Context, slot *models.Slot) error
	GetSlotByUID(ctx context.Context, uid string) (*models.Slot, error)
	GetSlotForUpdate(ctx context.Context, idb bun.IDB, uid string) (*models.Slot, error)
	CountActiveSeats(ctx context.Context, idb bun.IDB, slotUID string) (int, error)
	InsertPresale(ctx context.Context, idb bun.IDB, presale *models.Presale) error
	InsertTickets(ctx context.Context, idb bun.IDB, tickets []models.Ticket) error
	GetPresaleByID(ctx context.Context, id int64) (*models.Presale, error)
	TicketsByPresale(ctx context.Context, presaleID int64) ([]models.Ticket, error)
	CancelTickets(ctx context.Context, idb bun.IDB, presaleID int64, n int) (int, error)
	SetTicketQR(ctx context.Context, ticketID int64, qr []byte) error
}

// SeatCache materializes derived seat counts. It is the only place a
// seat count is ever stored, and it is dropped on every ticket status
// transition.
type SeatCache interface {
	Get(ctx context.Context, slotUID string) (int, bool, error)
	Set(ctx context.Context, slotUID string, seats int) error
	Invalidate(ctx context.Context, slotUID string) error
}

// Service derives remaining seats for bookable slots. Availability is
// always capacity minus active tickets, recomputed from ticket state.
type Service struct {
	DB     DBLayer
	Bun    bun.IDB
	Cache  SeatCache
	Logger *logger.Logger
}

func NewService(db DBLayer, idb bun.IDB, cache SeatCache, log *logger.Logger) *Service {
	return &Service{DB: db, Bun: idb, Cache: cache, Logger: log}
}

// AvailableSeats returns capacity minus the active ticket count,
// serving from the cache when a fresh value exists.
func (s *Service) AvailableSeats(ctx context.Context, slotUID string) (int, error) {
	if s.Cache != nil {
		if seats, ok, err := s.Cache.Get(ctx, slotUID); err == nil && ok {
			return seats, nil
		}
	}

	slot, err := s.DB.GetSlotByUID(ctx, slotUID)
	if err != nil {
		return 0, err
	}
	seats, err := s.availableIn(ctx, s.Bun, slot)
	if err != nil {
		return 0, err
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, slotUID, seats); err != nil {
			s.Logger.Warn("INVENTORY", fmt.Sprintf("seat cache set failed for %s: %v", slotUID, err))
		}
	}
	return seats, nil
}

func (s *Service) availableIn(ctx context.Context, idb bun.IDB, slot *models.Slot) (int, error) {
	active, err := s.DB.CountActiveSeats(ctx, idb, slot.UID)
	if err != nil {
		return 0, err
	}
	seats := slot.Capacity - active
	if seats < 0 {
		// Capacity shrank under existing sales; report zero rather than
		// a negative seat count.
		seats = 0
	}
	return seats, nil
}

// ReserveIn checks capacity and inserts the presale with its tickets
// using the caller's transaction. The slot row is read with a row lock,
// so the active-seat count each reservation sees already includes every
// reservation that committed before it.
func (s *Service) ReserveIn(ctx context.Context, idb bun.IDB, presale *models.Presale, seats int, seatPrice int64, status models.TicketStatus) ([]models.Ticket, error) {
	if status == "" {
		status = models.TicketReserved
	}
	if seats <= 0 {
		return nil, &models.ValidationError{Field: "seats", Reason: "seat count must be positive"}
	}

	slot, err := s.DB.GetSlotForUpdate(ctx, idb, presale.SlotUID)
	if err != nil {
		return nil, err
	}
	if !slot.IsActive {
		return nil, &models.ValidationError{Field: "slot_uid", Reason: fmt.Sprintf("slot %s is not bookable", slot.UID)}
	}

	available, err := s.availableIn(ctx, idb, slot)
	if err != nil {
		return nil, err
	}
	if seats > available {
		return nil, &models.CapacityExceededError{
			SlotUID:   slot.UID,
			Requested: seats,
			Available: available,
		}
	}

	if err := s.DB.InsertPresale(ctx, idb, presale); err != nil {
		return nil, fmt.Errorf("insert presale: %w", err)
	}

	tickets := make([]models.Ticket, seats)
	for i := range tickets {
		tickets[i] = models.Ticket{
			PresaleID: presale.ID,
			Status:    status,
			Price:     seatPrice,
			PublicRef: uuid.NewString(),
		}
	}
	if err := s.DB.InsertTickets(ctx, idb, tickets); err != nil {
		return nil, fmt.Errorf("insert tickets: %w", err)
	}
	return tickets, nil
}

// ReleaseIn cancels n seats of a presale inside the caller's transaction.
func (s *Service) ReleaseIn(ctx context.Context, idb bun.IDB, presaleID int64, n int) (int, error) {
	return s.DB.CancelTickets(ctx, idb, presaleID, n)
}

// InvalidateSeats drops the cached count after a ticket status change.
func (s *Service) InvalidateSeats(ctx context.Context, slotUID string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, slotUID); err != nil {
		s.Logger.Warn("INVENTORY", fmt.Sprintf("seat cache invalidation failed for %s: %v", slotUID, err))
	}
}
