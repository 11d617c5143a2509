package sales

import (
	"context"
	"fmt"
	"time"

	"ms-excursions/internal/database"
	"ms-excursions/internal/inventory"
	"ms-excursions/internal/logger"
	"ms-excursions/internal/models"
	"ms-excursions/internal/utils"

	"github.com/uptrace/bun"
)

// LedgerStore is the slice of the ledger write path a sale needs: an
// append that joins the caller's transaction, and the presale's posted
// balance for bounding refunds.
type LedgerStore interface {
	AppendIn(ctx context.Context, idb bun.IDB, entry *models.LedgerEntry) (int64, error)
	SumForPresale(ctx context.Context, idb bun.IDB, presaleID int64) (int64, error)
}

type PresaleStore interface {
	GetPresaleByID(ctx context.Context, id int64) (*models.Presale, error)
	TicketsByPresale(ctx context.Context, presaleID int64) ([]models.Ticket, error)
	SetTicketQR(ctx context.Context, ticketID int64, qr []byte) error
}

type KafkaPublisher interface {
	PublishSaleRecorded(result models.SaleResult) error
	PublishRefundRecorded(result models.RefundResult) error
}

type QRIssuer interface {
	GenerateEncryptedQR(ticket models.Ticket) ([]byte, error)
}

// Service records sales and refunds. The capacity check, the presale and
// ticket inserts and the ledger append run inside one transaction:
// either the seats and the money both land, or neither is visible.
type Service struct {
	Bun       *bun.DB
	Inventory *inventory.Service
	Ledger    LedgerStore
	Presales  PresaleStore
	Kafka     KafkaPublisher
	QR        QRIssuer
	Logger    *logger.Logger
}

func NewService(bunDB *bun.DB, inv *inventory.Service, ledger LedgerStore, presales PresaleStore, kafka KafkaPublisher, qr QRIssuer, log *logger.Logger) *Service {
	return &Service{Bun: bunDB, Inventory: inv, Ledger: ledger, Presales: presales, Kafka: kafka, QR: qr, Logger: log}
}

// RecordSale reserves seats and books the money taken for them.
func (s *Service) RecordSale(ctx context.Context, req models.SaleRequest) (*models.SaleResult, error) {
	if req.Seats <= 0 {
		return nil, &models.ValidationError{Field: "seats", Reason: "seat count must be positive"}
	}
	if req.SeatPrice <= 0 {
		return nil, &models.ValidationError{Field: "seat_price", Reason: "seat price must be positive"}
	}
	totalPrice := req.SeatPrice * int64(req.Seats)
	if req.Prepayment <= 0 || req.Prepayment > totalPrice {
		return nil, &models.ValidationError{Field: "prepayment", Reason: fmt.Sprintf("prepayment %d out of range (total %d)", req.Prepayment, totalPrice)}
	}
	if req.Kind == "" {
		req.Kind = models.KindSellerShift
	}

	day := utils.CurrentBusinessDay()
	accepted := req.Prepayment == totalPrice
	entryType, err := saleEntryType(req.Method, accepted)
	if err != nil {
		return nil, err
	}

	presaleStatus := string(models.TicketPartiallyPaid)
	ticketStatus := models.TicketPartiallyPaid
	if accepted {
		presaleStatus = string(models.TicketPaid)
		ticketStatus = models.TicketPaid
	}

	result := &models.SaleResult{}
	err = database.RunSerializable(ctx, s.Bun, func(ctx context.Context, tx bun.Tx) error {
		presale := &models.Presale{
			SellerID:         req.SellerID,
			BusinessDay:      day,
			TotalPrice:       totalPrice,
			PrepaymentAmount: req.Prepayment,
			Status:           presaleStatus,
			SlotUID:          req.SlotUID,
		}
		tickets, err := s.Inventory.ReserveIn(ctx, tx, presale, req.Seats, req.SeatPrice, ticketStatus)
		if err != nil {
			return err
		}

		slot, err := s.Inventory.DB.GetSlotByUID(ctx, req.SlotUID)
		if err != nil {
			return err
		}
		entry := &models.LedgerEntry{
			BusinessDay: day,
			Kind:        req.Kind,
			Type:        entryType,
			Amount:      req.Prepayment,
			Method:      req.Method,
			Status:      models.StatusPosted,
			SellerID:    &req.SellerID,
			PresaleID:   &presale.ID,
			SlotID:      &slot.ID,
			EventTime:   time.Now().UTC(),
		}
		if _, err := s.Ledger.AppendIn(ctx, tx, entry); err != nil {
			return err
		}

		result.Presale = *presale
		result.Tickets = tickets
		result.Entry = *entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Inventory.InvalidateSeats(ctx, req.SlotUID)
	s.issueQRCodes(ctx, result.Tickets)
	s.Logger.LogSale("RECORD", result.Presale.ID, fmt.Sprintf("%d seats on %s, %s %d", req.Seats, req.SlotUID, req.Method, req.Prepayment))

	if s.Kafka != nil {
		if err := s.Kafka.PublishSaleRecorded(*result); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("sale-recorded publish failed for presale %d: %v", result.Presale.ID, err))
		}
	}
	return result, nil
}

// RecordRefund cancels seats of a presale and posts a reversal entry.
// The reversal is filed under the current business day, never under the
// original one: a refund after shift closure leaves the closed day's
// entries untouched and produces a forward-dated paper trail.
func (s *Service) RecordRefund(ctx context.Context, req models.RefundRequest) (*models.RefundResult, error) {
	if req.Seats <= 0 {
		return nil, &models.ValidationError{Field: "seats", Reason: "seat count must be positive"}
	}
	if req.Amount <= 0 {
		return nil, &models.ValidationError{Field: "amount", Reason: "refund amount must be positive"}
	}

	presale, err := s.Presales.GetPresaleByID(ctx, req.PresaleID)
	if err != nil {
		return nil, err
	}
	slot, err := s.Inventory.DB.GetSlotByUID(ctx, presale.SlotUID)
	if err != nil {
		return nil, err
	}

	day := utils.CurrentBusinessDay()
	result := &models.RefundResult{}
	err = database.RunSerializable(ctx, s.Bun, func(ctx context.Context, tx bun.Tx) error {
		cancelled, err := s.Inventory.ReleaseIn(ctx, tx, presale.ID, req.Seats)
		if err != nil {
			return err
		}

		// A refund can reverse at most what the presale still holds:
		// everything collected minus what earlier reversals gave back.
		collected, err := s.Ledger.SumForPresale(ctx, tx, presale.ID)
		if err != nil {
			return err
		}
		if req.Amount > collected {
			return &models.ValidationError{
				Field:  "amount",
				Reason: fmt.Sprintf("refund %d exceeds collected balance %d for presale %d", req.Amount, collected, presale.ID),
			}
		}

		entry := &models.LedgerEntry{
			BusinessDay: day,
			Kind:        models.KindSellerShift,
			Type:        models.TypeSaleCancelReverse,
			Amount:      -req.Amount,
			Method:      req.Method,
			Status:      models.StatusPosted,
			SellerID:    &presale.SellerID,
			PresaleID:   &presale.ID,
			SlotID:      &slot.ID,
			EventTime:   time.Now().UTC(),
		}
		if _, err := s.Ledger.AppendIn(ctx, tx, entry); err != nil {
			return err
		}

		result.Cancelled = cancelled
		result.Entry = *entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Inventory.InvalidateSeats(ctx, presale.SlotUID)
	s.Logger.LogSale("REFUND", presale.ID, fmt.Sprintf("%d seats cancelled, reversed %d", result.Cancelled, req.Amount))

	if s.Kafka != nil {
		if err := s.Kafka.PublishRefundRecorded(*result); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("refund-recorded publish failed for presale %d: %v", presale.ID, err))
		}
	}
	return result, nil
}

func (s *Service) issueQRCodes(ctx context.Context, tickets []models.Ticket) {
	if s.QR == nil {
		return
	}
	for i := range tickets {
		qrBytes, err := s.QR.GenerateEncryptedQR(tickets[i])
		if err != nil {
			s.Logger.Error("QR", fmt.Sprintf("QR generation failed for ticket %d: %v", tickets[i].ID, err))
			continue
		}
		tickets[i].QRCode = qrBytes
		if err := s.Presales.SetTicketQR(ctx, tickets[i].ID, qrBytes); err != nil {
			s.Logger.Error("QR", fmt.Sprintf("QR store failed for ticket %d: %v", tickets[i].ID, err))
		}
	}
}

func saleEntryType(method models.PayMethod, accepted bool) (models.EntryType, error) {
	switch method {
	case models.MethodCash:
		if accepted {
			return models.TypeSaleAcceptedCash, nil
		}
		return models.TypeSalePrepaymentCash, nil
	case models.MethodCard:
		if accepted {
			return models.TypeSaleAcceptedCard, nil
		}
		return models.TypeSalePrepaymentCard, nil
	case models.MethodMixed:
		if accepted {
			return models.TypeSaleAcceptedMixed, nil
		}
		return models.TypeSalePrepaymentMixed, nil
	}
	return "", &models.ValidationError{Field: "method", Reason: fmt.Sprintf("unknown method %q", method)}
}
