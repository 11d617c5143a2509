package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ms-excursions/internal/models"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateSlot(ctx context.Context, slot *models.Slot) error {
	if slot.UID == "" {
		slot.UID = models.SlotUID(slot.BoatID, slot.TripDate, slot.Time)
	}
	_, err := d.Bun.NewInsert().Model(slot).Exec(ctx)
	return err
}

func (d *DB) GetSlotByUID(ctx context.Context, uid string) (*models.Slot, error) {
	var slot models.Slot
	err := d.Bun.NewSelect().
		Model(&slot).
		Where("uid = ?", uid).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("slot %s not found: %w", uid, err)
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// GetSlotForUpdate loads the slot through the caller's transaction,
// taking a row lock on Postgres so concurrent reservations of the same
// slot queue behind each other instead of counting the same seats
// twice. SQLite has a single writer and takes no lock.
func (d *DB) GetSlotForUpdate(ctx context.Context, idb bun.IDB, uid string) (*models.Slot, error) {
	var slot models.Slot
	err := d.selectSlotForUpdate(idb, uid).Scan(ctx, &slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("slot %s not found: %w", uid, err)
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (d *DB) selectSlotForUpdate(idb bun.IDB, uid string) *bun.SelectQuery {
	q := idb.NewSelect().
		Model((*models.Slot)(nil)).
		Where("uid = ?", uid).
		Limit(1)
	if d.Bun.Dialect().Name() == dialect.PG {
		q = q.For("UPDATE")
	}
	return q
}

// CountActiveSeats counts tickets occupying seats on the slot. The
// status set is the contractual active set; CANCELLED tickets free their
// seat by falling out of it.
func (d *DB) CountActiveSeats(ctx context.Context, idb bun.IDB, slotUID string) (int, error) {
	count, err := idb.NewSelect().
		Model((*models.Ticket)(nil)).
		Join("JOIN presales AS p ON p.id = ticket.presale_id").
		Where("p.slot_uid = ?", slotUID).
		Where("ticket.status IN (?)", bun.In(models.ActiveTicketStatuses)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count active seats for slot %s: %w", slotUID, err)
	}
	return count, nil
}

func (d *DB) InsertPresale(ctx context.Context, idb bun.IDB, presale *models.Presale) error {
	_, err := idb.NewInsert().Model(presale).Exec(ctx)
	return err
}

func (d *DB) InsertTickets(ctx context.Context, idb bun.IDB, tickets []models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	_, err := idb.NewInsert().Model(&tickets).Exec(ctx)
	return err
}

func (d *DB) GetPresaleByID(ctx context.Context, id int64) (*models.Presale, error) {
	var presale models.Presale
	err := d.Bun.NewSelect().
		Model(&presale).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("presale %d not found: %w", id, err)
	}
	if err != nil {
		return nil, err
	}
	return &presale, nil
}

func (d *DB) TicketsByPresale(ctx context.Context, presaleID int64) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("presale_id = ?", presaleID).
		Order("id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// SetTicketQR attaches the rendered boarding QR to an issued ticket.
func (d *DB) SetTicketQR(ctx context.Context, ticketID int64, qr []byte) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("qr_code = ?", qr).
		Where("id = ?", ticketID).
		Exec(ctx)
	return err
}

// CancelTickets flips n active tickets of the presale to CANCELLED and
// returns how many it cancelled. Fails without mutation when the presale
// holds fewer active tickets than requested.
func (d *DB) CancelTickets(ctx context.Context, idb bun.IDB, presaleID int64, n int) (int, error) {
	var ids []int64
	err := idb.NewSelect().
		Model((*models.Ticket)(nil)).
		Column("id").
		Where("presale_id = ?", presaleID).
		Where("status IN (?)", bun.In(models.ActiveTicketStatuses)).
		Order("id").
		Limit(n).
		Scan(ctx, &ids)
	if err != nil {
		return 0, fmt.Errorf("select tickets to cancel: %w", err)
	}
	if len(ids) < n {
		return 0, &models.ValidationError{
			Field:  "seats",
			Reason: fmt.Sprintf("presale %d has %d active tickets, cannot cancel %d", presaleID, len(ids), n),
		}
	}

	res, err := idb.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("status = ?", models.TicketCancelled).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("cancel tickets: %w", err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}
