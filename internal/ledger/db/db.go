package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"ms-excursions/internal/database"
	"ms-excursions/internal/models"
	"ms-excursions/internal/utils"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// Filter narrows aggregate ledger queries. Zero values are ignored.
type Filter struct {
	BusinessDay string
	FromDay     string
	ToDay       string
	Kind        models.EntryKind
	Types       []models.EntryType
	Status      models.EntryStatus
	Method      models.PayMethod
	SellerID    *int64
}

// Append validates and inserts one ledger entry inside its own
// transaction. Returns the new entry id. On Postgres the transaction
// runs serializable, so the closed-day check and the insert cannot
// straddle a concurrent closure commit.
func (d *DB) Append(ctx context.Context, entry *models.LedgerEntry) (int64, error) {
	var id int64
	err := database.RunSerializable(ctx, d.Bun, func(ctx context.Context, tx bun.Tx) error {
		var err error
		id, err = d.AppendIn(ctx, tx, entry)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AppendIn inserts one entry using the caller's transaction, so a seat
// reservation and its ledger append commit or roll back together.
func (d *DB) AppendIn(ctx context.Context, idb bun.IDB, entry *models.LedgerEntry) (int64, error) {
	if err := validate(entry); err != nil {
		return 0, err
	}
	if entry.Status == "" {
		entry.Status = models.StatusPosted
	}

	// A closed day accepts no new POSTED entries; reversals are filed
	// under the current business day instead of the closed one.
	if entry.Status == models.StatusPosted && entry.Type != models.TypeSaleCancelReverse {
		closed, err := d.DayClosed(ctx, idb, entry.BusinessDay)
		if err != nil {
			return 0, fmt.Errorf("closure lookup for day %s: %w", entry.BusinessDay, err)
		}
		if closed {
			return 0, &models.AlreadyClosedError{BusinessDay: entry.BusinessDay}
		}
	}

	if _, err := idb.NewInsert().Model(entry).Exec(ctx); err != nil {
		return 0, fmt.Errorf("append ledger entry: %w", err)
	}
	return entry.ID, nil
}

func validate(entry *models.LedgerEntry) error {
	if !models.KnownEntryType(entry.Type) {
		return &models.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown entry type %q", entry.Type)}
	}
	switch entry.Kind {
	case models.KindSellerShift, models.KindDispatcherShift:
	default:
		return &models.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown entry kind %q", entry.Kind)}
	}
	switch entry.Method {
	case models.MethodCash, models.MethodCard, models.MethodMixed:
	default:
		return &models.ValidationError{Field: "method", Reason: fmt.Sprintf("unknown method %q", entry.Method)}
	}
	if !utils.ValidBusinessDay(entry.BusinessDay) {
		return &models.ValidationError{Field: "business_day", Reason: fmt.Sprintf("malformed business day %q", entry.BusinessDay)}
	}
	if entry.Amount == 0 {
		return &models.ValidationError{Field: "amount", Reason: "amount must be non-zero"}
	}
	want := models.ExpectedSign(entry.Type)
	if (want > 0 && entry.Amount < 0) || (want < 0 && entry.Amount > 0) {
		return &models.ValidationError{
			Field:  "amount",
			Reason: fmt.Sprintf("sign of %d contradicts type %s", entry.Amount, entry.Type),
		}
	}
	return nil
}

// DayClosed reports whether a shift closure exists for the day.
func (d *DB) DayClosed(ctx context.Context, idb bun.IDB, day string) (bool, error) {
	return idb.NewSelect().
		Model((*models.ShiftClosure)(nil)).
		Where("business_day = ?", day).
		Exists(ctx)
}

// Void flips a POSTED entry to VOID. Rows are never deleted and amounts
// never change; voiding an already-VOID entry is a no-op.
func (d *DB) Void(ctx context.Context, id int64) error {
	entry, err := d.GetEntryByID(ctx, id)
	if err != nil {
		return err
	}
	switch entry.Status {
	case models.StatusVoid:
		return nil
	case models.StatusPosted:
	default:
		return &models.ValidationError{Field: "status", Reason: fmt.Sprintf("cannot void entry in status %s", entry.Status)}
	}

	_, err = d.Bun.NewUpdate().
		Model((*models.LedgerEntry)(nil)).
		Set("status = ?", models.StatusVoid).
		Where("id = ?", id).
		Where("status = ?", models.StatusPosted).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("void entry %d: %w", id, err)
	}
	return nil
}

func (d *DB) GetEntryByID(ctx context.Context, id int64) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := d.Bun.NewSelect().
		Model(&entry).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ledger entry %d not found: %w", id, err)
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SumByDimensions returns the signed total over entries matching the
// filter. There is no stored running balance anywhere; every total is
// recomputed from the log.
func (d *DB) SumByDimensions(ctx context.Context, f Filter) (int64, error) {
	q := d.Bun.NewSelect().
		Model((*models.LedgerEntry)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)")

	if f.BusinessDay != "" {
		q = q.Where("business_day = ?", f.BusinessDay)
	}
	if f.FromDay != "" {
		q = q.Where("business_day >= ?", f.FromDay)
	}
	if f.ToDay != "" {
		q = q.Where("business_day <= ?", f.ToDay)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if len(f.Types) > 0 {
		q = q.Where("type IN (?)", bun.In(f.Types))
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Method != "" {
		q = q.Where("method = ?", f.Method)
	}
	if f.SellerID != nil {
		q = q.Where("seller_id = ?", *f.SellerID)
	}

	var total int64
	if err := q.Scan(ctx, &total); err != nil {
		return 0, fmt.Errorf("sum ledger entries: %w", err)
	}
	return total, nil
}

// SumForPresale totals the POSTED entries attached to one presale,
// through the caller's transaction. A prior reversal is negative, so
// the result is what the presale still holds in collected money.
func (d *DB) SumForPresale(ctx context.Context, idb bun.IDB, presaleID int64) (int64, error) {
	var total int64
	err := idb.NewSelect().
		Model((*models.LedgerEntry)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)").
		Where("presale_id = ?", presaleID).
		Where("status = ?", models.StatusPosted).
		Scan(ctx, &total)
	if err != nil {
		return 0, fmt.Errorf("sum entries for presale %d: %w", presaleID, err)
	}
	return total, nil
}

// EntriesForDay lists a day's entries in append order, for audit views.
func (d *DB) EntriesForDay(ctx context.Context, day string) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := d.Bun.NewSelect().
		Model(&entries).
		Where("business_day = ?", day).
		Order("id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return entries, nil
}
