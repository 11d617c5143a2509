package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ms-excursions/internal/ledger/db"
	"ms-excursions/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *db.DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	err = bunDB.ResetModel(ctx, (*models.LedgerEntry)(nil), (*models.ShiftClosure)(nil))
	if err != nil {
		t.Fatalf("Failed to create tables: %v", err)
	}

	return &db.DB{Bun: bunDB}
}

func sellerID(id int64) *int64 { return &id }

func saleEntry(day string, amount int64) *models.LedgerEntry {
	return &models.LedgerEntry{
		BusinessDay: day,
		Kind:        models.KindSellerShift,
		Type:        models.TypeSalePrepaymentCash,
		Amount:      amount,
		Method:      models.MethodCash,
		Status:      models.StatusPosted,
		SellerID:    sellerID(1),
		EventTime:   time.Now().UTC(),
	}
}

func TestAppendAssignsID(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	id, err := store.Append(ctx, saleEntry("2026-02-20", 5000))
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	entry, err := store.GetEntryByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), entry.Amount)
	assert.Equal(t, models.StatusPosted, entry.Status)
}

func TestAppendRejectsUnknownType(t *testing.T) {
	store := setupTestDB(t)

	entry := saleEntry("2026-02-20", 5000)
	entry.Type = "SALE_SOMETHING_ELSE"

	_, err := store.Append(context.Background(), entry)
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "type", vErr.Field)
}

func TestAppendRejectsMalformedDay(t *testing.T) {
	store := setupTestDB(t)

	for _, day := range []string{"", "2026/02/20", "20-02-2026", "2026-2-2"} {
		entry := saleEntry(day, 5000)
		_, err := store.Append(context.Background(), entry)
		var vErr *models.ValidationError
		require.ErrorAs(t, err, &vErr, "day %q should be rejected", day)
		assert.Equal(t, "business_day", vErr.Field)
	}
}

func TestAppendRejectsSignContradiction(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	// Credit types must be positive.
	entry := saleEntry("2026-02-20", -5000)
	_, err := store.Append(ctx, entry)
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "amount", vErr.Field)

	// Reversals must be negative.
	reversal := saleEntry("2026-02-20", 3000)
	reversal.Type = models.TypeSaleCancelReverse
	_, err = store.Append(ctx, reversal)
	require.ErrorAs(t, err, &vErr)

	// Zero is never valid.
	zero := saleEntry("2026-02-20", 0)
	_, err = store.Append(ctx, zero)
	require.ErrorAs(t, err, &vErr)
}

func TestAppendOnClosedDay(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	_, err := store.Bun.NewInsert().Model(&models.ShiftClosure{
		BusinessDay: "2026-02-20",
		ClosedAt:    time.Now().UTC(),
		ClosedBy:    "dispatcher-1",
	}).Exec(ctx)
	require.NoError(t, err)

	_, err = store.Append(ctx, saleEntry("2026-02-20", 5000))
	var closedErr *models.AlreadyClosedError
	require.ErrorAs(t, err, &closedErr)
	assert.Equal(t, "2026-02-20", closedErr.BusinessDay)

	// A reversal is still accepted: refunds after closure are filed as
	// new entries, not edits of the closed day.
	reversal := saleEntry("2026-02-20", -3000)
	reversal.Type = models.TypeSaleCancelReverse
	_, err = store.Append(ctx, reversal)
	assert.NoError(t, err)
}

func TestVoidTransitions(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	id, err := store.Append(ctx, saleEntry("2026-02-20", 5000))
	require.NoError(t, err)

	require.NoError(t, store.Void(ctx, id))
	entry, err := store.GetEntryByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVoid, entry.Status)
	assert.Equal(t, int64(5000), entry.Amount, "void must not touch the amount")

	// Voiding again is a no-op, not an error.
	assert.NoError(t, store.Void(ctx, id))
}

func TestVoidRejectsOtherStatuses(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	pending := saleEntry("2026-02-20", 5000)
	pending.Status = models.StatusPending
	_, err := store.Bun.NewInsert().Model(pending).Exec(ctx)
	require.NoError(t, err)

	err = store.Void(ctx, pending.ID)
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestVoidMissingEntry(t *testing.T) {
	store := setupTestDB(t)
	err := store.Void(context.Background(), 9999)
	assert.Error(t, err)
}

func TestSumByDimensions(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	seed := []struct {
		amount int64
		typ    models.EntryType
		method models.PayMethod
		seller int64
	}{
		{5000, models.TypeSalePrepaymentCash, models.MethodCash, 1},
		{12000, models.TypeSaleAcceptedCard, models.MethodCard, 1},
		{8000, models.TypeSaleAcceptedCash, models.MethodCash, 2},
		{-3000, models.TypeSaleCancelReverse, models.MethodCash, 1},
	}
	for _, s := range seed {
		e := saleEntry("2026-02-20", s.amount)
		e.Type = s.typ
		e.Method = s.method
		e.SellerID = sellerID(s.seller)
		_, err := store.Append(ctx, e)
		require.NoError(t, err)
	}

	// Voided entries drop out of POSTED sums.
	voided := saleEntry("2026-02-20", 100000)
	id, err := store.Append(ctx, voided)
	require.NoError(t, err)
	require.NoError(t, store.Void(ctx, id))

	net, err := store.SumByDimensions(ctx, db.Filter{
		BusinessDay: "2026-02-20",
		Status:      models.StatusPosted,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(22000), net)

	cash, err := store.SumByDimensions(ctx, db.Filter{
		BusinessDay: "2026-02-20",
		Status:      models.StatusPosted,
		Method:      models.MethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10000), cash)

	sellerOne, err := store.SumByDimensions(ctx, db.Filter{
		BusinessDay: "2026-02-20",
		Status:      models.StatusPosted,
		SellerID:    sellerID(1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(14000), sellerOne)

	credits, err := store.SumByDimensions(ctx, db.Filter{
		BusinessDay: "2026-02-20",
		Status:      models.StatusPosted,
		Types:       models.CreditTypes,
	})
	require.NoError(t, err)
	reversed, err := store.SumByDimensions(ctx, db.Filter{
		BusinessDay: "2026-02-20",
		Status:      models.StatusPosted,
		Types:       []models.EntryType{models.TypeSaleCancelReverse},
	})
	require.NoError(t, err)

	// collected - refunded == net, always.
	assert.Equal(t, net, credits+reversed)

	empty, err := store.SumByDimensions(ctx, db.Filter{BusinessDay: "2030-01-01"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty)
}

func TestSumForPresale(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	presaleID := int64(42)
	other := int64(43)

	sale := saleEntry("2026-02-20", 5000)
	sale.PresaleID = &presaleID
	_, err := store.Append(ctx, sale)
	require.NoError(t, err)

	reversal := saleEntry("2026-02-20", -2000)
	reversal.Type = models.TypeSaleCancelReverse
	reversal.PresaleID = &presaleID
	_, err = store.Append(ctx, reversal)
	require.NoError(t, err)

	// Voided entries drop out of the presale balance.
	voided := saleEntry("2026-02-20", 9000)
	voided.PresaleID = &presaleID
	id, err := store.Append(ctx, voided)
	require.NoError(t, err)
	require.NoError(t, store.Void(ctx, id))

	unrelated := saleEntry("2026-02-20", 7000)
	unrelated.PresaleID = &other
	_, err = store.Append(ctx, unrelated)
	require.NoError(t, err)

	total, err := store.SumForPresale(ctx, store.Bun, presaleID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), total)

	none, err := store.SumForPresale(ctx, store.Bun, 9999)
	require.NoError(t, err)
	assert.Equal(t, int64(0), none)
}

func TestEntriesForDayOrder(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	for _, amount := range []int64{100, 200, 300} {
		_, err := store.Append(ctx, saleEntry("2026-02-21", amount))
		require.NoError(t, err)
	}
	_, err := store.Append(ctx, saleEntry("2026-02-22", 999))
	require.NoError(t, err)

	entries, err := store.EntriesForDay(ctx, "2026-02-21")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(100), entries[0].Amount)
	assert.Equal(t, int64(300), entries[2].Amount)
}
