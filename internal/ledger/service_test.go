package ledger_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ms-excursions/internal/ledger"
	ledgerdb "ms-excursions/internal/ledger/db"
	"ms-excursions/internal/logger"
	"ms-excursions/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupService(t *testing.T) *ledger.Service {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	ctx := context.Background()
	require.NoError(t, bunDB.ResetModel(ctx, (*models.LedgerEntry)(nil), (*models.ShiftClosure)(nil)))

	return ledger.NewService(&ledgerdb.DB{Bun: bunDB}, logger.NewLogger())
}

func post(t *testing.T, svc *ledger.Service, day string, typ models.EntryType, method models.PayMethod, amount, seller int64) {
	t.Helper()
	_, err := svc.Append(context.Background(), &models.LedgerEntry{
		BusinessDay: day,
		Kind:        models.KindSellerShift,
		Type:        typ,
		Amount:      amount,
		Method:      method,
		Status:      models.StatusPosted,
		SellerID:    &seller,
		EventTime:   time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestDayTotalsReconcile(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	day := "2026-02-20"

	post(t, svc, day, models.TypeSalePrepaymentCash, models.MethodCash, 5000, 1)
	post(t, svc, day, models.TypeSaleAcceptedCard, models.MethodCard, 12000, 1)
	post(t, svc, day, models.TypeSaleAcceptedMixed, models.MethodMixed, 7000, 2)
	post(t, svc, day, models.TypeSaleCancelReverse, models.MethodCash, -3000, 2)

	collected, err := svc.CollectedTotal(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, int64(24000), collected)

	refunded, err := svc.RefundTotal(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), refunded, "refund total is reported as a positive figure")

	net, err := svc.NetTotal(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, int64(21000), net)
	assert.Equal(t, collected-refunded, net)
}

func TestSplitByMethod(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	day := "2026-02-20"

	post(t, svc, day, models.TypeSaleAcceptedCash, models.MethodCash, 9000, 1)
	post(t, svc, day, models.TypeSaleAcceptedCard, models.MethodCard, 4000, 1)
	post(t, svc, day, models.TypeSaleCancelReverse, models.MethodCash, -2000, 1)

	split, err := svc.SplitByMethod(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), split.Cash)
	assert.Equal(t, int64(4000), split.Card)
	assert.Equal(t, int64(0), split.Mixed)
}

func TestSellerDayNet(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	day := "2026-02-20"

	post(t, svc, day, models.TypeSaleAcceptedCash, models.MethodCash, 9000, 1)
	post(t, svc, day, models.TypeSaleAcceptedCash, models.MethodCash, 6000, 2)
	post(t, svc, day, models.TypeSaleCancelReverse, models.MethodCash, -1000, 1)

	one, err := svc.SellerDayNet(ctx, day, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(8000), one)

	two, err := svc.SellerDayNet(ctx, day, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), two)

	none, err := svc.SellerDayNet(ctx, day, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(0), none)
}

func TestVoidDropsFromTotals(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	day := "2026-02-20"

	id, err := svc.Append(ctx, &models.LedgerEntry{
		BusinessDay: day,
		Kind:        models.KindSellerShift,
		Type:        models.TypeSaleAcceptedCash,
		Amount:      9000,
		Method:      models.MethodCash,
		Status:      models.StatusPosted,
		EventTime:   time.Now().UTC(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Void(ctx, id))

	net, err := svc.NetTotal(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, int64(0), net)
}
