package season_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"ms-excursions/internal/ledger"
	ledgerdb "ms-excursions/internal/ledger/db"
	"ms-excursions/internal/logger"
	"ms-excursions/internal/models"
	"ms-excursions/internal/season"
	"ms-excursions/internal/shift"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type seasonFixture struct {
	bun        *bun.DB
	aggregator *season.Aggregator
	ledgerDB   *ledgerdb.DB
	seasonDB   *season.DB
	shiftDB    *shift.DB
}

func setupAggregator(t *testing.T) *seasonFixture {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	ctx := context.Background()
	require.NoError(t, bunDB.ResetModel(ctx,
		(*models.LedgerEntry)(nil), (*models.ShiftClosure)(nil),
		(*models.Presale)(nil), (*models.Ticket)(nil),
		(*models.SellerDayStats)(nil), (*models.SellerSeasonAppliedDay)(nil),
		(*models.SellerSeasonStats)(nil)))

	log := logger.NewLogger()
	ledgerStore := &ledgerdb.DB{Bun: bunDB}
	seasonStore := &season.DB{Bun: bunDB}
	shiftStore := &shift.DB{Bun: bunDB}
	aggregator := season.NewAggregator(bunDB, seasonStore, shiftStore, ledger.NewService(ledgerStore, log), nil, log)

	return &seasonFixture{
		bun:        bunDB,
		aggregator: aggregator,
		ledgerDB:   ledgerStore,
		seasonDB:   seasonStore,
		shiftDB:    shiftStore,
	}
}

func (f *seasonFixture) closeDay(t *testing.T, day string) {
	t.Helper()
	inserted, err := f.shiftDB.InsertClosure(context.Background(), &models.ShiftClosure{
		BusinessDay: day,
		ClosedAt:    time.Now().UTC(),
		ClosedBy:    "owner:1",
	})
	require.NoError(t, err)
	require.True(t, inserted)
}

func (f *seasonFixture) postSale(t *testing.T, day string, sellerID, amount int64) {
	t.Helper()
	_, err := f.ledgerDB.Append(context.Background(), &models.LedgerEntry{
		BusinessDay: day,
		Kind:        models.KindSellerShift,
		Type:        models.TypeSaleAcceptedCash,
		Amount:      amount,
		Method:      models.MethodCash,
		Status:      models.StatusPosted,
		SellerID:    &sellerID,
		EventTime:   time.Now().UTC(),
	})
	require.NoError(t, err)
}

// seedTickets creates one presale for the seller with n active tickets.
func (f *seasonFixture) seedTickets(t *testing.T, day string, sellerID int64, n int) {
	t.Helper()
	ctx := context.Background()
	presale := &models.Presale{
		SellerID:    sellerID,
		BusinessDay: day,
		TotalPrice:  int64(n) * 250,
		Status:      string(models.TicketPaid),
		SlotUID:     models.SlotUID(1, day, "10:00"),
	}
	_, err := f.bun.NewInsert().Model(presale).Exec(ctx)
	require.NoError(t, err)

	tickets := make([]models.Ticket, n)
	for i := range tickets {
		tickets[i] = models.Ticket{
			PresaleID: presale.ID,
			Status:    models.TicketPaid,
			Price:     250,
			PublicRef: fmt.Sprintf("%s-%d-%d", day, sellerID, i),
		}
	}
	_, err = f.bun.NewInsert().Model(&tickets).Exec(ctx)
	require.NoError(t, err)
}

func TestApplyFoldsClosedDayOnce(t *testing.T) {
	f := setupAggregator(t)
	ctx := context.Background()
	day := "2026-02-21"

	f.postSale(t, day, 5, 10000)
	f.seedTickets(t, day, 5, 40)
	f.closeDay(t, day)

	rows, err := f.aggregator.RecomputeDayStats(ctx, day)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(10000), rows[0].RevenueDay)
	assert.Equal(t, int64(40), rows[0].PointsDayTotal)

	result, err := f.aggregator.Apply(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 2026, result.SeasonID)
	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, 0, result.Skipped)

	stats, err := f.seasonDB.GetSeasonStats(ctx, 5, 2026)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, int64(10000), stats.RevenueTotal)
	assert.Equal(t, int64(40), stats.PointsTotal)

	// A blind retry skips every seller and leaves the totals untouched.
	result, err = f.aggregator.Apply(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Applied)
	assert.Equal(t, 1, result.Skipped)

	stats, err = f.seasonDB.GetSeasonStats(ctx, 5, 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), stats.RevenueTotal)
	assert.Equal(t, int64(40), stats.PointsTotal)
}

func TestApplyRequiresClosedDay(t *testing.T) {
	f := setupAggregator(t)
	day := "2026-02-21"
	f.postSale(t, day, 5, 10000)

	_, err := f.aggregator.Apply(context.Background(), day)
	require.ErrorIs(t, err, season.ErrDayOpen)
}

func TestApplyAccumulatesAcrossDays(t *testing.T) {
	f := setupAggregator(t)
	ctx := context.Background()

	for _, d := range []struct {
		day    string
		amount int64
		seats  int
	}{
		{"2026-02-21", 10000, 4},
		{"2026-02-22", 6000, 2},
	} {
		f.postSale(t, d.day, 5, d.amount)
		f.seedTickets(t, d.day, 5, d.seats)
		f.closeDay(t, d.day)

		_, err := f.aggregator.RecomputeDayStats(ctx, d.day)
		require.NoError(t, err)
		result, err := f.aggregator.Apply(ctx, d.day)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Applied)
	}

	stats, err := f.seasonDB.GetSeasonStats(ctx, 5, 2026)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, int64(16000), stats.RevenueTotal)
	assert.Equal(t, int64(6), stats.PointsTotal)
}

func TestRecomputeIncludesFullyRefundedSeller(t *testing.T) {
	f := setupAggregator(t)
	ctx := context.Background()
	day := "2026-02-23"

	// Seller 7 sold and was fully reversed the same day. No active
	// tickets remain, but the ledger activity still earns a stats row.
	f.postSale(t, day, 7, 5000)
	sellerID := int64(7)
	_, err := f.ledgerDB.Append(ctx, &models.LedgerEntry{
		BusinessDay: day,
		Kind:        models.KindSellerShift,
		Type:        models.TypeSaleCancelReverse,
		Amount:      -5000,
		Method:      models.MethodCash,
		Status:      models.StatusPosted,
		SellerID:    &sellerID,
		EventTime:   time.Now().UTC(),
	})
	require.NoError(t, err)

	rows, err := f.aggregator.RecomputeDayStats(ctx, day)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(7), rows[0].SellerID)
	assert.Equal(t, int64(0), rows[0].RevenueDay)
	assert.Equal(t, int64(0), rows[0].PointsDayTotal)
}

func TestRecomputeReplacesBeforeApply(t *testing.T) {
	f := setupAggregator(t)
	ctx := context.Background()
	day := "2026-02-24"

	f.postSale(t, day, 5, 4000)
	_, err := f.aggregator.RecomputeDayStats(ctx, day)
	require.NoError(t, err)

	// More activity lands before the day is folded; the recompute
	// replaces the row rather than stacking on it.
	f.postSale(t, day, 5, 3000)
	rows, err := f.aggregator.RecomputeDayStats(ctx, day)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(7000), rows[0].RevenueDay)
}
