package db

import (
	"context"
	"database/sql"
	"testing"

	"ms-excursions/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func openSqlite(t *testing.T) *sql.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	return sqldb
}

// The slot read that guards the capacity check must lock the row on
// Postgres; SQLite has no FOR UPDATE and relies on its single writer.
func TestSlotLockClauseByDialect(t *testing.T) {
	sqldb := openSqlite(t)

	pg := &DB{Bun: bun.NewDB(sqldb, pgdialect.New())}
	assert.Contains(t, pg.selectSlotForUpdate(pg.Bun, "1_2026-06-01_10:00").String(), "FOR UPDATE")

	lite := &DB{Bun: bun.NewDB(sqldb, sqlitedialect.New())}
	assert.NotContains(t, lite.selectSlotForUpdate(lite.Bun, "1_2026-06-01_10:00").String(), "FOR UPDATE")
}

func TestGetSlotForUpdate(t *testing.T) {
	bunDB := bun.NewDB(openSqlite(t), sqlitedialect.New())
	ctx := context.Background()
	require.NoError(t, bunDB.ResetModel(ctx, (*models.Slot)(nil)))

	store := &DB{Bun: bunDB}
	slot := &models.Slot{
		BoatID:   1,
		TripDate: "2026-06-01",
		Time:     "10:00",
		Capacity: 12,
		IsActive: true,
	}
	require.NoError(t, store.CreateSlot(ctx, slot))

	err := bunDB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		got, err := store.GetSlotForUpdate(ctx, tx, slot.UID)
		if err != nil {
			return err
		}
		assert.Equal(t, slot.UID, got.UID)
		assert.Equal(t, 12, got.Capacity)
		return nil
	})
	require.NoError(t, err)

	_, err = store.GetSlotForUpdate(ctx, bunDB, "missing")
	assert.Error(t, err)
}
