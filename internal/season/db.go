package season

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ms-excursions/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// UpsertDayStats replaces the (day, seller) row wholesale. Day stats may
// be recomputed any number of times before the day is folded into season
// totals.
func (d *DB) UpsertDayStats(ctx context.Context, stats *models.SellerDayStats) error {
	_, err := d.Bun.NewInsert().
		Model(stats).
		On("CONFLICT (business_day, seller_id) DO UPDATE").
		Set("revenue_day = EXCLUDED.revenue_day").
		Set("points_day_total = EXCLUDED.points_day_total").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert day stats for seller %d on %s: %w", stats.SellerID, stats.BusinessDay, err)
	}
	return nil
}

func (d *DB) DayStats(ctx context.Context, day string) ([]models.SellerDayStats, error) {
	var rows []models.SellerDayStats
	err := d.Bun.NewSelect().
		Model(&rows).
		Where("business_day = ?", day).
		Order("seller_id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// InsertAppliedMarker claims the (season, day, seller) triple. A
// conflict on the unique constraint means another run already applied
// this seller's day; that is reported as inserted == false, the
// expected control-flow outcome of a retried fold.
func (d *DB) InsertAppliedMarker(ctx context.Context, idb bun.IDB, marker *models.SellerSeasonAppliedDay) (bool, error) {
	res, err := idb.NewInsert().
		Model(marker).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// AddSeasonTotals folds one day's figures into the cumulative row,
// creating it on first touch. Totals only ever grow.
func (d *DB) AddSeasonTotals(ctx context.Context, idb bun.IDB, delta *models.SellerSeasonStats) error {
	_, err := idb.NewInsert().
		Model(delta).
		On("CONFLICT (seller_id, season_id) DO UPDATE").
		Set("revenue_total = seller_season_stats.revenue_total + EXCLUDED.revenue_total").
		Set("points_total = seller_season_stats.points_total + EXCLUDED.points_total").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("add season totals for seller %d season %d: %w", delta.SellerID, delta.SeasonID, err)
	}
	return nil
}

func (d *DB) GetSeasonStats(ctx context.Context, sellerID int64, seasonID int) (*models.SellerSeasonStats, error) {
	var stats models.SellerSeasonStats
	err := d.Bun.NewSelect().
		Model(&stats).
		Where("seller_id = ?", sellerID).
		Where("season_id = ?", seasonID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// SellerPoints counts active-status tickets per seller on presales filed
// under the day. One occupied seat is one point.
func (d *DB) SellerPoints(ctx context.Context, day string) (map[int64]int64, error) {
	var rows []struct {
		SellerID int64 `bun:"seller_id"`
		Points   int64 `bun:"points"`
	}
	err := d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		ColumnExpr("p.seller_id AS seller_id").
		ColumnExpr("COUNT(ticket.id) AS points").
		Join("JOIN presales AS p ON p.id = ticket.presale_id").
		Where("p.business_day = ?", day).
		Where("ticket.status IN (?)", bun.In(models.ActiveTicketStatuses)).
		GroupExpr("p.seller_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("seller points for %s: %w", day, err)
	}

	points := make(map[int64]int64, len(rows))
	for _, r := range rows {
		points[r.SellerID] = r.Points
	}
	return points, nil
}

// LedgerSellers lists sellers with POSTED seller-shift activity on the
// day, so a seller whose sales were all refunded still gets a stats row.
func (d *DB) LedgerSellers(ctx context.Context, day string) ([]int64, error) {
	var sellers []int64
	err := d.Bun.NewSelect().
		Model((*models.LedgerEntry)(nil)).
		ColumnExpr("DISTINCT seller_id").
		Where("business_day = ?", day).
		Where("status = ?", models.StatusPosted).
		Where("kind = ?", models.KindSellerShift).
		Where("seller_id IS NOT NULL").
		Scan(ctx, &sellers)
	if err != nil {
		return nil, err
	}
	return sellers, nil
}
