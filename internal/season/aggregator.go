package season

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"ms-excursions/internal/logger"
	"ms-excursions/internal/models"

	"github.com/uptrace/bun"
)

// ErrDayOpen is returned when season application is attempted before the
// business day has been closed.
var ErrDayOpen = errors.New("business day is not closed")

type DBLayer interface {
	UpsertDayStats(ctx context.Context, stats *models.SellerDayStats) error
	DayStats(ctx context.Context, day string) ([]models.SellerDayStats, error)
	InsertAppliedMarker(ctx context.Context, idb bun.IDB, marker *models.SellerSeasonAppliedDay) (bool, error)
	AddSeasonTotals(ctx context.Context, idb bun.IDB, delta *models.SellerSeasonStats) error
	GetSeasonStats(ctx context.Context, sellerID int64, seasonID int) (*models.SellerSeasonStats, error)
	SellerPoints(ctx context.Context, day string) (map[int64]int64, error)
	LedgerSellers(ctx context.Context, day string) ([]int64, error)
}

type ShiftChecker interface {
	IsClosed(ctx context.Context, day string) (bool, error)
}

type LedgerReader interface {
	SellerDayNet(ctx context.Context, day string, sellerID int64) (int64, error)
}

type Publisher interface {
	PublishSeasonApplied(day string, seasonID int, applied, skipped int) error
}

// ApplyResult reports one aggregation run. Skipped sellers were already
// folded by an earlier run; skipping them is what makes blind retries
// safe.
type ApplyResult struct {
	BusinessDay string `json:"business_day"`
	SeasonID    int    `json:"season_id"`
	Applied     int    `json:"applied"`
	Skipped     int    `json:"skipped"`
}

// Aggregator folds closed business days into cumulative season totals
// exactly once per (day, seller). Correctness rests on the unique
// constraint behind the applied-day marker, not on any external lock.
type Aggregator struct {
	Bun    *bun.DB
	DB     DBLayer
	Shift  ShiftChecker
	Ledger LedgerReader
	Kafka  Publisher
	Logger *logger.Logger
}

func NewAggregator(bunDB *bun.DB, db DBLayer, shift ShiftChecker, ledger LedgerReader, kafka Publisher, log *logger.Logger) *Aggregator {
	return &Aggregator{Bun: bunDB, DB: db, Shift: shift, Ledger: ledger, Kafka: kafka, Logger: log}
}

// RecomputeDayStats rebuilds seller_day_stats for the day from the
// ledger and ticket state. Safe to run any number of times before the
// day is folded into a season.
func (a *Aggregator) RecomputeDayStats(ctx context.Context, day string) ([]models.SellerDayStats, error) {
	points, err := a.DB.SellerPoints(ctx, day)
	if err != nil {
		return nil, err
	}
	ledgerSellers, err := a.DB.LedgerSellers(ctx, day)
	if err != nil {
		return nil, err
	}

	sellers := make(map[int64]struct{}, len(points)+len(ledgerSellers))
	for id := range points {
		sellers[id] = struct{}{}
	}
	for _, id := range ledgerSellers {
		sellers[id] = struct{}{}
	}

	ids := make([]int64, 0, len(sellers))
	for id := range sellers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]models.SellerDayStats, 0, len(ids))
	for _, sellerID := range ids {
		revenue, err := a.Ledger.SellerDayNet(ctx, day, sellerID)
		if err != nil {
			return nil, err
		}
		stats := models.SellerDayStats{
			BusinessDay:    day,
			SellerID:       sellerID,
			RevenueDay:     revenue,
			PointsDayTotal: points[sellerID],
		}
		if err := a.DB.UpsertDayStats(ctx, &stats); err != nil {
			return nil, err
		}
		out = append(out, stats)
	}
	return out, nil
}

// Apply folds the day's seller stats into season totals. Each seller
// folds in its own transaction: the marker insert claims the triple and
// the additive update commits with it, so a crash can only lose an
// unclaimed seller, never double count one. Re-running for an applied
// day is a no-op.
func (a *Aggregator) Apply(ctx context.Context, day string) (ApplyResult, error) {
	seasonID, err := SeasonFor(day)
	if err != nil {
		return ApplyResult{}, err
	}

	closed, err := a.Shift.IsClosed(ctx, day)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("closure check for %s: %w", day, err)
	}
	if !closed {
		return ApplyResult{}, fmt.Errorf("apply season stats for %s: %w", day, ErrDayOpen)
	}

	rows, err := a.DB.DayStats(ctx, day)
	if err != nil {
		return ApplyResult{}, err
	}

	result := ApplyResult{BusinessDay: day, SeasonID: seasonID}
	for _, row := range rows {
		applied, err := a.applySeller(ctx, seasonID, row)
		if err != nil {
			return result, err
		}
		if applied {
			result.Applied++
		} else {
			result.Skipped++
		}
	}

	a.Logger.LogSeason("APPLY", seasonID, fmt.Sprintf("%s: %d applied, %d skipped", day, result.Applied, result.Skipped))
	if a.Kafka != nil {
		if err := a.Kafka.PublishSeasonApplied(day, seasonID, result.Applied, result.Skipped); err != nil {
			a.Logger.Error("KAFKA", fmt.Sprintf("season-applied publish failed for %s: %v", day, err))
		}
	}
	return result, nil
}

func (a *Aggregator) applySeller(ctx context.Context, seasonID int, row models.SellerDayStats) (bool, error) {
	applied := false
	err := a.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		marker := &models.SellerSeasonAppliedDay{
			SeasonID:    seasonID,
			BusinessDay: row.BusinessDay,
			SellerID:    row.SellerID,
		}
		inserted, err := a.DB.InsertAppliedMarker(ctx, tx, marker)
		if err != nil {
			return fmt.Errorf("insert applied marker: %w", err)
		}
		if !inserted {
			// Already folded by an earlier run. Not an error.
			return nil
		}
		applied = true

		return a.DB.AddSeasonTotals(ctx, tx, &models.SellerSeasonStats{
			SellerID:     row.SellerID,
			SeasonID:     seasonID,
			RevenueTotal: row.RevenueDay,
			PointsTotal:  row.PointsDayTotal,
		})
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}
