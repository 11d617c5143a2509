package reports

import (
	"context"
	"fmt"

	"ms-excursions/internal/ledger"
	"ms-excursions/internal/models"
	"ms-excursions/internal/season"
	"ms-excursions/internal/shift"

	"github.com/uptrace/bun"
)

// Service answers the read-only reporting queries the owner dashboard
// consumes. Everything here is a projection over the ledger and the
// stats tables, never a source of truth.
type Service struct {
	db     *bun.DB
	ledger *ledger.Service
	shift  *shift.DB
	season *season.DB
}

func NewService(db *bun.DB, ledgerSvc *ledger.Service, shiftDB *shift.DB, seasonDB *season.DB) *Service {
	return &Service{db: db, ledger: ledgerSvc, shift: shiftDB, season: seasonDB}
}

// DayReport is the reconciliation view of one business day.
type DayReport struct {
	BusinessDay string             `json:"business_day"`
	Collected   int64              `json:"collected"`
	Refunded    int64              `json:"refunded"`
	Net         int64              `json:"net"`
	ByMethod    ledger.MethodSplit `json:"by_method"`
	Closed      bool               `json:"closed"`
	Sellers     []SellerDayLine    `json:"sellers"`
}

// SellerDayLine is one seller's slice of a day report.
type SellerDayLine struct {
	SellerID int64 `json:"seller_id"`
	Net      int64 `json:"net"`
	Entries  int   `json:"entries"`
}

// SlotOccupancy reports how full one departure is.
type SlotOccupancy struct {
	SlotUID   string `json:"slot_uid"`
	Capacity  int    `json:"capacity"`
	Sold      int    `json:"sold"`
	Available int    `json:"available"`
}

// SeasonLeaderboard ranks sellers by cumulative season revenue.
type SeasonLeaderboard struct {
	SeasonID int                        `json:"season_id"`
	Sellers  []models.SellerSeasonStats `json:"sellers"`
}

// GetDayReport assembles the full reconciliation view for a day.
func (s *Service) GetDayReport(ctx context.Context, day string) (*DayReport, error) {
	collected, err := s.ledger.CollectedTotal(ctx, day)
	if err != nil {
		return nil, err
	}
	refunded, err := s.ledger.RefundTotal(ctx, day)
	if err != nil {
		return nil, err
	}
	net, err := s.ledger.NetTotal(ctx, day)
	if err != nil {
		return nil, err
	}
	split, err := s.ledger.SplitByMethod(ctx, day)
	if err != nil {
		return nil, err
	}
	closed, err := s.shift.IsClosed(ctx, day)
	if err != nil {
		return nil, err
	}

	type sellerLineRaw struct {
		SellerID   int64 `bun:"seller_id"`
		SellerNet  int64 `bun:"seller_net"`
		EntryCount int   `bun:"entry_count"`
	}

	var lines []sellerLineRaw
	rawSQL := `
		SELECT
			seller_id,
			SUM(amount) AS seller_net,
			COUNT(id) AS entry_count
		FROM money_ledger
		WHERE
			business_day = ?
			AND status = ?
			AND kind = ?
			AND seller_id IS NOT NULL
		GROUP BY
			seller_id
		ORDER BY
			seller_id
	`
	err = s.db.NewRaw(rawSQL, day, models.StatusPosted, models.KindSellerShift).Scan(ctx, &lines)
	if err != nil {
		return nil, fmt.Errorf("seller breakdown for %s: %w", day, err)
	}

	report := &DayReport{
		BusinessDay: day,
		Collected:   collected,
		Refunded:    refunded,
		Net:         net,
		ByMethod:    split,
		Closed:      closed,
		Sellers:     make([]SellerDayLine, 0, len(lines)),
	}
	for _, l := range lines {
		report.Sellers = append(report.Sellers, SellerDayLine{
			SellerID: l.SellerID,
			Net:      l.SellerNet,
			Entries:  l.EntryCount,
		})
	}
	return report, nil
}

// GetDayEntries returns the raw ledger rows for a day, newest last.
func (s *Service) GetDayEntries(ctx context.Context, day string) ([]models.LedgerEntry, error) {
	return s.ledger.EntriesForDay(ctx, day)
}

// GetSlotOccupancy derives a slot's fill level from its tickets.
func (s *Service) GetSlotOccupancy(ctx context.Context, slotUID string) (*SlotOccupancy, error) {
	var slot models.Slot
	err := s.db.NewSelect().
		Model(&slot).
		Where("uid = ?", slotUID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("slot %s: %w", slotUID, err)
	}

	var sold int
	rawSQL := `
		SELECT COUNT(*)
		FROM tickets t
		JOIN presales p ON t.presale_id = p.id
		WHERE p.slot_uid = ? AND t.status IN (?)
	`
	err = s.db.NewRaw(rawSQL, slotUID, bun.In(models.ActiveTicketStatuses)).Scan(ctx, &sold)
	if err != nil {
		return nil, err
	}

	available := slot.Capacity - sold
	if available < 0 {
		available = 0
	}
	return &SlotOccupancy{
		SlotUID:   slotUID,
		Capacity:  slot.Capacity,
		Sold:      sold,
		Available: available,
	}, nil
}

// GetSeasonLeaderboard lists every seller's season totals, biggest
// revenue first.
func (s *Service) GetSeasonLeaderboard(ctx context.Context, seasonID int) (*SeasonLeaderboard, error) {
	var rows []models.SellerSeasonStats
	err := s.db.NewSelect().
		Model(&rows).
		Where("season_id = ?", seasonID).
		OrderExpr("revenue_total DESC, seller_id").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &SeasonLeaderboard{SeasonID: seasonID, Sellers: rows}, nil
}

// GetSellerSeason returns one seller's cumulative season row, nil when
// the seller has no folded days yet.
func (s *Service) GetSellerSeason(ctx context.Context, sellerID int64, seasonID int) (*models.SellerSeasonStats, error) {
	return s.season.GetSeasonStats(ctx, sellerID, seasonID)
}

// GetDayStats returns the recomputed per-seller stats rows for a day.
func (s *Service) GetDayStats(ctx context.Context, day string) ([]models.SellerDayStats, error) {
	return s.season.DayStats(ctx, day)
}
