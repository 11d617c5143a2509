package models

import "github.com/uptrace/bun"

// SellerDayStats is the single source for one seller's performance on
// one business day. It is recomputed and replaced freely until the day
// has been folded into season totals.
type SellerDayStats struct {
	bun.BaseModel `bun:"table:seller_day_stats"`

	ID             int64  `bun:"id,pk,autoincrement" json:"id"`
	BusinessDay    string `bun:"business_day,unique:day_seller" json:"business_day"`
	SellerID       int64  `bun:"seller_id,unique:day_seller" json:"seller_id"`
	RevenueDay     int64  `bun:"revenue_day" json:"revenue_day"`
	PointsDayTotal int64  `bun:"points_day_total" json:"points_day_total"`
}

// SellerSeasonAppliedDay marks one (season, day, seller) as folded into
// the cumulative totals. Its existence is the sole proof of application;
// the unique constraint on the triple is the concurrency guard.
type SellerSeasonAppliedDay struct {
	bun.BaseModel `bun:"table:seller_season_applied_days"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	SeasonID    int    `bun:"season_id,unique:season_day_seller" json:"season_id"`
	BusinessDay string `bun:"business_day,unique:season_day_seller" json:"business_day"`
	SellerID    int64  `bun:"seller_id,unique:season_day_seller" json:"seller_id"`
}

// SellerSeasonStats accumulates a seller's season totals. Rows only ever
// grow, and only the aggregator writes them.
type SellerSeasonStats struct {
	bun.BaseModel `bun:"table:seller_season_stats"`

	ID           int64 `bun:"id,pk,autoincrement" json:"id"`
	SellerID     int64 `bun:"seller_id,unique:seller_season" json:"seller_id"`
	SeasonID     int   `bun:"season_id,unique:seller_season" json:"season_id"`
	RevenueTotal int64 `bun:"revenue_total" json:"revenue_total"`
	PointsTotal  int64 `bun:"points_total" json:"points_total"`
}
