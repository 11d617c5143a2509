package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ShiftClosure locks a business day. Once a row exists the ledger write
// path for that day accepts forward-dated reversals only.
type ShiftClosure struct {
	bun.BaseModel `bun:"table:shift_closures"`

	BusinessDay string    `bun:"business_day,pk" json:"business_day"`
	ClosedAt    time.Time `bun:"closed_at" json:"closed_at"`
	ClosedBy    string    `bun:"closed_by" json:"closed_by"`
}
