package models

import (
	"fmt"

	"github.com/uptrace/bun"
)

// Slot is a single scheduled departure with a fixed seat capacity.
// Available seats are always derived (capacity minus active tickets),
// never stored as a counter.
type Slot struct {
	bun.BaseModel `bun:"table:generated_slots"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	UID      string `bun:"uid,unique" json:"uid"`
	BoatID   int64  `bun:"boat_id" json:"boat_id"`
	TripDate string `bun:"trip_date" json:"trip_date"`
	Time     string `bun:"time" json:"time"`
	Capacity int    `bun:"capacity" json:"capacity"`
	IsActive bool   `bun:"is_active" json:"is_active"`
}

// SlotUID builds the deterministic uid that presales reference.
func SlotUID(boatID int64, tripDate, departure string) string {
	return fmt.Sprintf("boat:%d:%s:%s", boatID, tripDate, departure)
}
