package models

import (
	"time"

	"github.com/uptrace/bun"
)

// EntryKind partitions ledger entries by accountable owner.
type EntryKind string

const (
	KindSellerShift     EntryKind = "SELLER_SHIFT"
	KindDispatcherShift EntryKind = "DISPATCHER_SHIFT"
)

// EntryType encodes the economic action behind a ledger entry.
type EntryType string

const (
	TypeSalePrepaymentCash  EntryType = "SALE_PREPAYMENT_CASH"
	TypeSalePrepaymentCard  EntryType = "SALE_PREPAYMENT_CARD"
	TypeSalePrepaymentMixed EntryType = "SALE_PREPAYMENT_MIXED"
	TypeSaleAcceptedCash    EntryType = "SALE_ACCEPTED_CASH"
	TypeSaleAcceptedCard    EntryType = "SALE_ACCEPTED_CARD"
	TypeSaleAcceptedMixed   EntryType = "SALE_ACCEPTED_MIXED"
	TypeSaleCancelReverse   EntryType = "SALE_CANCEL_REVERSE"
)

type EntryStatus string

const (
	StatusPosted  EntryStatus = "POSTED"
	StatusVoid    EntryStatus = "VOID"
	StatusPending EntryStatus = "PENDING"
)

type PayMethod string

const (
	MethodCash  PayMethod = "CASH"
	MethodCard  PayMethod = "CARD"
	MethodMixed PayMethod = "MIXED"
)

// CreditTypes are the entry types whose amount must be positive.
// SALE_CANCEL_REVERSE is the only reversal type and must be negative.
var CreditTypes = []EntryType{
	TypeSalePrepaymentCash, TypeSalePrepaymentCard, TypeSalePrepaymentMixed,
	TypeSaleAcceptedCash, TypeSaleAcceptedCard, TypeSaleAcceptedMixed,
}

// KnownEntryType reports whether t is one of the contractual ledger types.
func KnownEntryType(t EntryType) bool {
	switch t {
	case TypeSalePrepaymentCash, TypeSalePrepaymentCard, TypeSalePrepaymentMixed,
		TypeSaleAcceptedCash, TypeSaleAcceptedCard, TypeSaleAcceptedMixed,
		TypeSaleCancelReverse:
		return true
	}
	return false
}

// ExpectedSign returns +1 for credit types and -1 for reversals.
func ExpectedSign(t EntryType) int {
	if t == TypeSaleCancelReverse {
		return -1
	}
	return 1
}

// LedgerEntry is an immutable monetary fact. Amounts are signed integers
// in minor currency units. After creation only Status may change, and
// only from POSTED to VOID; a reversal is always a new entry.
type LedgerEntry struct {
	bun.BaseModel `bun:"table:money_ledger"`

	ID          int64       `bun:"id,pk,autoincrement" json:"id"`
	BusinessDay string      `bun:"business_day" json:"business_day"`
	Kind        EntryKind   `bun:"kind" json:"kind"`
	Type        EntryType   `bun:"type" json:"type"`
	Amount      int64       `bun:"amount" json:"amount"`
	Method      PayMethod   `bun:"method" json:"method"`
	Status      EntryStatus `bun:"status" json:"status"`
	SellerID    *int64      `bun:"seller_id,nullzero" json:"seller_id,omitempty"`
	PresaleID   *int64      `bun:"presale_id,nullzero" json:"presale_id,omitempty"`
	SlotID      *int64      `bun:"slot_id,nullzero" json:"slot_id,omitempty"`
	EventTime   time.Time   `bun:"event_time" json:"event_time"`
}
