package models

import "github.com/uptrace/bun"

// TicketStatus is the lifecycle state of a single seat ticket.
type TicketStatus string

const (
	TicketActive        TicketStatus = "ACTIVE"
	TicketPaid          TicketStatus = "PAID"
	TicketUnpaid        TicketStatus = "UNPAID"
	TicketReserved      TicketStatus = "RESERVED"
	TicketPartiallyPaid TicketStatus = "PARTIALLY_PAID"
	TicketConfirmed     TicketStatus = "CONFIRMED"
	TicketUsed          TicketStatus = "USED"
	TicketCancelled     TicketStatus = "CANCELLED"
)

// ActiveTicketStatuses is the contractual set of statuses that occupy a
// seat. Every availability and points query filters on it verbatim.
var ActiveTicketStatuses = []TicketStatus{
	TicketActive, TicketPaid, TicketUnpaid, TicketReserved,
	TicketPartiallyPaid, TicketConfirmed, TicketUsed,
}

// Presale groups the tickets of one purchase against one slot.
type Presale struct {
	bun.BaseModel `bun:"table:presales"`

	ID               int64  `bun:"id,pk,autoincrement" json:"id"`
	SellerID         int64  `bun:"seller_id" json:"seller_id"`
	BusinessDay      string `bun:"business_day" json:"business_day"`
	TotalPrice       int64  `bun:"total_price" json:"total_price"`
	PrepaymentAmount int64  `bun:"prepayment_amount" json:"prepayment_amount"`
	Status           string `bun:"status" json:"status"`
	SlotUID          string `bun:"slot_uid" json:"slot_uid"`
}

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID        int64        `bun:"id,pk,autoincrement" json:"id"`
	PresaleID int64        `bun:"presale_id" json:"presale_id"`
	Status    TicketStatus `bun:"status" json:"status"`
	Price     int64        `bun:"price" json:"price"`
	PublicRef string       `bun:"public_ref" json:"public_ref"`
	QRCode    []byte       `bun:"qr_code" json:"qr_code,omitempty"`
}
