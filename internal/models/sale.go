package models

// SaleRequest is the input for recording a sale: seats on one slot plus
// the money taken for them. Amounts are minor currency units.
type SaleRequest struct {
	SellerID   int64     `json:"seller_id"`
	Kind       EntryKind `json:"kind"`
	SlotUID    string    `json:"slot_uid"`
	Seats      int       `json:"seats"`
	SeatPrice  int64     `json:"seat_price"`
	Prepayment int64     `json:"prepayment"`
	Method     PayMethod `json:"method"`
}

// SaleResult reports what one sale produced: the presale, its tickets
// and the ledger entry that booked the money.
type SaleResult struct {
	Presale Presale     `json:"presale"`
	Tickets []Ticket    `json:"tickets"`
	Entry   LedgerEntry `json:"entry"`
}

// RefundRequest cancels seats of an earlier presale and reverses part of
// its money. Amount is the positive sum being handed back.
type RefundRequest struct {
	PresaleID int64     `json:"presale_id"`
	Seats     int       `json:"seats"`
	Amount    int64     `json:"amount"`
	Method    PayMethod `json:"method"`
}

type RefundResult struct {
	Cancelled int         `json:"cancelled"`
	Entry     LedgerEntry `json:"entry"`
}
