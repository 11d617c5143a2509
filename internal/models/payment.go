package models

import "time"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Payment is the card-payment record kept next to the ledger. Amounts
// are minor currency units, matching the ledger convention.
type Payment struct {
	PaymentID     string        `json:"payment_id"`
	PresaleID     int64         `json:"presale_id"`
	Status        PaymentStatus `json:"status"`
	Amount        int64         `json:"amount"`
	Currency      string        `json:"currency"`
	TransactionID string        `json:"transaction_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at,omitempty"`
}

// CardPaymentRequest asks Stripe to charge the card portion of a presale.
// Token is a Stripe payment method id obtained by the terminal client.
type CardPaymentRequest struct {
	PresaleID   int64  `json:"presale_id" binding:"required"`
	Amount      int64  `json:"amount" binding:"required"`
	Currency    string `json:"currency"`
	Token       string `json:"token" binding:"required"`
	Description string `json:"description,omitempty"`
}

type CardPaymentResponse struct {
	PaymentID     string        `json:"payment_id"`
	PresaleID     int64         `json:"presale_id"`
	Status        PaymentStatus `json:"status"`
	Amount        int64         `json:"amount"`
	Currency      string        `json:"currency"`
	TransactionID string        `json:"transaction_id,omitempty"`
	ReceiptURL    string        `json:"receipt_url,omitempty"`
}

// CardRefundRequest reverses the card portion of a presale's payment.
type CardRefundRequest struct {
	PresaleID int64  `json:"presale_id" binding:"required"`
	Amount    int64  `json:"amount,omitempty"`
	Reason    string `json:"reason,omitempty"`
}
