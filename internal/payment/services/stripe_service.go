package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"ms-excursions/internal/config"
	"ms-excursions/internal/logger"
	"ms-excursions/internal/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

var (
	ErrStripeAPIError         = errors.New("stripe API error")
	ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")
)

// StripeService handles integration with the Stripe payment gateway.
// Amounts are passed through as minor currency units, the same
// convention the ledger uses.
type StripeService struct {
	client   *client.API
	currency string
	log      *logger.Logger
}

// NewStripeService creates a new instance of StripeService
func NewStripeService(cfg config.StripeConfig, log *logger.Logger) (*StripeService, error) {
	if cfg.SecretKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY environment variable not set")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(cfg.SecretKey, nil)
	if sc == nil {
		log.Error("STRIPE", "Failed to initialize Stripe client")
		return nil, ErrStripeClientInitFailed
	}

	currency := cfg.Currency
	if currency == "" {
		currency = "eur"
	}

	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeService{
		client:   sc,
		currency: currency,
		log:      log,
	}, nil
}

// ProcessPayment charges the card portion of a presale through Stripe.
func (s *StripeService) ProcessPayment(ctx context.Context, req *models.CardPaymentRequest) (*models.CardPaymentResponse, error) {
	s.log.Info("PROCESS", fmt.Sprintf("Processing Stripe payment for presale %d, amount: %d %s",
		req.PresaleID, req.Amount, req.Currency))

	if req.Amount <= 0 {
		s.log.Error("ERROR", fmt.Sprintf("Invalid amount for presale %d: %d", req.PresaleID, req.Amount))
		return nil, fmt.Errorf("invalid payment amount: %d", req.Amount)
	}
	if req.Token == "" {
		return nil, fmt.Errorf("%w: no payment method provided", ErrStripeAPIError)
	}

	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}

	metadata := map[string]string{
		"presale_id": strconv.FormatInt(req.PresaleID, 10),
	}

	piParams := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(currency),
		PaymentMethod:      stripe.String(req.Token),
		Description:        stripe.String(req.Description),
		Metadata:           metadata,
		ConfirmationMethod: stripe.String("manual"),
		Confirm:            stripe.Bool(true),
		PaymentMethodTypes: []*string{stripe.String("card")},
	}

	s.log.Info("STRIPE", fmt.Sprintf("Creating payment intent (presaleID: %d)", req.PresaleID))
	pi, err := s.client.PaymentIntents.New(piParams)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("Failed to create payment intent: %v", err))
		return nil, fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}
	s.log.Info("STRIPE", fmt.Sprintf("Payment intent created: %s (presaleID: %d)", pi.ID, req.PresaleID))

	var status models.PaymentStatus
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		status = models.PaymentSucceeded
		s.log.Info("STRIPE", fmt.Sprintf("Payment succeeded (presaleID: %d)", req.PresaleID))
	case stripe.PaymentIntentStatusProcessing:
		status = models.PaymentPending
		s.log.Info("STRIPE", fmt.Sprintf("Payment is processing (presaleID: %d)", req.PresaleID))
	case stripe.PaymentIntentStatusRequiresAction:
		status = models.PaymentPending
		s.log.Info("STRIPE", fmt.Sprintf("Payment requires further action (presaleID: %d)", req.PresaleID))
	default:
		status = models.PaymentFailed
		s.log.Error("STRIPE", fmt.Sprintf("Payment failed with status: %s (presaleID: %d)", pi.Status, req.PresaleID))
	}

	response := &models.CardPaymentResponse{
		PresaleID:     req.PresaleID,
		Status:        status,
		Amount:        pi.Amount,
		Currency:      string(pi.Currency),
		TransactionID: pi.ID,
	}

	if pi.LatestCharge != nil && pi.LatestCharge.ID != "" {
		charge, err := s.client.Charges.Get(pi.LatestCharge.ID, nil)
		if err == nil && charge.ReceiptURL != "" {
			response.ReceiptURL = charge.ReceiptURL
		}
	}

	return response, nil
}

// RefundPayment reverses a charge made for a presale. A zero amount
// refunds the full charge.
func (s *StripeService) RefundPayment(ctx context.Context, transactionID string, amount int64) (string, error) {
	if transactionID == "" {
		return "", fmt.Errorf("%w: missing transaction id", ErrStripeAPIError)
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(transactionID),
	}
	if amount > 0 {
		params.Amount = stripe.Int64(amount)
	}

	s.log.Info("STRIPE", fmt.Sprintf("Creating refund for payment intent %s", transactionID))
	ref, err := s.client.Refunds.New(params)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("Failed to create refund: %v", err))
		return "", fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}

	s.log.Info("STRIPE", fmt.Sprintf("Refund created: %s (payment intent: %s)", ref.ID, transactionID))
	return ref.ID, nil
}
