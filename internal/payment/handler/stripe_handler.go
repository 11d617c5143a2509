package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ms-excursions/internal/kafka"
	"ms-excursions/internal/logger"
	"ms-excursions/internal/models"
	"ms-excursions/internal/payment/services"
	"ms-excursions/internal/payment/storage"
	"ms-excursions/internal/utils"

	"github.com/gin-gonic/gin"
)

// PresaleReader looks up the presale a card charge settles.
type PresaleReader interface {
	GetPresaleByID(ctx context.Context, id int64) (*models.Presale, error)
}

type StripeHandler struct {
	stripeService *services.StripeService
	paymentStore  storage.Store
	producer      *kafka.Producer
	presales      PresaleReader
	logger        *logger.Logger
}

func NewStripeHandler(stripeService *services.StripeService, paymentStore storage.Store, producer *kafka.Producer, presales PresaleReader, logger *logger.Logger) *StripeHandler {
	return &StripeHandler{
		stripeService: stripeService,
		paymentStore:  paymentStore,
		producer:      producer,
		presales:      presales,
		logger:        logger,
	}
}

// ChargeCard charges the card portion of a presale through Stripe.
// The amount is clamped to what the presale still owes so the terminal
// client can never overcharge.
func (h *StripeHandler) ChargeCard(c *gin.Context) {
	var req models.CardPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	presale, err := h.presales.GetPresaleByID(c.Request.Context(), req.PresaleID)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request",
			fmt.Sprintf("no presale found for id %d", req.PresaleID)))
		return
	}

	outstanding := presale.TotalPrice - presale.PrepaymentAmount
	if outstanding <= 0 {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request",
			fmt.Sprintf("presale %d has nothing outstanding", presale.ID)))
		return
	}
	if req.Amount > outstanding {
		h.logger.Info("PAYMENT", fmt.Sprintf("Clamping amount %d to outstanding %d for presale %d",
			req.Amount, outstanding, presale.ID))
		req.Amount = outstanding
	}

	// Record the attempt before talking to Stripe so a crash between
	// the charge and the update still leaves a trace.
	record := &models.Payment{
		PaymentID: utils.GeneratePaymentID(),
		PresaleID: presale.ID,
		Status:    models.PaymentPending,
		Amount:    req.Amount,
		Currency:  req.Currency,
		CreatedAt: time.Now(),
	}
	if err := h.paymentStore.SavePayment(record); err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Payment creation failed", err.Error()))
		return
	}

	result, err := h.stripeService.ProcessPayment(c.Request.Context(), &req)
	if err != nil {
		record.Status = models.PaymentFailed
		if uerr := h.paymentStore.UpdatePayment(record); uerr != nil {
			h.logger.Error("PAYMENT", fmt.Sprintf("Failed to mark payment %s failed: %v", record.PaymentID, uerr))
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Payment processing failed", err.Error()))
		return
	}

	record.Status = result.Status
	record.TransactionID = result.TransactionID
	record.Currency = result.Currency
	if err := h.paymentStore.UpdatePayment(record); err != nil {
		// The charge went through; log and keep going.
		h.logger.Error("PAYMENT", fmt.Sprintf("Failed to update payment record %s: %v", record.PaymentID, err))
	}

	result.PaymentID = record.PaymentID

	if err := h.producer.PublishCardPayment(record); err != nil {
		h.logger.LogKafka("PUBLISH", kafka.TopicCardPayment, fmt.Sprintf("Failed to publish card payment %s: %v", record.PaymentID, err))
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment processed", map[string]interface{}{
		"stripe_result":  result,
		"payment_record": record,
	}))
}

// RefundCard reverses the card charge of a presale. A zero amount in
// the request refunds the full charge.
func (h *StripeHandler) RefundCard(c *gin.Context) {
	var req models.CardRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	record, err := h.paymentStore.GetPaymentByPresaleID(req.PresaleID)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request",
			fmt.Sprintf("no payment record found for presale %d", req.PresaleID)))
		return
	}
	if record.Status != models.PaymentSucceeded {
		c.JSON(http.StatusConflict, utils.ErrorResponse("Refund not possible",
			fmt.Sprintf("payment %s is %s, only succeeded payments can be refunded", record.PaymentID, record.Status)))
		return
	}
	if req.Amount > record.Amount {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request",
			fmt.Sprintf("refund amount %d exceeds charged amount %d", req.Amount, record.Amount)))
		return
	}

	refundID, err := h.stripeService.RefundPayment(c.Request.Context(), record.TransactionID, req.Amount)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Refund processing failed", err.Error()))
		return
	}

	record.Status = models.PaymentRefunded
	if err := h.paymentStore.UpdatePayment(record); err != nil {
		h.logger.Error("PAYMENT", fmt.Sprintf("Failed to mark payment %s refunded: %v", record.PaymentID, err))
	}

	if err := h.producer.PublishCardPayment(record); err != nil {
		h.logger.LogKafka("PUBLISH", kafka.TopicCardPayment, fmt.Sprintf("Failed to publish card refund %s: %v", record.PaymentID, err))
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Refund processed", map[string]interface{}{
		"refund_id":      refundID,
		"payment_record": record,
	}))
}

// GetPayment returns one payment record by its id.
func (h *StripeHandler) GetPayment(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request", "payment id is required"))
		return
	}

	record, err := h.paymentStore.GetPayment(id)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Payment not found", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment retrieved", record))
}
