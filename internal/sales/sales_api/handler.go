package sales_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"ms-excursions/internal/auth"
	"ms-excursions/internal/inventory"
	"ms-excursions/internal/ledger"
	"ms-excursions/internal/logger"
	"ms-excursions/internal/models"
	"ms-excursions/internal/sales"
	"ms-excursions/internal/season"
	"ms-excursions/internal/shift"
	"ms-excursions/internal/utils"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the transactional surface: sales, refunds, voids,
// shift closure and the season fold.
type Handler struct {
	Sales      *sales.Service
	Inventory  *inventory.Service
	Ledger     *ledger.Service
	Shift      *shift.Service
	Aggregator *season.Aggregator
	Logger     *logger.Logger
}

func NewHandler(salesSvc *sales.Service, inv *inventory.Service, ledgerSvc *ledger.Service, shiftSvc *shift.Service, agg *season.Aggregator, log *logger.Logger) *Handler {
	return &Handler{
		Sales:      salesSvc,
		Inventory:  inv,
		Ledger:     ledgerSvc,
		Shift:      shiftSvc,
		Aggregator: agg,
		Logger:     log,
	}
}

// RegisterRoutes registers the transactional routes on a chi router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/slots/{slotUid}/availability", h.GetSlotAvailability)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(models.RoleSeller, models.RoleDispatcher, models.RoleOwner))
		r.Post("/sales", h.RecordSale)
		r.Post("/refunds", h.RecordRefund)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(models.RoleDispatcher, models.RoleOwner))
		r.Post("/shifts/{day}/close", h.CloseShift)
		r.Post("/seasons/days/{day}/apply", h.ApplySeasonDay)
		r.Post("/ledger/{entryId}/void", h.VoidEntry)
	})
}

func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "RecordSale: received request")

	var req models.SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RecordSale: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	// A seller can only book against their own shift.
	if identity, ok := auth.IdentityFromContext(r.Context()); ok && identity.Role == models.RoleSeller {
		req.SellerID = identity.SellerID
	}

	result, err := h.Sales.RecordSale(r.Context(), req)
	if err != nil {
		h.writeSaleError(w, "RecordSale", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RecordSale: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("RecordSale: presale %d created", result.Presale.ID))
}

func (h *Handler) RecordRefund(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "RecordRefund: received request")

	var req models.RefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RecordRefund: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.Sales.RecordRefund(r.Context(), req)
	if err != nil {
		h.writeSaleError(w, "RecordRefund", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RecordRefund: failed to encode response: %v", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("RecordRefund: %d tickets cancelled", result.Cancelled))
}

func (h *Handler) GetSlotAvailability(w http.ResponseWriter, r *http.Request) {
	slotUID := chi.URLParam(r, "slotUid")
	if slotUID == "" {
		http.Error(w, "Slot uid is required", http.StatusBadRequest)
		return
	}

	available, err := h.Inventory.AvailableSeats(r.Context(), slotUID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetSlotAvailability: %v", err))
		http.Error(w, "Slot not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"slot_uid":  slotUID,
		"available": available,
	})
}

func (h *Handler) CloseShift(w http.ResponseWriter, r *http.Request) {
	day := chi.URLParam(r, "day")
	h.Logger.Info("API", fmt.Sprintf("CloseShift: day=%s", day))

	actor := "unknown"
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		actor = identity.Subject
	}

	closure, err := h.Shift.Close(r.Context(), day, actor)
	if err != nil {
		var alreadyClosed *models.AlreadyClosedError
		var invalid *models.ValidationError
		switch {
		case errors.As(err, &alreadyClosed):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.As(err, &invalid):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.Logger.Error("API", fmt.Sprintf("CloseShift: %v", err))
			http.Error(w, "Could not close day: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(closure)
}

// ApplySeasonDay recomputes the day's stats and folds them into the
// season totals. Safe to call repeatedly; already-applied sellers are
// skipped.
func (h *Handler) ApplySeasonDay(w http.ResponseWriter, r *http.Request) {
	day := chi.URLParam(r, "day")
	h.Logger.Info("API", fmt.Sprintf("ApplySeasonDay: day=%s", day))

	if !utils.ValidBusinessDay(day) {
		http.Error(w, "Business day must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	if _, err := h.Aggregator.RecomputeDayStats(r.Context(), day); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ApplySeasonDay: recompute failed: %v", err))
		http.Error(w, "Could not recompute day stats: "+err.Error(), http.StatusInternalServerError)
		return
	}

	result, err := h.Aggregator.Apply(r.Context(), day)
	if err != nil {
		if errors.Is(err, season.ErrDayOpen) {
			http.Error(w, "Day must be closed before it can be applied", http.StatusConflict)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("ApplySeasonDay: apply failed: %v", err))
		http.Error(w, "Could not apply day: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (h *Handler) VoidEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryId"), 10, 64)
	if err != nil {
		http.Error(w, "Entry id must be numeric", http.StatusBadRequest)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("VoidEntry: entryId=%d", entryID))

	if err := h.Ledger.Void(r.Context(), entryID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("VoidEntry: %v", err))
		http.Error(w, "Could not void entry: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeSaleError(w http.ResponseWriter, op string, err error) {
	var validation *models.ValidationError
	var capacity *models.CapacityExceededError
	var closed *models.AlreadyClosedError
	switch {
	case errors.As(err, &capacity):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &closed):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &validation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		http.Error(w, "Internal error: "+err.Error(), http.StatusInternalServerError)
	}
}
