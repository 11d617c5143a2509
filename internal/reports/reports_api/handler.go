package reports_api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ms-excursions/internal/auth"
	"ms-excursions/internal/logger"
	"ms-excursions/internal/models"
	"ms-excursions/internal/reports"
	"ms-excursions/internal/utils"

	"github.com/go-chi/chi/v5"
)

// Handler serves the reporting endpoints. Day and season reports are
// owner and dispatcher material; sellers only see their own season row.
type Handler struct {
	Service *reports.Service
	Logger  *logger.Logger
}

func NewHandler(service *reports.Service, logger *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: logger}
}

// RegisterRoutes registers the reporting routes on a chi router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleOwner, models.RoleDispatcher))
			r.Get("/days/{day}", h.GetDayReport)
			r.Get("/days/{day}/entries", h.GetDayEntries)
			r.Get("/days/{day}/stats", h.GetDayStats)
			r.Get("/seasons/{seasonId}", h.GetSeasonLeaderboard)
		})
		r.Get("/slots/{slotUid}/occupancy", h.GetSlotOccupancy)
		r.Get("/seasons/{seasonId}/sellers/{sellerId}", h.GetSellerSeason)
	})
}

func sendJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) GetDayReport(w http.ResponseWriter, r *http.Request) {
	day := chi.URLParam(r, "day")
	if !utils.ValidBusinessDay(day) {
		h.Logger.Error("REPORTS", "invalid business day: "+day)
		sendJSONResponse(w, http.StatusBadRequest, map[string]string{"error": "business day must be YYYY-MM-DD"})
		return
	}

	report, err := h.Service.GetDayReport(r.Context(), day)
	if err != nil {
		h.Logger.Error("REPORTS", "Error building day report: "+err.Error())
		sendJSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "Failed to build day report"})
		return
	}
	sendJSONResponse(w, http.StatusOK, report)
}

func (h *Handler) GetDayEntries(w http.ResponseWriter, r *http.Request) {
	day := chi.URLParam(r, "day")
	if !utils.ValidBusinessDay(day) {
		sendJSONResponse(w, http.StatusBadRequest, map[string]string{"error": "business day must be YYYY-MM-DD"})
		return
	}

	entries, err := h.Service.GetDayEntries(r.Context(), day)
	if err != nil {
		h.Logger.Error("REPORTS", "Error listing day entries: "+err.Error())
		sendJSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list entries"})
		return
	}
	sendJSONResponse(w, http.StatusOK, entries)
}

func (h *Handler) GetDayStats(w http.ResponseWriter, r *http.Request) {
	day := chi.URLParam(r, "day")
	if !utils.ValidBusinessDay(day) {
		sendJSONResponse(w, http.StatusBadRequest, map[string]string{"error": "business day must be YYYY-MM-DD"})
		return
	}

	stats, err := h.Service.GetDayStats(r.Context(), day)
	if err != nil {
		h.Logger.Error("REPORTS", "Error listing day stats: "+err.Error())
		sendJSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list day stats"})
		return
	}
	sendJSONResponse(w, http.StatusOK, stats)
}

func (h *Handler) GetSlotOccupancy(w http.ResponseWriter, r *http.Request) {
	slotUID := chi.URLParam(r, "slotUid")
	if slotUID == "" {
		sendJSONResponse(w, http.StatusBadRequest, map[string]string{"error": "slot uid is required"})
		return
	}

	occupancy, err := h.Service.GetSlotOccupancy(r.Context(), slotUID)
	if err != nil {
		h.Logger.Error("REPORTS", "Error deriving slot occupancy: "+err.Error())
		sendJSONResponse(w, http.StatusNotFound, map[string]string{"error": "Slot not found"})
		return
	}
	sendJSONResponse(w, http.StatusOK, occupancy)
}

func (h *Handler) GetSeasonLeaderboard(w http.ResponseWriter, r *http.Request) {
	seasonID, err := strconv.Atoi(chi.URLParam(r, "seasonId"))
	if err != nil {
		sendJSONResponse(w, http.StatusBadRequest, map[string]string{"error": "season id must be numeric"})
		return
	}

	board, err := h.Service.GetSeasonLeaderboard(r.Context(), seasonID)
	if err != nil {
		h.Logger.Error("REPORTS", "Error building season leaderboard: "+err.Error())
		sendJSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "Failed to build leaderboard"})
		return
	}
	sendJSONResponse(w, http.StatusOK, board)
}

// GetSellerSeason lets a seller read their own cumulative row. Owners
// and dispatchers can read anyone's.
func (h *Handler) GetSellerSeason(w http.ResponseWriter, r *http.Request) {
	seasonID, err := strconv.Atoi(chi.URLParam(r, "seasonId"))
	if err != nil {
		sendJSONResponse(w, http.StatusBadRequest, map[string]string{"error": "season id must be numeric"})
		return
	}
	sellerID, err := strconv.ParseInt(chi.URLParam(r, "sellerId"), 10, 64)
	if err != nil {
		sendJSONResponse(w, http.StatusBadRequest, map[string]string{"error": "seller id must be numeric"})
		return
	}

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		sendJSONResponse(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized access"})
		return
	}
	if identity.Role == models.RoleSeller && identity.SellerID != sellerID {
		h.Logger.Warn("REPORTS", "Seller attempted to read another seller's season stats")
		sendJSONResponse(w, http.StatusForbidden, map[string]string{"error": "You can only read your own season stats"})
		return
	}

	stats, err := h.Service.GetSellerSeason(r.Context(), sellerID, seasonID)
	if err != nil {
		h.Logger.Error("REPORTS", "Error reading season stats: "+err.Error())
		sendJSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read season stats"})
		return
	}
	if stats == nil {
		sendJSONResponse(w, http.StatusNotFound, map[string]string{"error": "No season stats for this seller"})
		return
	}
	sendJSONResponse(w, http.StatusOK, stats)
}
