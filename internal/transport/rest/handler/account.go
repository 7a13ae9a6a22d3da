package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"mockmate/internal/service"
	"mockmate/internal/transport/rest/middleware"
)

// AccountHandler handles subscription usage and participation history
type AccountHandler struct {
	quota    *service.QuotaService
	presence *service.PresenceService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(quota *service.QuotaService, presence *service.PresenceService) *AccountHandler {
	return &AccountHandler{quota: quota, presence: presence}
}

// Usage handles GET /v1/usage
func (h *AccountHandler) Usage(w http.ResponseWriter, r *http.Request) {
	hostID := middleware.GetHostID(r.Context())
	if hostID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sub, err := h.quota.Usage(r.Context(), hostID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sub == nil {
		writeError(w, http.StatusNotFound, "no active subscription")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionLimit": sub.SessionLimit,
		"usedSessions": sub.UsedSessions,
		"periodEnd":    sub.PeriodEnd,
	})
}

// Participations handles GET /v1/users/{userId}/participations
func (h *AccountHandler) Participations(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	rows, err := h.presence.SessionsFor(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
