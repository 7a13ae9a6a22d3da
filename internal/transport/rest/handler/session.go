package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"mockmate/internal/model"
	"mockmate/internal/service"
	"mockmate/internal/transport/rest/middleware"
)

// SessionHandler handles session lifecycle and participation endpoints
type SessionHandler struct {
	orchestrator *service.Orchestrator
	registry     *service.RegistryService
	presence     *service.PresenceService
	authSvc      *service.AuthService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(orchestrator *service.Orchestrator, registry *service.RegistryService, presence *service.PresenceService, authSvc *service.AuthService) *SessionHandler {
	return &SessionHandler{
		orchestrator: orchestrator,
		registry:     registry,
		presence:     presence,
		authSvc:      authSvc,
	}
}

// CreateSessionRequest is the request body for creating a session
type CreateSessionRequest struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	hostID := middleware.GetHostID(r.Context())
	if hostID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	sessionType := model.SessionType(req.Type)
	switch sessionType {
	case model.SessionText, model.SessionVoice, model.SessionVideo:
	case "":
		sessionType = model.SessionText
	default:
		writeError(w, http.StatusBadRequest, "unknown session type")
		return
	}

	session, err := h.orchestrator.CreateSession(r.Context(), hostID, req.Title, sessionType)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// List handles GET /v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	hostID := middleware.GetHostID(r.Context())
	if hostID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sessions, err := h.registry.ListByHost(r.Context(), hostID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// Get handles GET /v1/sessions/{sessionId}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	session, err := h.registry.Get(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Start handles POST /v1/sessions/{sessionId}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	if err := h.orchestrator.StartSession(r.Context(), sessionID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(model.SessionRunning)})
}

// End handles POST /v1/sessions/{sessionId}/end
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	if err := h.orchestrator.EndSession(r.Context(), sessionID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(model.SessionEnded)})
}

// JoinRequest is the request body for joining a session
type JoinRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// JoinResponse is returned when a participant joins a session
type JoinResponse struct {
	Token  string              `json:"token"`
	Online []model.Participant `json:"online"`
}

// Join handles POST /v1/sessions/{sessionId}/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	online, err := h.orchestrator.JoinSession(r.Context(), sessionID, req.UserID, model.Role(req.Role))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := h.authSvc.GenerateParticipantToken(sessionID, req.UserID, model.Role(req.Role))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, &JoinResponse{Token: token, Online: online})
}

// Leave handles POST /v1/sessions/{sessionId}/leave
func (h *SessionHandler) Leave(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	userID := middleware.GetParticipantID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	// Participant tokens are scoped to one session.
	if middleware.GetSessionID(r.Context()) != sessionID {
		writeError(w, http.StatusForbidden, "token not valid for this session")
		return
	}

	online, err := h.orchestrator.LeaveSession(r.Context(), sessionID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"online": online})
}

// Presence handles GET /v1/sessions/{sessionId}/presence
func (h *SessionHandler) Presence(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	if _, err := h.registry.Get(r.Context(), sessionID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"online": h.presence.Online(r.Context(), sessionID)})
}

// Participants handles GET /v1/sessions/{sessionId}/participants: the full
// history including everyone who has left.
func (h *SessionHandler) Participants(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	if _, err := h.registry.Get(r.Context(), sessionID); err != nil {
		writeServiceError(w, err)
		return
	}
	rows, err := h.presence.History(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// RecordingRequest carries the opaque media URL from the blob-store side.
type RecordingRequest struct {
	URL string `json:"url"`
}

// AttachRecording handles PUT /v1/sessions/{sessionId}/recording
func (h *SessionHandler) AttachRecording(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req RecordingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	if err := h.registry.AttachRecording(r.Context(), sessionID, req.URL); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"recordingUrl": req.URL})
}
