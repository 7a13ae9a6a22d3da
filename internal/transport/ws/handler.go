package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"mockmate/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler bridges websocket connections onto the hub's session topics
type Handler struct {
	hub          *Hub
	authSvc      *service.AuthService
	orchestrator *service.Orchestrator
	log          zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authSvc *service.AuthService, orchestrator *service.Orchestrator, log zerolog.Logger) *Handler {
	return &Handler{
		hub:          hub,
		authSvc:      authSvc,
		orchestrator: orchestrator,
		log:          log.With().Str("component", "ws").Logger(),
	}
}

// SessionWS handles GET /v1/ws/sessions/{sessionId}. Hosts authenticate
// with a host token, everyone else with the session-scoped participant
// token handed out on join.
func (h *Handler) SessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	var userID string
	isParticipant := false
	if claims, err := h.authSvc.ValidateParticipantToken(token); err == nil && claims.SessionID != "" {
		if claims.SessionID != sessionID {
			http.Error(w, "token not valid for this session", http.StatusForbidden)
			return
		}
		userID = claims.UserID
		isParticipant = true
	} else if claims, err := h.authSvc.ValidateHostToken(token); err == nil {
		userID = claims.UserID
	} else {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if _, err := h.orchestrator.SessionMeta(r.Context(), sessionID); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
		} else {
			http.Error(w, "session lookup failed", http.StatusInternalServerError)
		}
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	sub := h.hub.Subscribe(service.SessionTopics(sessionID)...)
	h.log.Info().Str("sessionId", sessionID).Str("userId", userID).Msg("websocket connected")

	go h.writePump(wsConn, sub)
	go h.readPump(wsConn, sub, sessionID, userID, isParticipant)
}

func (h *Handler) readPump(wsConn *websocket.Conn, sub *Subscriber, sessionID, userID string, isParticipant bool) {
	defer func() {
		h.hub.Unsubscribe(sub)
		wsConn.Close()
		if isParticipant {
			// Dropping the socket is an implicit leave.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := h.orchestrator.LeaveSession(ctx, sessionID, userID); err != nil {
				h.log.Warn().Err(err).Str("sessionId", sessionID).Str("userId", userID).Msg("leave on disconnect")
			}
		}
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn().Err(err).Msg("websocket read")
			}
			break
		}
		// Clients do not send data frames; submissions go over REST.
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, sub *Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-sub.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
