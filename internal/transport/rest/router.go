package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"mockmate/internal/service"
	"mockmate/internal/transport/rest/handler"
	"mockmate/internal/transport/rest/middleware"
	"mockmate/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService  *service.AuthService
	Orchestrator *service.Orchestrator
	Registry     *service.RegistryService
	Presence     *service.PresenceService
	Quota        *service.QuotaService
	ReportSvc    *service.ReportService
	WSHandler    *ws.Handler
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(c.AuthService)
	sessionHandler := handler.NewSessionHandler(c.Orchestrator, c.Registry, c.Presence, c.AuthService)
	turnHandler := handler.NewTurnHandler(c.Orchestrator)
	reportHandler := handler.NewReportHandler(c.ReportSvc)
	accountHandler := handler.NewAccountHandler(c.Quota, c.Presence)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	r.Use(corsMiddleware)

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{sessionId}/join", sessionHandler.Join).Methods("POST", "OPTIONS")

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws/sessions/{sessionId}", c.WSHandler.SessionWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Host routes
	hostRoutes := v1.NewRoute().Subrouter()
	hostRoutes.Use(authMW.RequireHost)

	hostRoutes.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/sessions", sessionHandler.List).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/sessions/{sessionId}", sessionHandler.Get).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/sessions/{sessionId}/start", sessionHandler.Start).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/sessions/{sessionId}/end", sessionHandler.End).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/sessions/{sessionId}/presence", sessionHandler.Presence).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/sessions/{sessionId}/participants", sessionHandler.Participants).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/usage", accountHandler.Usage).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/users/{userId}/participations", accountHandler.Participations).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/sessions/{sessionId}/recording", sessionHandler.AttachRecording).Methods("PUT", "OPTIONS")
	hostRoutes.HandleFunc("/sessions/{sessionId}/questions", turnHandler.SubmitQuestion).Methods("POST", "OPTIONS")
	hostRoutes.HandleFunc("/sessions/{sessionId}/questions", turnHandler.ListQuestions).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/questions/{questionId}/answers", turnHandler.ListAnswers).Methods("GET", "OPTIONS")
	hostRoutes.HandleFunc("/reports/{sessionId}", reportHandler.Get).Methods("GET", "OPTIONS")

	// Participant routes
	participantRoutes := v1.NewRoute().Subrouter()
	participantRoutes.Use(authMW.RequireParticipant)

	participantRoutes.HandleFunc("/sessions/{sessionId}/leave", sessionHandler.Leave).Methods("POST", "OPTIONS")
	participantRoutes.HandleFunc("/sessions/{sessionId}/answers", turnHandler.SubmitAnswer).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
