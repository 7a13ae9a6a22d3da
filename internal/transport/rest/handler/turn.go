package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"mockmate/internal/service"
	"mockmate/internal/transport/rest/middleware"
)

// TurnHandler handles question and answer endpoints
type TurnHandler struct {
	orchestrator *service.Orchestrator
}

// NewTurnHandler creates a new turn handler
func NewTurnHandler(orchestrator *service.Orchestrator) *TurnHandler {
	return &TurnHandler{orchestrator: orchestrator}
}

// QuestionRequest is the request body for posting a question
type QuestionRequest struct {
	Text         string `json:"text"`
	TimerSeconds int    `json:"timerSeconds,omitempty"`
}

// SubmitQuestion handles POST /v1/sessions/{sessionId}/questions
func (h *TurnHandler) SubmitQuestion(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	authorID := middleware.GetParticipantID(r.Context())
	if authorID == "" {
		authorID = middleware.GetHostID(r.Context())
	}
	if authorID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	question, err := h.orchestrator.SubmitQuestion(r.Context(), sessionID, authorID, req.Text, req.TimerSeconds)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

// AnswerRequest is the request body for submitting an answer
type AnswerRequest struct {
	Text string `json:"text"`
}

// SubmitAnswer handles POST /v1/sessions/{sessionId}/answers
func (h *TurnHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	authorID := middleware.GetParticipantID(r.Context())
	if authorID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	// Participant tokens are scoped to one session.
	if middleware.GetSessionID(r.Context()) != sessionID {
		writeError(w, http.StatusForbidden, "token not valid for this session")
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	answer, err := h.orchestrator.SubmitAnswer(r.Context(), sessionID, authorID, req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, answer)
}

// ListQuestions handles GET /v1/sessions/{sessionId}/questions
func (h *TurnHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	questions, err := h.orchestrator.QuestionsFor(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

// ListAnswers handles GET /v1/questions/{questionId}/answers
func (h *TurnHandler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	questionID := mux.Vars(r)["questionId"]

	answers, err := h.orchestrator.AnswersFor(r.Context(), questionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}
