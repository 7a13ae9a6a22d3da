package service

import "fmt"

// Event types published on session topics.
const (
	EventSessionStarted   = "session_started"
	EventSessionEnded     = "session_ended"
	EventParticipantJoin  = "participant_joined"
	EventParticipantLeave = "participant_left"
	EventQuestionPosted   = "question_posted"
	EventAnswerSubmitted  = "answer_submitted"
	EventFeedbackReady    = "feedback_ready"
)

// Broadcaster fans events out to session topic subscribers (avoids import
// cycle with the ws package, which implements it). Publish is best-effort
// and must never block the caller.
type Broadcaster interface {
	Publish(topic string, eventType string, payload interface{})
}

// PresenceTopic carries join/leave events and online-set snapshots.
func PresenceTopic(sessionID string) string {
	return fmt.Sprintf("session:%s:presence", sessionID)
}

// QATopic carries question, answer, and feedback events.
func QATopic(sessionID string) string {
	return fmt.Sprintf("session:%s:qa", sessionID)
}

// ControlTopic carries lifecycle transitions.
func ControlTopic(sessionID string) string {
	return fmt.Sprintf("session:%s:control", sessionID)
}

// SessionTopics lists every topic scoped to one session, in the order the
// ws transport subscribes to them.
func SessionTopics(sessionID string) []string {
	return []string{
		PresenceTopic(sessionID),
		QATopic(sessionID),
		ControlTopic(sessionID),
	}
}
