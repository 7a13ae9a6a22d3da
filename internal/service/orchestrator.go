package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"mockmate/internal/model"
)

// SessionEndHook is the report/badge collaborator boundary: notified
// exactly once per genuine end transition, always off the request path.
type SessionEndHook interface {
	OnSessionEnded(ctx context.Context, sessionID, hostID string) error
}

// Orchestrator is the single entry surface for the live session engine. It
// sequences quota, registry, presence, and turn-log calls and hands side
// effects to the outbox; it holds no locks of its own and never holds a
// component's lock across an external call.
type Orchestrator struct {
	quota       *QuotaService
	registry    *RegistryService
	presence    *PresenceService
	turns       *TurnService
	feedback    FeedbackGenerator
	endHook     SessionEndHook
	dispatcher  *Dispatcher
	broadcaster Broadcaster
	log         zerolog.Logger
}

// NewOrchestrator creates a new session orchestrator
func NewOrchestrator(
	quota *QuotaService,
	registry *RegistryService,
	presence *PresenceService,
	turns *TurnService,
	feedback FeedbackGenerator,
	endHook SessionEndHook,
	dispatcher *Dispatcher,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		quota:      quota,
		registry:   registry,
		presence:   presence,
		turns:      turns,
		feedback:   feedback,
		endHook:    endHook,
		dispatcher: dispatcher,
		log:        log.With().Str("component", "orchestrator").Logger(),
	}
}

// SetBroadcaster sets the broadcaster for presence and qa topic events
func (o *Orchestrator) SetBroadcaster(b Broadcaster) {
	o.broadcaster = b
}

// CreateSession reserves quota, then creates the session. A registry failure
// compensates by releasing the reservation; this is best-effort rollback,
// not a two-phase transaction. The reservation is the scarce resource.
func (o *Orchestrator) CreateSession(ctx context.Context, hostID, title string, sessionType model.SessionType) (*model.Session, error) {
	ok, err := o.quota.Reserve(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("reserve quota: %w", err)
	}
	if !ok {
		return nil, ErrQuotaExceeded
	}

	session, err := o.registry.Create(ctx, hostID, title, sessionType)
	if err != nil {
		if relErr := o.quota.Release(ctx, hostID); relErr != nil {
			o.log.Error().Err(relErr).Str("hostId", hostID).Msg("quota compensation failed")
		}
		return nil, err
	}
	return session, nil
}

// StartSession moves the session to RUNNING.
func (o *Orchestrator) StartSession(ctx context.Context, sessionID string) error {
	return o.registry.Start(ctx, sessionID)
}

// JoinSession adds the user to the session's online set and publishes the
// resulting set on the presence topic.
func (o *Orchestrator) JoinSession(ctx context.Context, sessionID, userID string, role model.Role) ([]model.Participant, error) {
	session, err := o.registry.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionEnded {
		return nil, ErrSessionEnded
	}

	online, err := o.presence.Join(ctx, sessionID, userID, role)
	if err != nil {
		return nil, err
	}

	// The session may have ended between the status check and the join.
	// Re-check after the presence write: whichever side runs second sees the
	// other's effect, so nobody stays online in an ended session.
	session, err = o.registry.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionEnded {
		if _, leaveErr := o.presence.Leave(ctx, sessionID, userID); leaveErr != nil {
			o.log.Error().Err(leaveErr).Str("sessionId", sessionID).Str("userId", userID).Msg("undo join on ended session")
		}
		return nil, ErrSessionEnded
	}

	o.publish(PresenceTopic(sessionID), EventParticipantJoin, map[string]interface{}{
		"sessionId": sessionID,
		"userId":    userID,
		"online":    online,
	})
	return online, nil
}

// LeaveSession is the symmetric counterpart of JoinSession.
func (o *Orchestrator) LeaveSession(ctx context.Context, sessionID, userID string) ([]model.Participant, error) {
	if _, err := o.registry.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	online, err := o.presence.Leave(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	o.publish(PresenceTopic(sessionID), EventParticipantLeave, map[string]interface{}{
		"sessionId": sessionID,
		"userId":    userID,
		"online":    online,
	})
	return online, nil
}

// SubmitQuestion appends a question to the turn log and publishes it.
func (o *Orchestrator) SubmitQuestion(ctx context.Context, sessionID, authorID, text string, timerSeconds int) (*model.Question, error) {
	if err := o.requireOpenSession(ctx, sessionID); err != nil {
		return nil, err
	}

	question, err := o.turns.AppendQuestion(ctx, sessionID, authorID, text, timerSeconds)
	if err != nil {
		return nil, err
	}

	o.publish(QATopic(sessionID), EventQuestionPosted, question)
	return question, nil
}

// SubmitAnswer appends an answer, publishes it, and enqueues feedback
// generation. The feedback call is fire-and-forget with respect to the
// stored answer: its failure degrades to a placeholder, never an error to
// the submitting participant.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, sessionID, authorID, text string) (*model.Answer, error) {
	if err := o.requireOpenSession(ctx, sessionID); err != nil {
		return nil, err
	}

	answer, err := o.turns.AppendAnswer(ctx, sessionID, authorID, text)
	if err != nil {
		return nil, err
	}

	o.publish(QATopic(sessionID), EventAnswerSubmitted, answer)

	questionID := answer.QuestionID
	answerID := answer.ID
	answerText := answer.Text
	o.dispatcher.Enqueue("feedback", func(jobCtx context.Context) error {
		return o.generateFeedback(jobCtx, sessionID, questionID, answerID, answerText)
	})

	return answer, nil
}

// EndSession ends the session idempotently. The report/badge hand-off fires
// only when this call performed the actual transition, so duplicate end
// signals from concurrent triggers produce exactly one hand-off.
func (o *Orchestrator) EndSession(ctx context.Context, sessionID string) error {
	session, err := o.registry.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	ended, err := o.registry.End(ctx, sessionID)
	if err != nil {
		return err
	}
	if !ended {
		return nil
	}

	if err := o.presence.ClearSession(ctx, sessionID); err != nil {
		o.log.Error().Err(err).Str("sessionId", sessionID).Msg("clear presence on end")
	}

	hostID := session.HostID
	o.dispatcher.Enqueue("session-end-hook", func(jobCtx context.Context) error {
		return o.endHook.OnSessionEnded(jobCtx, sessionID, hostID)
	})
	return nil
}

// SessionMeta exposes the registry's cache-first slim read for the
// websocket auth path.
func (o *Orchestrator) SessionMeta(ctx context.Context, sessionID string) (*model.SessionMeta, error) {
	return o.registry.Meta(ctx, sessionID)
}

// QuestionsFor exposes the turn log's question read.
func (o *Orchestrator) QuestionsFor(ctx context.Context, sessionID string) ([]*model.Question, error) {
	return o.turns.QuestionsFor(ctx, sessionID)
}

// AnswersFor exposes the turn log's answer read.
func (o *Orchestrator) AnswersFor(ctx context.Context, questionID string) ([]*model.Answer, error) {
	return o.turns.AnswersFor(ctx, questionID)
}

func (o *Orchestrator) requireOpenSession(ctx context.Context, sessionID string) error {
	session, err := o.registry.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status == model.SessionEnded {
		return ErrSessionEnded
	}
	return nil
}

func (o *Orchestrator) generateFeedback(ctx context.Context, sessionID, questionID, answerID, answerText string) error {
	questionText := ""
	if questions, err := o.turns.QuestionsFor(ctx, sessionID); err == nil {
		for _, q := range questions {
			if q.ID == questionID {
				questionText = q.Text
				break
			}
		}
	}

	result, err := o.feedback.Generate(ctx, questionText, answerText)
	if err != nil {
		o.log.Error().Err(err).Str("answerId", answerID).Msg("feedback generation failed")
		result = PlaceholderFeedback()
	}

	o.publish(QATopic(sessionID), EventFeedbackReady, map[string]interface{}{
		"questionId": questionID,
		"answerId":   answerID,
		"feedback":   result,
	})
	return nil
}

func (o *Orchestrator) publish(topic, eventType string, payload interface{}) {
	if o.broadcaster == nil {
		return
	}
	o.broadcaster.Publish(topic, eventType, payload)
}
