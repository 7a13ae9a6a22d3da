package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mockmate/internal/model"
	"mockmate/internal/repository"
)

// turnState is the serialized tail of one session's turn log: how many
// questions exist and which one answers currently attach to.
type turnState struct {
	seeded           bool
	count            int
	latestQuestionID string
}

// TurnService is the append-only question/answer log. Order numbers are
// assigned under the session's mutex, so concurrent appends to one session
// yield exactly 1..K with no duplicates or gaps; appends to different
// sessions never contend. The in-memory counter seeds itself from the store
// on first touch so restarts resume the sequence.
type TurnService struct {
	questions repository.QuestionRepo
	answers   repository.AnswerRepo
	locks     *keyedMutex
	log       zerolog.Logger

	mapMu sync.Mutex
	state map[string]*turnState
}

// NewTurnService creates a new turn log
func NewTurnService(questions repository.QuestionRepo, answers repository.AnswerRepo, log zerolog.Logger) *TurnService {
	return &TurnService{
		questions: questions,
		answers:   answers,
		locks:     newKeyedMutex(),
		state:     make(map[string]*turnState),
		log:       log.With().Str("component", "turnlog").Logger(),
	}
}

// AppendQuestion writes the next question of the session, numbering it
// count+1. The counter only advances after the store accepts the write, so a
// failed insert leaves no gap.
func (s *TurnService) AppendQuestion(ctx context.Context, sessionID, authorID, text string, timerSeconds int) (*model.Question, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	st, err := s.seededState(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	question := &model.Question{
		ID:           uuid.New().String(),
		SessionID:    sessionID,
		AuthorID:     authorID,
		Text:         text,
		OrderNum:     st.count + 1,
		TimerSeconds: timerSeconds,
		CreatedAt:    time.Now(),
	}
	if err := s.questions.Create(ctx, question); err != nil {
		return nil, fmt.Errorf("append question: %w", err)
	}

	st.count++
	st.latestQuestionID = question.ID
	return question, nil
}

// AppendAnswer attaches an answer to the most recently appended question at
// the moment of the call. Submitting before any question exists is rejected
// with ErrNoActiveQuestion rather than silently dropped.
func (s *TurnService) AppendAnswer(ctx context.Context, sessionID, authorID, text string) (*model.Answer, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	st, err := s.seededState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st.count == 0 {
		return nil, ErrNoActiveQuestion
	}

	answer := &model.Answer{
		ID:         uuid.New().String(),
		QuestionID: st.latestQuestionID,
		SessionID:  sessionID,
		AuthorID:   authorID,
		Text:       text,
		CreatedAt:  time.Now(),
	}
	if err := s.answers.Create(ctx, answer); err != nil {
		return nil, fmt.Errorf("append answer: %w", err)
	}
	return answer, nil
}

// QuestionsFor returns the session's questions in append order.
func (s *TurnService) QuestionsFor(ctx context.Context, sessionID string) ([]*model.Question, error) {
	return s.questions.GetBySession(ctx, sessionID)
}

// AnswersFor returns a question's answers in append order, or
// ErrQuestionNotFound for an unknown question.
func (s *TurnService) AnswersFor(ctx context.Context, questionID string) ([]*model.Answer, error) {
	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	if question == nil {
		return nil, ErrQuestionNotFound
	}
	return s.answers.GetByQuestion(ctx, questionID)
}

// seededState returns the session's turn state, loading count and latest
// question from the store the first time the session is touched. Caller must
// hold the session lock.
func (s *TurnService) seededState(ctx context.Context, sessionID string) (*turnState, error) {
	s.mapMu.Lock()
	st, ok := s.state[sessionID]
	if !ok {
		st = &turnState{}
		s.state[sessionID] = st
	}
	s.mapMu.Unlock()

	if st.seeded {
		return st, nil
	}

	count, err := s.questions.CountBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("seed turn counter: %w", err)
	}
	st.count = count
	if count > 0 {
		latest, err := s.questions.LatestBySession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("seed latest question: %w", err)
		}
		if latest != nil {
			st.latestQuestionID = latest.ID
		}
	}
	st.seeded = true
	return st, nil
}
