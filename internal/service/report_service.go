package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"mockmate/internal/model"
	"mockmate/internal/repository"
)

// ReportService is the post-session pipeline: it snapshots the finished
// session into a report document and evaluates badges. It runs only through
// the outbox, exactly once per genuine end transition.
type ReportService struct {
	sessions     repository.SessionRepo
	questions    repository.QuestionRepo
	answers      repository.AnswerRepo
	participants repository.ParticipantRepo
	reports      repository.ReportRepo
	log          zerolog.Logger
}

// NewReportService creates a new report service
func NewReportService(
	sessions repository.SessionRepo,
	questions repository.QuestionRepo,
	answers repository.AnswerRepo,
	participants repository.ParticipantRepo,
	reports repository.ReportRepo,
	log zerolog.Logger,
) *ReportService {
	return &ReportService{
		sessions:     sessions,
		questions:    questions,
		answers:      answers,
		participants: participants,
		reports:      reports,
		log:          log.With().Str("component", "report").Logger(),
	}
}

// OnSessionEnded builds and stores the session report.
func (s *ReportService) OnSessionEnded(ctx context.Context, sessionID, hostID string) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return fmt.Errorf("session %s missing at report time", sessionID)
	}

	questions, err := s.questions.GetBySession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	answers, err := s.answers.GetBySession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load answers: %w", err)
	}
	participants, err := s.participants.GetBySession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load participants: %w", err)
	}

	byQuestion := make(map[string][]model.Answer, len(questions))
	for _, a := range answers {
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], *a)
	}

	turns := make([]model.TurnSummary, 0, len(questions))
	for _, q := range questions {
		turns = append(turns, model.TurnSummary{
			OrderNum: q.OrderNum,
			Question: *q,
			Answers:  byQuestion[q.ID],
		})
	}

	rows := make([]model.Participant, 0, len(participants))
	for _, p := range participants {
		rows = append(rows, *p)
	}

	endedAt := time.Now()
	if session.EndedAt != nil {
		endedAt = *session.EndedAt
	}

	report := &model.SessionReport{
		SessionID:    sessionID,
		HostID:       hostID,
		Title:        session.Title,
		Type:         session.Type,
		EndedAt:      endedAt,
		Turns:        turns,
		Participants: rows,
		Badges:       evaluateBadges(turns, rows),
		GeneratedAt:  time.Now(),
	}

	if err := s.reports.Save(ctx, report); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	s.log.Info().Str("sessionId", sessionID).Int("turns", len(turns)).Msg("report generated")
	return nil
}

// GetBySession returns the stored report, or nil when none exists yet.
func (s *ReportService) GetBySession(ctx context.Context, sessionID string) (*model.SessionReport, error) {
	return s.reports.GetBySession(ctx, sessionID)
}

// evaluateBadges applies the host achievement rules to the finished session.
func evaluateBadges(turns []model.TurnSummary, participants []model.Participant) []string {
	badges := []string{}
	if len(turns) >= 10 {
		badges = append(badges, "deep_dive")
	}
	if len(participants) >= 3 {
		badges = append(badges, "full_panel")
	}
	answered := 0
	for _, t := range turns {
		if len(t.Answers) > 0 {
			answered++
		}
	}
	if len(turns) > 0 && answered == len(turns) {
		badges = append(badges, "no_question_unanswered")
	}
	return badges
}
