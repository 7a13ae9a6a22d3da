package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mockmate/internal/cache"
	"mockmate/internal/model"
	"mockmate/internal/repository"
)

// PresenceService tracks who is live in each session. The in-memory set is
// the authoritative "who is online" signal; participant rows are persisted
// for history and mirrored best-effort into Redis for other instances.
// Updates for one session serialize on that session's mutex, so the set a
// call returns is always the tracker's own view at that moment.
type PresenceService struct {
	participants  repository.ParticipantRepo
	presenceCache cache.PresenceCache
	locks         *keyedMutex
	log           zerolog.Logger

	// sessionID -> userID -> participant. The outer map has its own short
	// guard; entries within one session are written only under that
	// session's keyed lock, so sessions never contend with each other.
	mapMu    sync.Mutex
	sessions map[string]map[string]*model.Participant
}

// NewPresenceService creates a new presence tracker
func NewPresenceService(participants repository.ParticipantRepo, presenceCache cache.PresenceCache, log zerolog.Logger) *PresenceService {
	return &PresenceService{
		participants:  participants,
		presenceCache: presenceCache,
		locks:         newKeyedMutex(),
		sessions:      make(map[string]map[string]*model.Participant),
		log:           log.With().Str("component", "presence").Logger(),
	}
}

// Join marks the user online in the session and returns the full current
// online set. Re-joining after a leave updates the same logical participant.
func (s *PresenceService) Join(ctx context.Context, sessionID, userID string, role model.Role) ([]model.Participant, error) {
	if _, err := model.ParseRole(string(role)); err != nil {
		return nil, ErrInvalidRole
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	set := s.sessionSet(sessionID)
	p, ok := set[userID]
	if !ok {
		p = &model.Participant{
			SessionID: sessionID,
			UserID:    userID,
			Role:      role,
		}
		set[userID] = p
	}
	// Role is immutable once joined; a re-join keeps the original role.
	p.Online = true
	p.JoinedAt = time.Now()
	p.LeftAt = nil

	if err := s.participants.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("persist participant: %w", err)
	}
	s.mirrorOnline(ctx, p)

	return s.onlineSet(set), nil
}

// Leave marks the user offline and returns the updated online set. The
// participant row survives with online=false and a leftAt stamp. Leaving a
// session the user never joined is a no-op.
func (s *PresenceService) Leave(ctx context.Context, sessionID, userID string) ([]model.Participant, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	set := s.sessionSet(sessionID)
	p, ok := set[userID]
	if ok && p.Online {
		now := time.Now()
		p.Online = false
		p.LeftAt = &now

		if err := s.participants.Upsert(ctx, p); err != nil {
			return nil, fmt.Errorf("persist participant: %w", err)
		}
		s.mirrorOffline(ctx, p)
	}

	return s.onlineSet(set), nil
}

// Online returns the current online set. When this instance has no local
// state for the session it reads the Redis mirror, so an instance that never
// handled a join can still answer presence queries.
func (s *PresenceService) Online(ctx context.Context, sessionID string) []model.Participant {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	set := s.sessionSet(sessionID)
	if len(set) == 0 && s.presenceCache != nil {
		mirrored, err := s.presenceCache.GetOnline(ctx, sessionID)
		if err != nil {
			s.log.Error().Err(err).Str("sessionId", sessionID).Msg("read presence mirror")
		}
		online := make([]model.Participant, 0, len(mirrored))
		for _, p := range mirrored {
			online = append(online, *p)
		}
		sortOnline(online)
		return online
	}
	return s.onlineSet(set)
}

// ClearSession marks every remaining participant offline and drops the Redis
// mirror. Called when the session ends; rows survive for history.
func (s *PresenceService) ClearSession(ctx context.Context, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	set := s.sessionSet(sessionID)
	now := time.Now()
	for _, p := range set {
		if !p.Online {
			continue
		}
		p.Online = false
		p.LeftAt = &now
		if err := s.participants.Upsert(ctx, p); err != nil {
			return fmt.Errorf("persist participant: %w", err)
		}
	}
	if s.presenceCache != nil {
		if err := s.presenceCache.Clear(ctx, sessionID); err != nil {
			s.log.Error().Err(err).Str("sessionId", sessionID).Msg("clear presence mirror")
		}
	}
	return nil
}

// History returns every participant row ever recorded for the session.
func (s *PresenceService) History(ctx context.Context, sessionID string) ([]*model.Participant, error) {
	return s.participants.GetBySession(ctx, sessionID)
}

// SessionsFor returns every session the user has ever participated in.
func (s *PresenceService) SessionsFor(ctx context.Context, userID string) ([]*model.Participant, error) {
	return s.participants.GetByUser(ctx, userID)
}

// sessionSet returns the per-session map, creating it on first touch. The
// caller must hold the session lock before reading or writing the entries.
func (s *PresenceService) sessionSet(sessionID string) map[string]*model.Participant {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()
	set, ok := s.sessions[sessionID]
	if !ok {
		set = make(map[string]*model.Participant)
		s.sessions[sessionID] = set
	}
	return set
}

func (s *PresenceService) onlineSet(set map[string]*model.Participant) []model.Participant {
	online := make([]model.Participant, 0, len(set))
	for _, p := range set {
		if p.Online {
			online = append(online, *p)
		}
	}
	sortOnline(online)
	return online
}

func sortOnline(online []model.Participant) {
	sort.Slice(online, func(i, j int) bool {
		if online[i].JoinedAt.Equal(online[j].JoinedAt) {
			return online[i].UserID < online[j].UserID
		}
		return online[i].JoinedAt.Before(online[j].JoinedAt)
	})
}

func (s *PresenceService) mirrorOnline(ctx context.Context, p *model.Participant) {
	if s.presenceCache == nil {
		return
	}
	if err := s.presenceCache.SetOnline(ctx, p); err != nil {
		s.log.Error().Err(err).Str("sessionId", p.SessionID).Str("userId", p.UserID).Msg("mirror presence online")
	}
}

func (s *PresenceService) mirrorOffline(ctx context.Context, p *model.Participant) {
	if s.presenceCache == nil {
		return
	}
	if err := s.presenceCache.SetOffline(ctx, p); err != nil {
		s.log.Error().Err(err).Str("sessionId", p.SessionID).Str("userId", p.UserID).Msg("mirror presence offline")
	}
}
