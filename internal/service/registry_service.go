package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mockmate/internal/cache"
	"mockmate/internal/model"
	"mockmate/internal/repository"
)

// RegistryService owns session lifecycle state. Transitions are strictly
// forward-only (PLANNED -> RUNNING -> ENDED) and guarded twice: a per-session
// mutex serializes callers in this process, and the store update is
// conditioned on the expected previous status so a stale writer matches
// nothing. Each transition is published on the control topic inside the
// mutex, so subscribers never observe broadcast and stored state disagreeing.
type RegistryService struct {
	sessions     repository.SessionRepo
	sessionCache cache.SessionCache
	broadcaster  Broadcaster
	locks        *keyedMutex
	log          zerolog.Logger
}

// NewRegistryService creates a new session registry
func NewRegistryService(sessions repository.SessionRepo, sessionCache cache.SessionCache, log zerolog.Logger) *RegistryService {
	return &RegistryService{
		sessions:     sessions,
		sessionCache: sessionCache,
		locks:        newKeyedMutex(),
		log:          log.With().Str("component", "registry").Logger(),
	}
}

// SetBroadcaster sets the broadcaster for control-topic events
func (s *RegistryService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Create registers a new PLANNED session for the host. Quota must already be
// reserved by the caller.
func (s *RegistryService) Create(ctx context.Context, hostID, title string, sessionType model.SessionType) (*model.Session, error) {
	session := &model.Session{
		ID:        uuid.New().String(),
		HostID:    hostID,
		Title:     title,
		Type:      sessionType,
		Status:    model.SessionPlanned,
		CreatedAt: time.Now(),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.cacheMeta(ctx, session)
	s.log.Info().Str("sessionId", session.ID).Str("hostId", hostID).Msg("session created")
	return session, nil
}

// Get returns the session or ErrSessionNotFound.
func (s *RegistryService) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Meta returns the slim session view used on the websocket auth path,
// cache-first. A miss falls through to the store and re-primes the cache.
func (s *RegistryService) Meta(ctx context.Context, sessionID string) (*model.SessionMeta, error) {
	if s.sessionCache != nil {
		meta, err := s.sessionCache.GetMeta(ctx, sessionID)
		if err != nil {
			s.log.Error().Err(err).Str("sessionId", sessionID).Msg("read session meta cache")
		}
		if meta != nil {
			return meta, nil
		}
	}

	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.cacheMeta(ctx, session)
	return &model.SessionMeta{
		ID:        session.ID,
		HostID:    session.HostID,
		Status:    session.Status,
		Type:      session.Type,
		CreatedAt: session.CreatedAt,
	}, nil
}

// ListByHost returns the host's sessions, newest first.
func (s *RegistryService) ListByHost(ctx context.Context, hostID string) ([]*model.Session, error) {
	return s.sessions.ListByHost(ctx, hostID)
}

// Start moves PLANNED -> RUNNING. Any other current status is
// ErrInvalidTransition.
func (s *RegistryService) Start(ctx context.Context, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	now := time.Now()
	update := &model.Session{Status: model.SessionRunning, StartedAt: &now}
	ok, err := s.sessions.Transition(ctx, sessionID, []model.SessionStatus{model.SessionPlanned}, update)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	if !ok {
		session, err := s.sessions.GetByID(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		if session == nil {
			return ErrSessionNotFound
		}
		s.log.Warn().Str("sessionId", sessionID).Str("status", string(session.Status)).Msg("rejected start on non-planned session")
		return ErrInvalidTransition
	}

	s.setCachedStatus(ctx, sessionID, model.SessionRunning)
	if s.broadcaster != nil {
		s.broadcaster.Publish(ControlTopic(sessionID), EventSessionStarted, map[string]interface{}{
			"sessionId": sessionID,
			"startedAt": now,
		})
	}
	return nil
}

// End moves PLANNED/RUNNING -> ENDED and reports whether this call performed
// the transition. Ending an already-ended session is a no-op returning
// (false, nil), so duplicate termination signals are harmless; the caller
// uses the bool to fire end-of-session hand-offs exactly once.
func (s *RegistryService) End(ctx context.Context, sessionID string) (bool, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	now := time.Now()
	update := &model.Session{Status: model.SessionEnded, EndedAt: &now}
	from := []model.SessionStatus{model.SessionPlanned, model.SessionRunning}
	ok, err := s.sessions.Transition(ctx, sessionID, from, update)
	if err != nil {
		return false, fmt.Errorf("end session: %w", err)
	}
	if !ok {
		session, err := s.sessions.GetByID(ctx, sessionID)
		if err != nil {
			return false, fmt.Errorf("load session: %w", err)
		}
		if session == nil {
			return false, ErrSessionNotFound
		}
		// Already ended; tolerate the duplicate signal.
		return false, nil
	}

	// Terminal sessions do not need hot meta; reads fall through to the store.
	s.dropCachedMeta(ctx, sessionID)
	if s.broadcaster != nil {
		s.broadcaster.Publish(ControlTopic(sessionID), EventSessionEnded, map[string]interface{}{
			"sessionId": sessionID,
			"endedAt":   now,
		})
	}
	s.log.Info().Str("sessionId", sessionID).Msg("session ended")
	return true, nil
}

// AttachRecording stores the opaque media URL delivered by the blob-store
// collaborator. The bytes behind it are never interpreted here.
func (s *RegistryService) AttachRecording(ctx context.Context, sessionID, url string) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return ErrSessionNotFound
	}
	return s.sessions.SetRecordingURL(ctx, sessionID, url)
}

func (s *RegistryService) cacheMeta(ctx context.Context, session *model.Session) {
	if s.sessionCache == nil {
		return
	}
	meta := &model.SessionMeta{
		ID:        session.ID,
		HostID:    session.HostID,
		Status:    session.Status,
		Type:      session.Type,
		CreatedAt: session.CreatedAt,
	}
	if err := s.sessionCache.SetMeta(ctx, meta); err != nil {
		s.log.Error().Err(err).Str("sessionId", session.ID).Msg("cache session meta")
	}
}

func (s *RegistryService) setCachedStatus(ctx context.Context, sessionID string, status model.SessionStatus) {
	if s.sessionCache == nil {
		return
	}
	if err := s.sessionCache.SetStatus(ctx, sessionID, status); err != nil {
		s.log.Error().Err(err).Str("sessionId", sessionID).Msg("cache session status")
	}
}

func (s *RegistryService) dropCachedMeta(ctx context.Context, sessionID string) {
	if s.sessionCache == nil {
		return
	}
	if err := s.sessionCache.Delete(ctx, sessionID); err != nil {
		s.log.Error().Err(err).Str("sessionId", sessionID).Msg("drop session meta cache")
	}
}
