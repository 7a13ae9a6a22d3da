package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"mockmate/internal/model"
)

// In-memory repository fakes. All of them are safe for concurrent use so the
// stress tests can hammer the services through them.

type fakeSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string]*model.Subscription // keyed by user id
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: make(map[string]*model.Subscription)}
}

func (f *fakeSubscriptionRepo) put(sub *model.Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[sub.UserID] = sub
}

func (f *fakeSubscriptionRepo) Create(ctx context.Context, sub *model.Subscription) error {
	f.put(sub)
	return nil
}

func (f *fakeSubscriptionRepo) GetActiveByUserID(ctx context.Context, userID string) (*model.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subs[userID]
	if !ok || sub.Status != model.SubscriptionActive {
		return nil, nil
	}
	copy := *sub
	return &copy, nil
}

func (f *fakeSubscriptionRepo) IncrementUsed(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		if sub.ID == id {
			if sub.Status != model.SubscriptionActive || sub.UsedSessions >= sub.SessionLimit {
				return false, nil
			}
			sub.UsedSessions++
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSubscriptionRepo) DecrementUsed(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		if sub.ID == id && sub.UsedSessions > 0 {
			sub.UsedSessions--
		}
	}
	return nil
}

func (f *fakeSubscriptionRepo) used(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sub, ok := f.subs[userID]; ok {
		return sub.UsedSessions
	}
	return 0
}

type fakeSessionRepo struct {
	mu        sync.Mutex
	sessions  map[string]*model.Session
	createErr error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.Session)}
}

func (f *fakeSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copy := *session
	f.sessions[session.ID] = &copy
	return nil
}

func (f *fakeSessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	copy := *session
	return &copy, nil
}

func (f *fakeSessionRepo) ListByHost(ctx context.Context, hostID string) ([]*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Session
	for _, s := range f.sessions {
		if s.HostID == hostID {
			copy := *s
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeSessionRepo) Transition(ctx context.Context, id string, from []model.SessionStatus, update *model.Session) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return false, nil
	}
	matched := false
	for _, status := range from {
		if session.Status == status {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	session.Status = update.Status
	if update.StartedAt != nil {
		session.StartedAt = update.StartedAt
	}
	if update.EndedAt != nil {
		session.EndedAt = update.EndedAt
	}
	return true, nil
}

func (f *fakeSessionRepo) SetRecordingURL(ctx context.Context, id, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if session, ok := f.sessions[id]; ok {
		session.RecordingURL = url
	}
	return nil
}

type fakeParticipantRepo struct {
	mu   sync.Mutex
	rows map[string]*model.Participant // keyed by sessionID+"|"+userID
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{rows: make(map[string]*model.Participant)}
}

func (f *fakeParticipantRepo) Upsert(ctx context.Context, p *model.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy := *p
	f.rows[p.SessionID+"|"+p.UserID] = &copy
	return nil
}

func (f *fakeParticipantRepo) GetBySession(ctx context.Context, sessionID string) ([]*model.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Participant
	for _, p := range f.rows {
		if p.SessionID == sessionID {
			copy := *p
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (f *fakeParticipantRepo) GetByUser(ctx context.Context, userID string) ([]*model.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Participant
	for _, p := range f.rows {
		if p.UserID == userID {
			copy := *p
			out = append(out, &copy)
		}
	}
	return out, nil
}

type fakeQuestionRepo struct {
	mu        sync.Mutex
	questions []*model.Question
	createErr error
}

func newFakeQuestionRepo() *fakeQuestionRepo {
	return &fakeQuestionRepo{}
}

func (f *fakeQuestionRepo) Create(ctx context.Context, question *model.Question) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copy := *question
	f.questions = append(f.questions, &copy)
	return nil
}

func (f *fakeQuestionRepo) GetByID(ctx context.Context, id string) (*model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.questions {
		if q.ID == id {
			copy := *q
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeQuestionRepo) GetBySession(ctx context.Context, sessionID string) ([]*model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Question
	for _, q := range f.questions {
		if q.SessionID == sessionID {
			copy := *q
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNum < out[j].OrderNum })
	return out, nil
}

func (f *fakeQuestionRepo) CountBySession(ctx context.Context, sessionID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.questions {
		if q.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}

func (f *fakeQuestionRepo) LatestBySession(ctx context.Context, sessionID string) (*model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *model.Question
	for _, q := range f.questions {
		if q.SessionID == sessionID && (latest == nil || q.OrderNum > latest.OrderNum) {
			latest = q
		}
	}
	if latest == nil {
		return nil, nil
	}
	copy := *latest
	return &copy, nil
}

type fakeAnswerRepo struct {
	mu      sync.Mutex
	answers []*model.Answer
}

func newFakeAnswerRepo() *fakeAnswerRepo {
	return &fakeAnswerRepo{}
}

func (f *fakeAnswerRepo) Create(ctx context.Context, answer *model.Answer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy := *answer
	f.answers = append(f.answers, &copy)
	return nil
}

func (f *fakeAnswerRepo) GetByQuestion(ctx context.Context, questionID string) ([]*model.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Answer
	for _, a := range f.answers {
		if a.QuestionID == questionID {
			copy := *a
			out = append(out, &copy)
		}
	}
	return out, nil
}

func (f *fakeAnswerRepo) GetBySession(ctx context.Context, sessionID string) ([]*model.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Answer
	for _, a := range f.answers {
		if a.SessionID == sessionID {
			copy := *a
			out = append(out, &copy)
		}
	}
	return out, nil
}

type fakeReportRepo struct {
	mu      sync.Mutex
	reports map[string]*model.SessionReport
	saves   int
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[string]*model.SessionReport)}
}

func (f *fakeReportRepo) Save(ctx context.Context, report *model.SessionReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy := *report
	f.reports[report.SessionID] = &copy
	f.saves++
	return nil
}

func (f *fakeReportRepo) GetBySession(ctx context.Context, sessionID string) (*model.SessionReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.reports[sessionID]
	if !ok {
		return nil, nil
	}
	copy := *report
	return &copy, nil
}

func (f *fakeReportRepo) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

type fakeSessionCache struct {
	mu     sync.Mutex
	metas  map[string]*model.SessionMeta
	misses int
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{metas: make(map[string]*model.SessionMeta)}
}

func (f *fakeSessionCache) SetMeta(ctx context.Context, meta *model.SessionMeta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy := *meta
	f.metas[meta.ID] = &copy
	return nil
}

func (f *fakeSessionCache) GetMeta(ctx context.Context, sessionID string) (*model.SessionMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	meta, ok := f.metas[sessionID]
	if !ok {
		f.misses++
		return nil, nil
	}
	copy := *meta
	return &copy, nil
}

func (f *fakeSessionCache) SetStatus(ctx context.Context, sessionID string, status model.SessionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if meta, ok := f.metas[sessionID]; ok {
		meta.Status = status
	}
	return nil
}

func (f *fakeSessionCache) Delete(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.metas, sessionID)
	return nil
}

func (f *fakeSessionCache) has(sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.metas[sessionID]
	return ok
}

type fakePresenceCache struct {
	mu   sync.Mutex
	sets map[string]map[string]*model.Participant
}

func newFakePresenceCache() *fakePresenceCache {
	return &fakePresenceCache{sets: make(map[string]map[string]*model.Participant)}
}

func (f *fakePresenceCache) SetOnline(ctx context.Context, p *model.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.sets[p.SessionID]
	if !ok {
		set = make(map[string]*model.Participant)
		f.sets[p.SessionID] = set
	}
	copy := *p
	set[p.UserID] = &copy
	return nil
}

func (f *fakePresenceCache) SetOffline(ctx context.Context, p *model.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if set, ok := f.sets[p.SessionID]; ok {
		delete(set, p.UserID)
	}
	return nil
}

func (f *fakePresenceCache) GetOnline(ctx context.Context, sessionID string) ([]*model.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Participant
	for _, p := range f.sets[sessionID] {
		copy := *p
		out = append(out, &copy)
	}
	return out, nil
}

func (f *fakePresenceCache) Clear(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sets, sessionID)
	return nil
}

func (f *fakePresenceCache) size(sessionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sets[sessionID])
}

// recordingBroadcaster captures published events for assertions.
type recordedEvent struct {
	Topic   string
	Type    string
	Payload interface{}
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *recordingBroadcaster) Publish(topic string, eventType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{Topic: topic, Type: eventType, Payload: payload})
}

func (b *recordingBroadcaster) byType(eventType string) []recordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []recordedEvent
	for _, e := range b.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// stubFeedback returns a fixed result, or an error when failing is set.
type stubFeedback struct {
	failing bool
}

func (s *stubFeedback) Generate(ctx context.Context, questionText, answerText string) (*model.FeedbackResult, error) {
	if s.failing {
		return nil, errors.New("generator unavailable")
	}
	return &model.FeedbackResult{Score: 80, Summary: "solid answer"}, nil
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
