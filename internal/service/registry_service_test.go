package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"mockmate/internal/model"
)

func newTestRegistry(t *testing.T) (*RegistryService, *fakeSessionRepo, *recordingBroadcaster) {
	t.Helper()
	repo := newFakeSessionRepo()
	broadcaster := &recordingBroadcaster{}
	svc := NewRegistryService(repo, nil, testLogger())
	svc.SetBroadcaster(broadcaster)
	return svc, repo, broadcaster
}

func TestRegistryLifecycle(t *testing.T) {
	svc, _, broadcaster := newTestRegistry(t)
	ctx := context.Background()

	session, err := svc.Create(ctx, "host-1", "mock interview", model.SessionText)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if session.Status != model.SessionPlanned {
		t.Fatalf("new session status = %q, want %q", session.Status, model.SessionPlanned)
	}

	if err := svc.Start(ctx, session.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	got, err := svc.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != model.SessionRunning {
		t.Fatalf("status after start = %q, want %q", got.Status, model.SessionRunning)
	}

	ended, err := svc.End(ctx, session.ID)
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if !ended {
		t.Fatalf("End() = false, want true for first end")
	}
	got, err = svc.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != model.SessionEnded {
		t.Fatalf("status after end = %q, want %q", got.Status, model.SessionEnded)
	}

	if events := broadcaster.byType(EventSessionStarted); len(events) != 1 {
		t.Fatalf("started events = %d, want 1", len(events))
	}
	if events := broadcaster.byType(EventSessionEnded); len(events) != 1 {
		t.Fatalf("ended events = %d, want 1", len(events))
	}
}

func TestRegistryInvalidTransitions(t *testing.T) {
	svc, _, _ := newTestRegistry(t)
	ctx := context.Background()

	session, err := svc.Create(ctx, "host-1", "mock interview", model.SessionVoice)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Double start.
	if err := svc.Start(ctx, session.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := svc.Start(ctx, session.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second Start() error = %v, want ErrInvalidTransition", err)
	}

	// Start after end.
	if _, err := svc.End(ctx, session.ID); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if err := svc.Start(ctx, session.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Start() after end error = %v, want ErrInvalidTransition", err)
	}

	// Unknown session.
	if err := svc.Start(ctx, "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Start() on unknown session error = %v, want ErrSessionNotFound", err)
	}
	if _, err := svc.End(ctx, "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("End() on unknown session error = %v, want ErrSessionNotFound", err)
	}
}

func TestRegistryEndFromPlanned(t *testing.T) {
	svc, _, _ := newTestRegistry(t)
	ctx := context.Background()

	session, err := svc.Create(ctx, "host-1", "cancelled early", model.SessionText)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	ended, err := svc.End(ctx, session.ID)
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if !ended {
		t.Fatalf("End() from PLANNED = false, want true")
	}
}

func TestRegistryEndIsIdempotent(t *testing.T) {
	svc, _, broadcaster := newTestRegistry(t)
	ctx := context.Background()

	session, err := svc.Create(ctx, "host-1", "mock interview", model.SessionText)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := svc.Start(ctx, session.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	const callers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	transitions := 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ended, err := svc.End(ctx, session.ID)
			if err != nil {
				t.Errorf("End() error = %v", err)
				return
			}
			if ended {
				mu.Lock()
				transitions++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if transitions != 1 {
		t.Fatalf("End() reported %d transitions, want exactly 1", transitions)
	}
	if events := broadcaster.byType(EventSessionEnded); len(events) != 1 {
		t.Fatalf("ended events = %d, want 1", len(events))
	}
}

func TestRegistryMeta(t *testing.T) {
	repo := newFakeSessionRepo()
	metaCache := newFakeSessionCache()
	svc := NewRegistryService(repo, metaCache, testLogger())
	ctx := context.Background()

	session, err := svc.Create(ctx, "host-1", "mock interview", model.SessionText)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	meta, err := svc.Meta(ctx, session.ID)
	if err != nil {
		t.Fatalf("Meta() error = %v", err)
	}
	if meta.ID != session.ID || meta.HostID != "host-1" || meta.Status != model.SessionPlanned {
		t.Fatalf("meta = %+v", meta)
	}
	if metaCache.misses != 0 {
		t.Fatalf("Meta() missed the cache %d times after create", metaCache.misses)
	}

	// A cold cache falls through to the store and re-primes.
	metaCache.Delete(ctx, session.ID)
	meta, err = svc.Meta(ctx, session.ID)
	if err != nil {
		t.Fatalf("Meta() after cache drop error = %v", err)
	}
	if meta.ID != session.ID {
		t.Fatalf("meta after cache drop = %+v", meta)
	}
	if !metaCache.has(session.ID) {
		t.Fatalf("cache not re-primed on miss")
	}

	if _, err := svc.Meta(ctx, "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Meta() on unknown session error = %v, want ErrSessionNotFound", err)
	}
}

func TestRegistryEndDropsCachedMeta(t *testing.T) {
	repo := newFakeSessionRepo()
	metaCache := newFakeSessionCache()
	svc := NewRegistryService(repo, metaCache, testLogger())
	ctx := context.Background()

	session, err := svc.Create(ctx, "host-1", "mock interview", model.SessionText)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !metaCache.has(session.ID) {
		t.Fatalf("meta not cached on create")
	}

	if _, err := svc.End(ctx, session.ID); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if metaCache.has(session.ID) {
		t.Fatalf("ended session still cached")
	}

	// The read still works, straight from the store.
	meta, err := svc.Meta(ctx, session.ID)
	if err != nil {
		t.Fatalf("Meta() after end error = %v", err)
	}
	if meta.Status != model.SessionEnded {
		t.Fatalf("meta status after end = %q, want %q", meta.Status, model.SessionEnded)
	}
}

func TestRegistryAttachRecording(t *testing.T) {
	svc, repo, _ := newTestRegistry(t)
	ctx := context.Background()

	session, err := svc.Create(ctx, "host-1", "recorded run", model.SessionVideo)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := svc.AttachRecording(ctx, session.ID, "https://media.example/rec/42"); err != nil {
		t.Fatalf("AttachRecording() error = %v", err)
	}
	got, _ := repo.GetByID(ctx, session.ID)
	if got.RecordingURL != "https://media.example/rec/42" {
		t.Fatalf("recording url = %q", got.RecordingURL)
	}

	if err := svc.AttachRecording(ctx, "nope", "https://media.example/x"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("AttachRecording() on unknown session error = %v, want ErrSessionNotFound", err)
	}
}
