package multiperson

import (
	"context"
	"sync"
	"testing"
	"time"

	"door-access-control-plane/backend/internal/cache"
	"door-access-control-plane/backend/internal/multiperson/domain"
)

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session // keyed by session ID
	getErr   error
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: map[string]*domain.Session{}}
}

func (r *memSessionRepo) GetWaiting(ctx context.Context, areaID, deviceID string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	var newest *domain.Session
	for _, s := range r.sessions {
		if s.AreaID != areaID || s.DeviceID != deviceID || s.Status != domain.StatusWaiting {
			continue
		}
		if newest == nil || s.StartTime.After(newest.StartTime) {
			newest = s
		}
	}
	if newest == nil {
		return nil, nil
	}
	cp := *newest
	return &cp, nil
}

func (r *memSessionRepo) Insert(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.SessionID] = &cp
	return nil
}

func (r *memSessionRepo) Update(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.SessionID] = &cp
	return nil
}

func t0() time.Time {
	return time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
}

func TestVerify_ConvergesToCompleted(t *testing.T) {
	co := NewCoordinator(cache.NewMemory(), newMemSessionRepo(), time.Minute, time.Second)
	ctx := context.Background()

	o1 := co.Verify(ctx, "a1", "d1", "u1", 3, t0())
	if o1.Status != domain.StatusWaiting || o1.Current != 1 || o1.Required != 3 {
		t.Fatalf("first auth = %+v, want WAITING 1/3", o1)
	}

	o2 := co.Verify(ctx, "a1", "d1", "u2", 3, t0().Add(5*time.Second))
	if o2.Status != domain.StatusWaiting || o2.Current != 2 {
		t.Fatalf("second auth = %+v, want WAITING 2/3", o2)
	}
	if o2.SessionID != o1.SessionID {
		t.Error("second auth must join the existing session")
	}

	o3 := co.Verify(ctx, "a1", "d1", "u3", 3, t0().Add(10*time.Second))
	if !o3.Completed() || o3.Current != 3 {
		t.Fatalf("third auth = %+v, want COMPLETED 3/3", o3)
	}
}

func TestVerify_RepeatUserIdempotent(t *testing.T) {
	co := NewCoordinator(cache.NewMemory(), newMemSessionRepo(), time.Minute, time.Second)
	ctx := context.Background()

	co.Verify(ctx, "a1", "d1", "u1", 2, t0())
	o := co.Verify(ctx, "a1", "d1", "u1", 2, t0().Add(time.Second))
	if o.Status != domain.StatusWaiting || o.Current != 1 {
		t.Errorf("repeat auth = %+v, want still WAITING 1/2", o)
	}
}

func TestVerify_ExpiredSessionTimesOut(t *testing.T) {
	repo := newMemSessionRepo()
	co := NewCoordinator(cache.NewMemory(), repo, time.Minute, time.Second)
	ctx := context.Background()

	o1 := co.Verify(ctx, "a1", "d1", "u1", 2, t0())

	// u2 arrives after the deadline: the overdue session is terminated and the
	// authentication reports TIMEOUT without enrolling u2.
	o2 := co.Verify(ctx, "a1", "d1", "u2", 2, t0().Add(61*time.Second))
	if o2.Status != domain.StatusTimeout {
		t.Fatalf("post-deadline auth = %+v, want TIMEOUT", o2)
	}
	if o2.SessionID != o1.SessionID {
		t.Error("TIMEOUT outcome must report the expired session")
	}
	if o2.Current != 1 {
		t.Errorf("participants after timeout = %d, want 1 (u2 not enrolled)", o2.Current)
	}

	repo.mu.Lock()
	old := repo.sessions[o1.SessionID]
	repo.mu.Unlock()
	if old == nil || old.Status != domain.StatusTimeout {
		t.Errorf("old session status = %v, want TIMEOUT", old)
	}

	// Only the next authentication starts over.
	o3 := co.Verify(ctx, "a1", "d1", "u2", 2, t0().Add(62*time.Second))
	if o3.Status != domain.StatusWaiting || o3.Current != 1 {
		t.Fatalf("auth after timeout = %+v, want fresh WAITING 1/2", o3)
	}
	if o3.SessionID == o1.SessionID {
		t.Error("expired session must not be reused")
	}
}

func TestVerify_LockUnavailableDefersAuthentication(t *testing.T) {
	repo := newMemSessionRepo()
	c := cache.NewMemory()
	co := NewCoordinator(c, repo, time.Minute, time.Second)
	ctx := context.Background()

	// Another authentication holds the per-key lock for the whole retry budget.
	c.Set(ctx, lockKeyPrefix+"a1:d1", "1", time.Minute)

	o := co.Verify(ctx, "a1", "d1", "u1", 2, t0())
	if o.Status != domain.StatusWaiting || o.SessionID != "" {
		t.Fatalf("outcome = %+v, want WAITING without a session", o)
	}

	repo.mu.Lock()
	stored := len(repo.sessions)
	repo.mu.Unlock()
	if stored != 0 {
		t.Error("deferred authentication must not touch session state")
	}
}

func TestVerify_CompletionTerminatesSession(t *testing.T) {
	repo := newMemSessionRepo()
	co := NewCoordinator(cache.NewMemory(), repo, time.Minute, time.Second)
	ctx := context.Background()

	co.Verify(ctx, "a1", "d1", "u1", 2, t0())
	done := co.Verify(ctx, "a1", "d1", "u2", 2, t0().Add(time.Second))
	if !done.Completed() {
		t.Fatalf("outcome = %+v, want COMPLETED", done)
	}

	repo.mu.Lock()
	completed := repo.sessions[done.SessionID]
	repo.mu.Unlock()
	if completed.Status != domain.StatusCompleted || completed.CompleteTime == nil {
		t.Errorf("persisted session = %+v, want COMPLETED with complete time", completed)
	}

	// The next authentication starts a brand new session.
	o := co.Verify(ctx, "a1", "d1", "u3", 2, t0().Add(2*time.Second))
	if o.Status != domain.StatusWaiting || o.Current != 1 || o.SessionID == done.SessionID {
		t.Errorf("post-completion auth = %+v, want fresh WAITING 1/2", o)
	}
}

func TestVerify_SeparateDevicesSeparateSessions(t *testing.T) {
	co := NewCoordinator(cache.NewMemory(), newMemSessionRepo(), time.Minute, time.Second)
	ctx := context.Background()

	o1 := co.Verify(ctx, "a1", "d1", "u1", 2, t0())
	o2 := co.Verify(ctx, "a1", "d2", "u2", 2, t0())
	if o1.SessionID == o2.SessionID {
		t.Error("different devices must get different sessions")
	}
	if o2.Current != 1 {
		t.Errorf("device d2 count = %d, want 1", o2.Current)
	}
}

func TestVerify_DegenerateRequiredCount(t *testing.T) {
	co := NewCoordinator(cache.NewMemory(), newMemSessionRepo(), time.Minute, time.Second)
	o := co.Verify(context.Background(), "a1", "d1", "u1", 1, t0())
	if !o.Completed() {
		t.Errorf("requiredCount 1 should complete immediately, got %+v", o)
	}
}

func TestVerify_RecoversSessionFromDatabase(t *testing.T) {
	repo := newMemSessionRepo()
	co := NewCoordinator(cache.NewMemory(), repo, time.Minute, time.Second)
	ctx := context.Background()

	o1 := co.Verify(ctx, "a1", "d1", "u1", 2, t0())

	// Simulate a restart: fresh cache, same database.
	co2 := NewCoordinator(cache.NewMemory(), repo, time.Minute, time.Second)
	o2 := co2.Verify(ctx, "a1", "d1", "u2", 2, t0().Add(5*time.Second))
	if !o2.Completed() {
		t.Errorf("outcome after restart = %+v, want COMPLETED", o2)
	}
	if o2.SessionID != o1.SessionID {
		t.Error("restarted coordinator must resume the persisted session")
	}
}

func TestVerify_ConcurrentAuthsCountedOnce(t *testing.T) {
	co := NewCoordinator(cache.NewMemory(), newMemSessionRepo(), time.Minute, time.Second)
	ctx := context.Background()

	var wg sync.WaitGroup
	users := []string{"u1", "u2", "u3", "u4"}
	outcomes := make([]Outcome, len(users))
	for i, u := range users {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			outcomes[i] = co.Verify(ctx, "a1", "d1", u, 4, t0())
		}(i, u)
	}
	wg.Wait()

	completed := 0
	for _, o := range outcomes {
		if o.Completed() {
			completed++
		}
	}
	if completed != 1 {
		t.Errorf("completed outcomes = %d, want exactly 1", completed)
	}
}
