package antipassback

import (
	"context"
	"errors"
	"testing"
	"time"

	"door-access-control-plane/backend/internal/antipassback/domain"
	"door-access-control-plane/backend/internal/cache"
	policydomain "door-access-control-plane/backend/internal/policy/domain"
)

type memRepo struct {
	latest      map[string]*domain.Record // keyed userID+"|"+deviceID
	inserted    []*domain.Record
	getErr      error
	insertErr   error
	latestCalls int
}

func newMemRepo() *memRepo {
	return &memRepo{latest: map[string]*domain.Record{}}
}

func (r *memRepo) GetLatest(ctx context.Context, userID, deviceID string) (*domain.Record, error) {
	r.latestCalls++
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.latest[userID+"|"+deviceID], nil
}

func (r *memRepo) Insert(ctx context.Context, rec *domain.Record) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, rec)
	r.latest[rec.UserID+"|"+rec.DeviceID] = rec
	return nil
}

func enabledCfg(windowSeconds int) policydomain.AntiPassback {
	return policydomain.AntiPassback{Enabled: true, WindowSeconds: windowSeconds}
}

func newTestGuard(r *memRepo) *Guard {
	return NewGuard(r, cache.NewMemory(), 10*time.Minute, time.Second)
}

func TestCheck_Disabled(t *testing.T) {
	r := newMemRepo()
	g := newTestGuard(r)

	cfg := policydomain.AntiPassback{Enabled: false, WindowSeconds: 300}
	if !g.Check(context.Background(), cfg, "u1", "d1", domain.DirectionIn, time.Now().UTC()) {
		t.Error("disabled anti-passback must pass")
	}
	if r.latestCalls != 0 {
		t.Error("disabled anti-passback must not hit storage")
	}
}

func TestCheck_FirstPassage(t *testing.T) {
	g := newTestGuard(newMemRepo())
	if !g.Check(context.Background(), enabledCfg(300), "u1", "d1", domain.DirectionIn, time.Now().UTC()) {
		t.Error("first passage must pass")
	}
}

func TestCheck_SameDirectionWithinWindow(t *testing.T) {
	g := newTestGuard(newMemRepo())
	ctx := context.Background()
	t0 := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)

	g.Record(ctx, "u1", "d1", "a1", domain.DirectionIn, "FACE", t0)

	window := enabledCfg(300)
	if g.Check(ctx, window, "u1", "d1", domain.DirectionIn, t0.Add(299*time.Second)) {
		t.Error("same-direction repeat inside the window must be rejected")
	}
	if !g.Check(ctx, window, "u1", "d1", domain.DirectionIn, t0.Add(301*time.Second)) {
		t.Error("same-direction repeat past the window must pass")
	}
}

func TestCheck_WindowBoundary(t *testing.T) {
	g := newTestGuard(newMemRepo())
	ctx := context.Background()
	t0 := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)

	g.Record(ctx, "u1", "d1", "a1", domain.DirectionIn, "CARD", t0)

	// A violation needs elapsed strictly less than the window; exactly the
	// window is already outside it.
	if g.Check(ctx, enabledCfg(300), "u1", "d1", domain.DirectionIn, t0.Add(300*time.Second-time.Second)) {
		t.Error("attempt one second before the window bound must be rejected")
	}
	if !g.Check(ctx, enabledCfg(300), "u1", "d1", domain.DirectionIn, t0.Add(300*time.Second)) {
		t.Error("attempt exactly at the window bound must pass")
	}
}

func TestCheck_OppositeDirection(t *testing.T) {
	g := newTestGuard(newMemRepo())
	ctx := context.Background()
	t0 := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)

	g.Record(ctx, "u1", "d1", "a1", domain.DirectionIn, "FACE", t0)
	if !g.Check(ctx, enabledCfg(300), "u1", "d1", domain.DirectionOut, t0.Add(10*time.Second)) {
		t.Error("exiting right after entering must pass")
	}
}

func TestCheck_RepeatedOutRejected(t *testing.T) {
	g := newTestGuard(newMemRepo())
	ctx := context.Background()
	t0 := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)

	g.Record(ctx, "u1", "d1", "a1", domain.DirectionOut, "FACE", t0)
	if g.Check(ctx, enabledCfg(300), "u1", "d1", domain.DirectionOut, t0.Add(30*time.Second)) {
		t.Error("repeated OUT inside the window must be rejected")
	}
}

func TestCheck_StorageFailureFailsOpen(t *testing.T) {
	r := newMemRepo()
	r.getErr = errors.New("db down")
	g := newTestGuard(r)

	if !g.Check(context.Background(), enabledCfg(300), "u1", "d1", domain.DirectionIn, time.Now().UTC()) {
		t.Error("storage failure must fail open")
	}
}

func TestCheck_UsesCacheAfterLookup(t *testing.T) {
	r := newMemRepo()
	t0 := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	r.latest["u1|d1"] = &domain.Record{
		ID: "r1", UserID: "u1", DeviceID: "d1", AreaID: "a1",
		Direction: domain.DirectionIn, RecordTime: t0,
	}
	g := newTestGuard(r)
	ctx := context.Background()

	g.Check(ctx, enabledCfg(300), "u1", "d1", domain.DirectionIn, t0.Add(time.Minute))
	g.Check(ctx, enabledCfg(300), "u1", "d1", domain.DirectionIn, t0.Add(2*time.Minute))
	if r.latestCalls != 1 {
		t.Errorf("GetLatest calls = %d, want 1 (second check served from cache)", r.latestCalls)
	}
}

func TestRecord_PersistsAndCaches(t *testing.T) {
	r := newMemRepo()
	g := newTestGuard(r)
	ctx := context.Background()
	t0 := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)

	g.Record(ctx, "u1", "d1", "a1", domain.DirectionIn, "FACE", t0)

	if len(r.inserted) != 1 {
		t.Fatalf("inserted = %d records, want 1", len(r.inserted))
	}
	rec := r.inserted[0]
	if rec.ID == "" {
		t.Error("record must get an ID")
	}
	if rec.Direction != domain.DirectionIn || rec.AreaID != "a1" || !rec.RecordTime.Equal(t0) {
		t.Errorf("record fields = %+v", rec)
	}

	// The next check must not need the database.
	g.Check(ctx, enabledCfg(300), "u1", "d1", domain.DirectionIn, t0.Add(time.Minute))
	if r.latestCalls != 0 {
		t.Errorf("GetLatest calls = %d, want 0 (Record should prime the cache)", r.latestCalls)
	}
}

func TestRecord_InsertFailureStillCaches(t *testing.T) {
	r := newMemRepo()
	r.insertErr = errors.New("db down")
	g := newTestGuard(r)
	ctx := context.Background()
	t0 := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)

	g.Record(ctx, "u1", "d1", "a1", domain.DirectionIn, "FACE", t0)

	// Even though persistence failed, the in-window rule keeps working.
	if g.Check(ctx, enabledCfg(300), "u1", "d1", domain.DirectionIn, t0.Add(time.Minute)) {
		t.Error("cached record must still reject the in-window repeat")
	}
}
