// Package multiperson implements two-man-rule style co-authentication: a door
// opens only after a required number of distinct users authenticate at it
// within a shared deadline.
package multiperson

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"door-access-control-plane/backend/internal/cache"
	"door-access-control-plane/backend/internal/multiperson/domain"
	"door-access-control-plane/backend/internal/multiperson/repository"
)

const (
	sessionKeyPrefix = "access:multi-person:session:"
	lockKeyPrefix    = "access:multi-person:lock:"

	lockTTL       = 2 * time.Second
	lockRetry     = 20 * time.Millisecond
	lockRetryMax  = 10
	sessionMargin = time.Minute // cache entries outlive the deadline by this much
)

// Outcome is the result of applying one authentication to a session.
type Outcome struct {
	SessionID string
	// Status is the session status after this authentication: WAITING when more
	// participants are needed, COMPLETED when this authentication was the last
	// one required, TIMEOUT when it arrived after the session deadline.
	Status   string
	Current  int
	Required int
}

// Completed reports whether this authentication finished the session.
func (o Outcome) Completed() bool { return o.Status == domain.StatusCompleted }

// Coordinator runs the co-authentication state machine for one area+device
// key at a time. The cache holds the live WAITING session and a short lock key
// serializes concurrent authentications; the database mirrors every session
// for recovery and audit, best effort.
type Coordinator struct {
	cache          cache.Cache
	repo           repository.Repository
	sessionTimeout time.Duration
	dbTimeout      time.Duration
	nowF           func() time.Time
}

// NewCoordinator returns a session coordinator. repo may be nil to run from
// cache only. sessionTimeout is the co-authentication deadline (typically 60s);
// dbTimeout bounds each database round-trip.
func NewCoordinator(c cache.Cache, repo repository.Repository, sessionTimeout, dbTimeout time.Duration) *Coordinator {
	return &Coordinator{
		cache:          c,
		repo:           repo,
		sessionTimeout: sessionTimeout,
		dbTimeout:      dbTimeout,
		nowF:           func() time.Time { return time.Now().UTC() },
	}
}

// Verify applies userID's authentication at the device and returns the session
// outcome. It creates a session when none is live, ignores a repeat
// authentication by a user already in the session, and completes the session
// when the participant count reaches requiredCount. An authentication arriving
// after the session deadline terminates the overdue session and returns
// TIMEOUT without enrolling the user; the next authentication starts fresh.
func (co *Coordinator) Verify(ctx context.Context, areaID, deviceID, userID string, requiredCount int, at time.Time) Outcome {
	key := areaID + ":" + deviceID
	if !co.lock(ctx, key) {
		// The per-key lock guarantees the read-modify-write is serialized.
		// Without it a participant could be lost, so defer to the next swipe.
		log.Printf("multiperson: lock for %s not acquired, deferring authentication", key)
		return Outcome{Status: domain.StatusWaiting, Required: requiredCount}
	}
	defer co.unlock(ctx, key)

	sess := co.liveSession(ctx, key, areaID, deviceID)

	if sess != nil && sess.Expired(at) {
		co.terminate(ctx, key, sess, domain.StatusTimeout, at)
		return co.outcome(sess)
	}

	if sess == nil {
		sess = &domain.Session{
			SessionID:          uuid.NewString(),
			AreaID:             areaID,
			DeviceID:           deviceID,
			RequiredCount:      requiredCount,
			ParticipantUserIDs: []string{userID},
			Status:             domain.StatusWaiting,
			StartTime:          at,
			ExpireTime:         at.Add(co.sessionTimeout),
		}
		if requiredCount <= 1 {
			// Degenerate configuration; complete immediately.
			sess.Status = domain.StatusCompleted
			sess.CompleteTime = &at
			co.persist(ctx, sess, true)
			return co.outcome(sess)
		}
		co.store(ctx, key, sess)
		co.persist(ctx, sess, true)
		return co.outcome(sess)
	}

	if !sess.HasParticipant(userID) {
		sess.ParticipantUserIDs = append(sess.ParticipantUserIDs, userID)
	}

	if len(sess.ParticipantUserIDs) >= sess.RequiredCount {
		co.terminate(ctx, key, sess, domain.StatusCompleted, at)
	} else {
		co.store(ctx, key, sess)
		co.persist(ctx, sess, false)
	}
	return co.outcome(sess)
}

func (co *Coordinator) outcome(sess *domain.Session) Outcome {
	return Outcome{
		SessionID: sess.SessionID,
		Status:    sess.Status,
		Current:   len(sess.ParticipantUserIDs),
		Required:  sess.RequiredCount,
	}
}

// liveSession returns the WAITING session for key from cache, falling back to
// the database after e.g. a process restart.
func (co *Coordinator) liveSession(ctx context.Context, key, areaID, deviceID string) *domain.Session {
	cacheKey := sessionKeyPrefix + key
	if raw, ok := co.cache.Get(ctx, cacheKey); ok {
		var sess domain.Session
		if err := json.Unmarshal([]byte(raw), &sess); err == nil && sess.Status == domain.StatusWaiting {
			return &sess
		}
		co.cache.Delete(ctx, cacheKey)
	}

	if co.repo == nil {
		return nil
	}
	dbCtx, cancel := context.WithTimeout(ctx, co.dbTimeout)
	defer cancel()
	sess, err := co.repo.GetWaiting(dbCtx, areaID, deviceID)
	if err != nil {
		log.Printf("multiperson: session lookup failed for %s: %v", key, err)
		return nil
	}
	if sess != nil {
		co.store(ctx, key, sess)
	}
	return sess
}

func (co *Coordinator) terminate(ctx context.Context, key string, sess *domain.Session, status string, at time.Time) {
	sess.Status = status
	sess.CompleteTime = &at
	co.cache.Delete(ctx, sessionKeyPrefix+key)
	co.persist(ctx, sess, false)
}

func (co *Coordinator) store(ctx context.Context, key string, sess *domain.Session) {
	encoded, err := json.Marshal(sess)
	if err != nil {
		return
	}
	ttl := sess.ExpireTime.Sub(co.nowF()) + sessionMargin
	co.cache.Set(ctx, sessionKeyPrefix+key, string(encoded), ttl)
}

// persist mirrors the session to the database, best effort.
func (co *Coordinator) persist(ctx context.Context, sess *domain.Session, insert bool) {
	if co.repo == nil {
		return
	}
	dbCtx, cancel := context.WithTimeout(ctx, co.dbTimeout)
	defer cancel()
	var err error
	if insert {
		err = co.repo.Insert(dbCtx, sess)
	} else {
		err = co.repo.Update(dbCtx, sess)
	}
	if err != nil {
		log.Printf("multiperson: failed to persist session %s: %v", sess.SessionID, err)
	}
}

func (co *Coordinator) lock(ctx context.Context, key string) bool {
	lockKey := lockKeyPrefix + key
	for i := 0; i < lockRetryMax; i++ {
		if co.cache.SetNX(ctx, lockKey, "1", lockTTL) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(lockRetry):
		}
	}
	return false
}

func (co *Coordinator) unlock(ctx context.Context, key string) {
	co.cache.CompareDelete(ctx, lockKeyPrefix+key, "1")
}
