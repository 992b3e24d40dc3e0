// Package audit persists one log row per verification decision.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"door-access-control-plane/backend/internal/audit/domain"
	auditrepo "door-access-control-plane/backend/internal/audit/repository"
	verifdomain "door-access-control-plane/backend/internal/verification/domain"
)

// writeTimeout is the max time allowed for a single async decision write.
const writeTimeout = 5 * time.Second

// DecisionLogger records verification decisions. LogDecision is best-effort:
// failures are logged and do not affect the caller.
type DecisionLogger interface {
	LogDecision(attempt *verifdomain.AccessAttempt, decision *verifdomain.Decision, at time.Time)
}

// Logger implements DecisionLogger over the decision log repository. Writes
// happen on a goroutine with their own deadline so the verification path never
// waits on the database.
type Logger struct {
	repo auditrepo.Repository
}

// NewLogger returns a DecisionLogger that persists to repo. repo may be nil;
// then decisions are not recorded.
func NewLogger(repo auditrepo.Repository) *Logger {
	return &Logger{repo: repo}
}

// LogDecision writes one decision log row asynchronously.
func (l *Logger) LogDecision(attempt *verifdomain.AccessAttempt, decision *verifdomain.Decision, at time.Time) {
	if l == nil || l.repo == nil || attempt == nil || decision == nil {
		return
	}
	entry := &domain.DecisionLog{
		ID:           uuid.New().String(),
		UserID:       attempt.UserID,
		DeviceID:     attempt.DeviceID,
		AreaID:       attempt.AreaID,
		Direction:    attempt.Direction,
		VerifyMethod: attempt.VerifyMethod,
		Granted:      decision.Granted,
		ReasonCode:   decision.ReasonCode,
		Reason:       decision.Reason,
		DecidedAt:    at,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := l.repo.Create(ctx, entry); err != nil {
			log.Printf("audit: failed to log decision %s for user %s: %v", entry.ReasonCode, entry.UserID, err)
		}
	}()
}
