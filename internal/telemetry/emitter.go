package telemetry

import (
	"context"

	"door-access-control-plane/backend/internal/telemetry/domain"
)

// EventEmitter emits decision events (e.g. to Kafka). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.DecisionEvent) error
}
