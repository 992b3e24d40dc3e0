// Package producer defines the interface for emitting decision events (e.g. to Kafka).
package producer

import (
	"context"

	"door-access-control-plane/backend/internal/telemetry/domain"
)

// Producer emits decision events. Callers use it best-effort: log and ignore errors.
type Producer interface {
	// Emit sends a single decision event. Implementations may block briefly; call from a goroutine if needed.
	// Returns an error only on write failure; callers typically log and ignore.
	Emit(ctx context.Context, event *domain.DecisionEvent) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}
