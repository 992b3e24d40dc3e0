package policy

import (
	"context"

	"door-access-control-plane/backend/internal/policy/domain"
)

// AreaWindows exposes an area's configured time windows for the window gate.
type AreaWindows struct {
	store *Store
}

// NewAreaWindows returns an area window lookup over the config store.
func NewAreaWindows(s *Store) *AreaWindows {
	return &AreaWindows{store: s}
}

// WindowsFor returns the area-level time windows for areaID. A degraded or
// default config has none, which the gate treats as no restriction.
func (a *AreaWindows) WindowsFor(ctx context.Context, areaID string) []domain.TimeWindow {
	cfg, _ := a.store.Resolve(ctx, areaID)
	return cfg.TimeWindows
}
