// Package timewindow checks whether an access attempt falls inside the day and
// time-of-day ranges granted to a user for an area.
package timewindow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	policydomain "door-access-control-plane/backend/internal/policy/domain"
)

// Grant is a user's permission for an area as reported by the permission store.
type Grant struct {
	TimeWindows []policydomain.TimeWindow
}

// PermissionStore is the minimal permission lookup needed by the gate.
type PermissionStore interface {
	// GetGrant returns the user's grant for the area, or nil when the user has
	// no explicit grant. It returns an error only for lookup failures.
	GetGrant(ctx context.Context, userID, areaID string) (*Grant, error)
}

// AreaWindows supplies area-level fallback windows; *policy.Store satisfies it
// through a small adapter in the orchestrator. May be nil.
type AreaWindows interface {
	WindowsFor(ctx context.Context, areaID string) []policydomain.TimeWindow
}

// Gate evaluates time-window eligibility. A grant with windows is authoritative;
// a grant without windows falls back to area-level windows; neither defined
// means no restriction. Lookup failures and malformed windows fail open.
type Gate struct {
	permissions PermissionStore
	areaWindows AreaWindows
	timeout     time.Duration
}

// NewGate returns a time-window gate. areaWindows may be nil when area-level
// windows are not used. timeout bounds the permission lookup.
func NewGate(permissions PermissionStore, areaWindows AreaWindows, timeout time.Duration) *Gate {
	return &Gate{permissions: permissions, areaWindows: areaWindows, timeout: timeout}
}

// IsWithinWindow reports whether at falls inside at least one allowed window
// for the user's access to the area. True when no windows are defined.
func (g *Gate) IsWithinWindow(ctx context.Context, userID, areaID string, at time.Time) bool {
	lookupCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	grant, err := g.permissions.GetGrant(lookupCtx, userID, areaID)
	if err != nil {
		log.Printf("timewindow: grant lookup failed for user %s area %s, failing open: %v", userID, areaID, err)
		return true
	}

	var windows []policydomain.TimeWindow
	if grant != nil && len(grant.TimeWindows) > 0 {
		windows = grant.TimeWindows
	} else if g.areaWindows != nil {
		windows = g.areaWindows.WindowsFor(ctx, areaID)
	}
	if len(windows) == 0 {
		return true
	}

	for _, w := range windows {
		ok, err := Contains(w, at)
		if err != nil {
			log.Printf("timewindow: malformed window %q-%q for area %s, treating as no restriction: %v",
				w.StartTime, w.EndTime, areaID, err)
			return true
		}
		if ok {
			return true
		}
	}
	return false
}

// Contains reports whether at falls inside window w. Boundaries are inclusive
// on both ends; a window whose start is after its end wraps midnight
// (e.g. 22:00-06:00 matches t >= 22:00 or t <= 06:00).
func Contains(w policydomain.TimeWindow, at time.Time) (bool, error) {
	start, err := parseMinutes(w.StartTime)
	if err != nil {
		return false, err
	}
	end, err := parseMinutes(w.EndTime)
	if err != nil {
		return false, err
	}

	if len(w.DaysOfWeek) > 0 && !containsDay(w.DaysOfWeek, isoWeekday(at)) {
		return false, nil
	}

	t := at.Hour()*60 + at.Minute()
	if start <= end {
		return start <= t && t <= end, nil
	}
	// Wrapping window.
	return t >= start || t <= end, nil
}

// isoWeekday maps time.Weekday to 1=Monday..7=Sunday.
func isoWeekday(at time.Time) int {
	wd := int(at.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

// parseMinutes parses "HH:MM" into minutes since midnight.
func parseMinutes(s string) (int, error) {
	s = strings.TrimSpace(s)
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return h*60 + m, nil
}
