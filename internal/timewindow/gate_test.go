package timewindow

import (
	"context"
	"errors"
	"testing"
	"time"

	policydomain "door-access-control-plane/backend/internal/policy/domain"
)

type memPermissions struct {
	grants map[string]*Grant // keyed userID+"|"+areaID
	err    error
}

func (p *memPermissions) GetGrant(ctx context.Context, userID, areaID string) (*Grant, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.grants[userID+"|"+areaID], nil
}

type staticAreaWindows struct {
	windows []policydomain.TimeWindow
}

func (a *staticAreaWindows) WindowsFor(ctx context.Context, areaID string) []policydomain.TimeWindow {
	return a.windows
}

// at builds a timestamp on Wednesday 2025-06-11 at the given clock time.
func at(hour, min int) time.Time {
	return time.Date(2025, 6, 11, hour, min, 0, 0, time.UTC)
}

func businessHours() policydomain.TimeWindow {
	return policydomain.TimeWindow{StartTime: "08:00", EndTime: "18:00"}
}

func TestIsWithinWindow_NoGrantNoAreaWindows(t *testing.T) {
	g := NewGate(&memPermissions{}, nil, time.Second)
	if !g.IsWithinWindow(context.Background(), "u1", "a1", at(3, 0)) {
		t.Error("no windows defined should allow any time")
	}
}

func TestIsWithinWindow_InclusiveBoundaries(t *testing.T) {
	p := &memPermissions{grants: map[string]*Grant{
		"u1|a1": {TimeWindows: []policydomain.TimeWindow{businessHours()}},
	}}
	g := NewGate(p, nil, time.Second)
	ctx := context.Background()

	cases := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"at start", at(8, 0), true},
		{"at end", at(18, 0), true},
		{"inside", at(12, 30), true},
		{"before start", at(7, 59), false},
		{"after end", at(18, 1), false},
	}
	for _, tc := range cases {
		if got := g.IsWithinWindow(ctx, "u1", "a1", tc.t); got != tc.want {
			t.Errorf("%s: IsWithinWindow = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsWithinWindow_MidnightWrap(t *testing.T) {
	p := &memPermissions{grants: map[string]*Grant{
		"u1|a1": {TimeWindows: []policydomain.TimeWindow{
			{StartTime: "22:00", EndTime: "06:00"},
		}},
	}}
	g := NewGate(p, nil, time.Second)
	ctx := context.Background()

	cases := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"late evening", at(23, 0), true},
		{"at start", at(22, 0), true},
		{"early morning", at(3, 0), true},
		{"at end", at(6, 0), true},
		{"midday", at(12, 0), false},
		{"just after end", at(6, 1), false},
		{"just before start", at(21, 59), false},
	}
	for _, tc := range cases {
		if got := g.IsWithinWindow(ctx, "u1", "a1", tc.t); got != tc.want {
			t.Errorf("%s: IsWithinWindow = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsWithinWindow_DaysOfWeek(t *testing.T) {
	w := businessHours()
	w.DaysOfWeek = []int{1, 2, 3, 4, 5} // weekdays only
	p := &memPermissions{grants: map[string]*Grant{
		"u1|a1": {TimeWindows: []policydomain.TimeWindow{w}},
	}}
	g := NewGate(p, nil, time.Second)
	ctx := context.Background()

	wednesday := at(12, 0)
	if !g.IsWithinWindow(ctx, "u1", "a1", wednesday) {
		t.Error("weekday inside hours should pass")
	}
	saturday := time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)
	if g.IsWithinWindow(ctx, "u1", "a1", saturday) {
		t.Error("saturday should fail a weekdays-only window")
	}
}

func TestIsWithinWindow_MultipleWindowsAnyMatch(t *testing.T) {
	p := &memPermissions{grants: map[string]*Grant{
		"u1|a1": {TimeWindows: []policydomain.TimeWindow{
			{StartTime: "08:00", EndTime: "12:00"},
			{StartTime: "13:00", EndTime: "18:00"},
		}},
	}}
	g := NewGate(p, nil, time.Second)
	ctx := context.Background()

	if !g.IsWithinWindow(ctx, "u1", "a1", at(14, 0)) {
		t.Error("time inside the second window should pass")
	}
	if g.IsWithinWindow(ctx, "u1", "a1", at(12, 30)) {
		t.Error("lunch gap should fail")
	}
}

func TestIsWithinWindow_AreaWindowsFallback(t *testing.T) {
	area := &staticAreaWindows{windows: []policydomain.TimeWindow{businessHours()}}

	// No grant at all: area windows apply.
	g := NewGate(&memPermissions{}, area, time.Second)
	ctx := context.Background()
	if g.IsWithinWindow(ctx, "u1", "a1", at(22, 0)) {
		t.Error("area window should bind when the user has no grant windows")
	}
	if !g.IsWithinWindow(ctx, "u1", "a1", at(10, 0)) {
		t.Error("time inside area window should pass")
	}

	// Grant windows take precedence over area windows.
	p := &memPermissions{grants: map[string]*Grant{
		"u1|a1": {TimeWindows: []policydomain.TimeWindow{
			{StartTime: "20:00", EndTime: "23:00"},
		}},
	}}
	g = NewGate(p, area, time.Second)
	if !g.IsWithinWindow(ctx, "u1", "a1", at(22, 0)) {
		t.Error("grant window should override the area window")
	}
}

func TestIsWithinWindow_LookupFailureFailsOpen(t *testing.T) {
	g := NewGate(&memPermissions{err: errors.New("store down")}, nil, time.Second)
	if !g.IsWithinWindow(context.Background(), "u1", "a1", at(3, 0)) {
		t.Error("permission lookup failure must fail open")
	}
}

func TestIsWithinWindow_MalformedWindowFailsOpen(t *testing.T) {
	p := &memPermissions{grants: map[string]*Grant{
		"u1|a1": {TimeWindows: []policydomain.TimeWindow{
			{StartTime: "8am", EndTime: "6pm"},
		}},
	}}
	g := NewGate(p, nil, time.Second)
	if !g.IsWithinWindow(context.Background(), "u1", "a1", at(3, 0)) {
		t.Error("malformed window must fail open")
	}
}

func TestContains_OutOfRangeTimes(t *testing.T) {
	w := policydomain.TimeWindow{StartTime: "25:00", EndTime: "18:00"}
	if _, err := Contains(w, at(12, 0)); err == nil {
		t.Error("hour 25 should be rejected")
	}
	w = policydomain.TimeWindow{StartTime: "08:00", EndTime: "18:61"}
	if _, err := Contains(w, at(12, 0)); err == nil {
		t.Error("minute 61 should be rejected")
	}
}
