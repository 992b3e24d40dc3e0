package user

import (
	"context"
	"testing"
	"time"

	"door-access-control-plane/backend/internal/blacklist"
	"door-access-control-plane/backend/internal/user/domain"
)

type memRepo struct {
	users map[string]*domain.User
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.users[id], nil
}

func TestGetStatus(t *testing.T) {
	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d := NewDirectory(&memRepo{users: map[string]*domain.User{
		"active":   {ID: "active", Status: domain.StatusActive, ExpiresAt: &expiry},
		"locked":   {ID: "locked", Status: domain.StatusLocked},
		"disabled": {ID: "disabled", Status: domain.StatusDisabled},
	}})
	ctx := context.Background()

	s, err := d.GetStatus(ctx, "active")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if s.State != blacklist.AccountActive || s.ExpiresAt == nil || !s.ExpiresAt.Equal(expiry) {
		t.Errorf("status = %+v", s)
	}

	s, _ = d.GetStatus(ctx, "locked")
	if s.State != blacklist.AccountLocked {
		t.Errorf("locked state = %v", s.State)
	}

	s, _ = d.GetStatus(ctx, "disabled")
	if s.State != blacklist.AccountDisabled {
		t.Errorf("disabled state = %v", s.State)
	}

	s, err = d.GetStatus(ctx, "ghost")
	if err != nil || s != nil {
		t.Errorf("unknown user = %+v, %v, want nil, nil", s, err)
	}
}
