// Package user exposes the facility user directory.
package user

import (
	"context"

	"door-access-control-plane/backend/internal/blacklist"
	"door-access-control-plane/backend/internal/user/domain"
	"door-access-control-plane/backend/internal/user/repository"
)

// Directory adapts the user repository to the eligibility gate's lookup.
type Directory struct {
	repo repository.Repository
}

// NewDirectory returns a directory over repo.
func NewDirectory(repo repository.Repository) *Directory {
	return &Directory{repo: repo}
}

// GetStatus returns the account status for userID, or nil when the user is
// unknown to the directory.
func (d *Directory) GetStatus(ctx context.Context, userID string) (*blacklist.UserStatus, error) {
	u, err := d.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	return &blacklist.UserStatus{
		State:     accountState(u.Status),
		ExpiresAt: u.ExpiresAt,
	}, nil
}

func accountState(s domain.UserStatus) blacklist.AccountState {
	switch s {
	case domain.StatusActive:
		return blacklist.AccountActive
	case domain.StatusLocked:
		return blacklist.AccountLocked
	default:
		return blacklist.AccountDisabled
	}
}
