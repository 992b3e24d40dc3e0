package domain

import "time"

// UserStatus is the directory state of a facility user.
type UserStatus string

const (
	StatusActive   UserStatus = "ACTIVE"
	StatusDisabled UserStatus = "DISABLED"
	StatusLocked   UserStatus = "LOCKED"
)

// User represents a facility user known to the access system.
type User struct {
	ID        string
	Name      string
	Status    UserStatus
	// ExpiresAt is when the user's facility access ends; nil means no expiry.
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
