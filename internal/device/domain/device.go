package domain

import "time"

// Device represents a registered door device in a facility area.
type Device struct {
	ID        string
	Name      string
	AreaID    string
	Enabled   bool
	CreatedAt time.Time
}
