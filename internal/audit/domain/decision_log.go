package domain

import "time"

// DecisionLog is one persisted verification decision. Every attempt produces
// exactly one row, granted or not, so the trail reconstructs what the engine
// decided and why.
type DecisionLog struct {
	ID           string
	UserID       string
	DeviceID     string
	AreaID       string
	Direction    string
	VerifyMethod string
	Granted      bool
	ReasonCode   string
	Reason       string
	DecidedAt    time.Time
}
