// Package domain holds the access attempt and decision types shared by the
// verification pipeline, the audit trail, and the event stream.
package domain

import "time"

// Direction of an attempted passage.
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"
)

// Reason codes attached to decisions. Codes are stable identifiers for
// dashboards and alerting; Reason carries the human-readable detail.
const (
	ReasonGranted          = "GRANTED"
	ReasonBlacklisted      = "BLACKLISTED"
	ReasonOutsideWindow    = "OUTSIDE_TIME_WINDOW"
	ReasonAntiPassback     = "ANTI_PASSBACK"
	ReasonInterlockHeld    = "INTERLOCK_HELD"
	ReasonCustomRuleDenied = "CUSTOM_RULE_DENIED"
	ReasonAwaitingOthers   = "AWAITING_CO_AUTH"
	ReasonCoAuthTimeout    = "CO_AUTH_TIMEOUT"
	ReasonInvalidAttempt   = "INVALID_ATTEMPT"
)

// AccessAttempt is one authentication at a door device, as delivered by the
// device gateway.
type AccessAttempt struct {
	UserID       string    `json:"userId"`
	DeviceID     string    `json:"deviceId"`
	AreaID       string    `json:"areaId,omitempty"`
	Direction    string    `json:"direction"`
	VerifyMethod string    `json:"verifyMethod,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Valid reports whether the attempt carries the fields every gate needs.
func (a *AccessAttempt) Valid() bool {
	if a.UserID == "" || a.DeviceID == "" {
		return false
	}
	return a.Direction == DirectionIn || a.Direction == DirectionOut
}

// WaitingState reports co-authentication progress on a not-yet-granted
// decision that is not a rejection either.
type WaitingState struct {
	SessionID string `json:"sessionId"`
	Current   int    `json:"current"`
	Required  int    `json:"required"`
}

// Decision is the verification verdict for one attempt. Exactly one of three
// shapes: granted (Granted true), rejected (Granted false, Waiting nil), or
// waiting for co-authentication (Granted false, Waiting set). Waiting is not a
// failure and must not raise alarms.
type Decision struct {
	Granted    bool          `json:"granted"`
	ReasonCode string        `json:"reasonCode"`
	Reason     string        `json:"reason"`
	Waiting    *WaitingState `json:"waiting,omitempty"`
}

// Rejected reports whether the decision is a hard rejection.
func (d *Decision) Rejected() bool {
	return !d.Granted && d.Waiting == nil
}
