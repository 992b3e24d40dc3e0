package domain

import "time"

// DecisionEvent is the flattened verification outcome published to the
// decision event stream for downstream consumers (alarm panels, dashboards).
type DecisionEvent struct {
	UserID       string    `json:"userId"`
	DeviceID     string    `json:"deviceId"`
	AreaID       string    `json:"areaId,omitempty"`
	Direction    string    `json:"direction"`
	VerifyMethod string    `json:"verifyMethod,omitempty"`
	Granted      bool      `json:"granted"`
	ReasonCode   string    `json:"reasonCode"`
	Reason       string    `json:"reason,omitempty"`
	Waiting      bool      `json:"waiting"`
	DecidedAt    time.Time `json:"decidedAt"`
}
