// Package domain holds the anti-passback passage record.
package domain

import "time"

// Direction of a passage through a door device.
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"
)

// Record is one completed passage of a user through a device. The guard
// compares the latest record against a new attempt to detect same-direction
// repeats inside the configured window.
type Record struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	DeviceID     string    `json:"deviceId"`
	AreaID       string    `json:"areaId"`
	Direction    string    `json:"direction"`
	VerifyMethod string    `json:"verifyMethod"`
	RecordTime   time.Time `json:"recordTime"`
}
