// Package domain holds the multi-person co-authentication session.
package domain

import "time"

// Session status values. A session starts WAITING and terminates exactly once,
// as COMPLETED when enough distinct participants authenticate before the
// deadline or as TIMEOUT afterwards.
const (
	StatusWaiting   = "WAITING"
	StatusCompleted = "COMPLETED"
	StatusTimeout   = "TIMEOUT"
)

// Session collects authentications from distinct users at one device until the
// required count is reached.
type Session struct {
	SessionID          string     `json:"sessionId"`
	AreaID             string     `json:"areaId"`
	DeviceID           string     `json:"deviceId"`
	RequiredCount      int        `json:"requiredCount"`
	ParticipantUserIDs []string   `json:"participantUserIds"`
	Status             string     `json:"status"`
	StartTime          time.Time  `json:"startTime"`
	ExpireTime         time.Time  `json:"expireTime"`
	CompleteTime       *time.Time `json:"completeTime,omitempty"`
}

// HasParticipant reports whether userID already authenticated in this session.
func (s *Session) HasParticipant(userID string) bool {
	for _, id := range s.ParticipantUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Expired reports whether the session deadline has passed at t.
func (s *Session) Expired(t time.Time) bool {
	return t.After(s.ExpireTime)
}
