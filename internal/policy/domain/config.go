// Package domain holds the typed per-area access policy configuration.
//
// Area administration stores the configuration as a free-form JSON blob
// (area_access_ext.ext_config). Parsing and defaulting happen in one place
// here so the gates never probe raw JSON maps: a missing section, a missing
// field, or an unparseable blob all collapse to explicit defaults.
package domain

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrMalformedPolicy reports an ext_config blob that could not be parsed.
// Callers fall back to DefaultConfig and treat the area as using defaults.
var ErrMalformedPolicy = errors.New("malformed area policy config")

// Defaults are the system-wide fallback values applied when an area config
// omits a value. They come from app config, not from the database.
type Defaults struct {
	AntiPassbackWindowSeconds int
	InterlockTimeoutSeconds   int
	MultiPersonTimeoutSeconds int
}

// AntiPassback holds the anti-passback section of an area config.
type AntiPassback struct {
	Enabled       bool
	WindowSeconds int
}

// InterlockGroup names a set of devices that mutually exclude each other.
type InterlockGroup struct {
	GroupID   string
	DeviceIDs []string
}

// Interlock holds the interlock section of an area config.
type Interlock struct {
	Enabled        bool
	Groups         []InterlockGroup
	TimeoutSeconds int
}

// MultiPerson holds the multi-person co-authentication section.
type MultiPerson struct {
	Enabled       bool
	RequiredCount int
}

// TimeWindow is one allowed day/time range. StartTime and EndTime are "HH:MM";
// DaysOfWeek uses 1=Monday..7=Sunday, empty meaning every day. A window with
// StartTime > EndTime wraps midnight.
type TimeWindow struct {
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	DaysOfWeek []int  `json:"daysOfWeek"`
}

// AreaConfig is the resolved policy configuration for one area.
type AreaConfig struct {
	AreaID       string
	AntiPassback AntiPassback
	Interlock    Interlock
	MultiPerson  MultiPerson
	// TimeWindows are area-level windows applying to every user of the area.
	// A user's permission grant windows take precedence when the grant defines any.
	TimeWindows []TimeWindow
	// CustomRules is an optional Rego module with area-specific deny rules.
	CustomRules string
}

// DefaultConfig returns the configuration used when an area has no stored
// config or its blob cannot be read: anti-passback enabled with the system
// default window, interlock and multi-person disabled, no time windows.
func DefaultConfig(areaID string, d Defaults) *AreaConfig {
	return &AreaConfig{
		AreaID:       areaID,
		AntiPassback: AntiPassback{Enabled: true, WindowSeconds: d.AntiPassbackWindowSeconds},
		Interlock:    Interlock{Enabled: false, TimeoutSeconds: d.InterlockTimeoutSeconds},
		MultiPerson:  MultiPerson{Enabled: false},
	}
}

// GroupFor returns the interlock group containing deviceID, if any.
func (c *AreaConfig) GroupFor(deviceID string) (*InterlockGroup, bool) {
	if c == nil || !c.Interlock.Enabled {
		return nil, false
	}
	for i := range c.Interlock.Groups {
		for _, id := range c.Interlock.Groups[i].DeviceIDs {
			if id == deviceID {
				return &c.Interlock.Groups[i], true
			}
		}
	}
	return nil, false
}

// MultiPersonRequired reports whether the area requires more than one
// authenticated participant.
func (c *AreaConfig) MultiPersonRequired() bool {
	return c != nil && c.MultiPerson.Enabled && c.MultiPerson.RequiredCount > 1
}

// Wire types for the stored JSON. IDs may arrive as numbers or strings
// depending on which admin tool wrote the blob, hence json.RawMessage
// coercion below.
type extConfig struct {
	AntiPassback *extAntiPassback `json:"antiPassback"`
	Interlock    *extInterlock    `json:"interlock"`
	MultiPerson  *extMultiPerson  `json:"multiPerson"`
	TimeWindows  []TimeWindow     `json:"timeWindows"`
	CustomRules  string           `json:"customRules"`
}

type extAntiPassback struct {
	Enabled    *bool `json:"enabled"`
	TimeWindow *int  `json:"timeWindow"`
}

type extInterlock struct {
	Enabled         *bool      `json:"enabled"`
	InterlockGroups []extGroup `json:"interlockGroups"`
	Timeout         *int       `json:"timeout"`
}

type extGroup struct {
	GroupID   json.RawMessage   `json:"groupId"`
	DeviceIDs []json.RawMessage `json:"deviceIds"`
}

type extMultiPerson struct {
	Enabled       *bool `json:"enabled"`
	RequiredCount *int  `json:"requiredCount"`
}

// ParseExtConfig builds an AreaConfig from the stored JSON blob, applying
// defaults for everything the blob omits. An empty blob yields DefaultConfig.
// A blob that cannot be parsed yields DefaultConfig and ErrMalformedPolicy.
func ParseExtConfig(areaID, raw string, d Defaults) (*AreaConfig, error) {
	cfg := DefaultConfig(areaID, d)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return cfg, nil
	}

	var ext extConfig
	if err := json.Unmarshal([]byte(raw), &ext); err != nil {
		return cfg, ErrMalformedPolicy
	}

	if ap := ext.AntiPassback; ap != nil {
		if ap.Enabled != nil {
			cfg.AntiPassback.Enabled = *ap.Enabled
		}
		if ap.TimeWindow != nil && *ap.TimeWindow > 0 {
			cfg.AntiPassback.WindowSeconds = *ap.TimeWindow
		}
	}

	if il := ext.Interlock; il != nil {
		if il.Enabled != nil {
			cfg.Interlock.Enabled = *il.Enabled
		}
		if il.Timeout != nil && *il.Timeout > 0 {
			cfg.Interlock.TimeoutSeconds = *il.Timeout
		}
		for _, g := range il.InterlockGroups {
			groupID, ok := coerceID(g.GroupID)
			if !ok {
				continue
			}
			group := InterlockGroup{GroupID: groupID}
			for _, rawID := range g.DeviceIDs {
				if id, ok := coerceID(rawID); ok {
					group.DeviceIDs = append(group.DeviceIDs, id)
				}
			}
			if len(group.DeviceIDs) > 0 {
				cfg.Interlock.Groups = append(cfg.Interlock.Groups, group)
			}
		}
	}

	if mp := ext.MultiPerson; mp != nil {
		if mp.Enabled != nil {
			cfg.MultiPerson.Enabled = *mp.Enabled
		}
		if mp.RequiredCount != nil && *mp.RequiredCount > 0 {
			cfg.MultiPerson.RequiredCount = *mp.RequiredCount
		}
	}

	cfg.TimeWindows = ext.TimeWindows
	cfg.CustomRules = strings.TrimSpace(ext.CustomRules)

	return cfg, nil
}

// coerceID accepts a JSON number or string and returns it as a string ID.
func coerceID(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10), true
		}
	}
	return "", false
}
