package timing

import (
	"encoding/json"
	"time"
)

// State is the coordinator's position in the measurement lifecycle.
type State int

const (
	Idle State = iota
	Armed
	Measuring
	Completed
)

var stateNames = map[State]string{
	Idle:      "idle",
	Armed:     "armed",
	Measuring: "measuring",
	Completed: "completed",
}

var stateFromName = map[string]State{
	"idle":      Idle,
	"armed":     Armed,
	"measuring": Measuring,
	"completed": Completed,
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var n string
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if v, ok := stateFromName[n]; ok {
		*s = v
	}
	return nil
}

// Role is the split a sensor is configured to feed.
type Role string

const (
	RoleTee      Role = "tee"
	RoleHogClose Role = "hog_close"
	RoleHogFar   Role = "hog_far"
	RoleArm      Role = "arm"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleTee, RoleHogClose, RoleHogFar, RoleArm:
		return Role(s), true
	}
	return "", false
}

// Session is one armed-to-completed measurement cycle. A zero timestamp
// means the stone has not crossed that split (or the split was never
// measured). Only the coordinator goroutine mutates a Session.
type Session struct {
	TeeTimeNS      int64
	HogCloseTimeNS int64
	HogFarTimeNS   int64
	StartedAt      time.Time
}

func (s *Session) reset(startedAt time.Time) {
	s.TeeTimeNS = 0
	s.HogCloseTimeNS = 0
	s.HogFarTimeNS = 0
	s.StartedAt = startedAt
}

func (s *Session) TeeToHogCloseMS() (float64, bool) {
	if s.TeeTimeNS == 0 || s.HogCloseTimeNS == 0 {
		return 0, false
	}
	return float64(s.HogCloseTimeNS-s.TeeTimeNS) / 1e6, true
}

func (s *Session) HogToHogMS() (float64, bool) {
	if s.HogCloseTimeNS == 0 || s.HogFarTimeNS == 0 {
		return 0, false
	}
	return float64(s.HogFarTimeNS-s.HogCloseTimeNS) / 1e6, true
}

func (s *Session) TotalMS() (float64, bool) {
	if s.TeeTimeNS == 0 || s.HogFarTimeNS == 0 {
		return 0, false
	}
	return float64(s.HogFarTimeNS-s.TeeTimeNS) / 1e6, true
}

// SessionSnapshot is the JSON shape served by /api/status and pushed over
// the WebSocket. Absent times are null, never zero.
type SessionSnapshot struct {
	TeeTimeNS       *int64     `json:"tee_time_ns"`
	HogCloseTimeNS  *int64     `json:"hog_close_time_ns"`
	HogFarTimeNS    *int64     `json:"hog_far_time_ns"`
	TeeToHogCloseMS *float64   `json:"tee_to_hog_close_ms"`
	HogToHogMS      *float64   `json:"hog_to_hog_ms"`
	TotalMS         *float64   `json:"total_ms"`
	HasHogClose     bool       `json:"has_hog_close"`
	HasHogFar       bool       `json:"has_hog_far"`
	StartedAt       *time.Time `json:"started_at"`
}

func (s *Session) Snapshot() SessionSnapshot {
	snap := SessionSnapshot{
		TeeTimeNS:      nsPtr(s.TeeTimeNS),
		HogCloseTimeNS: nsPtr(s.HogCloseTimeNS),
		HogFarTimeNS:   nsPtr(s.HogFarTimeNS),
		HasHogClose:    s.TeeTimeNS != 0 && s.HogCloseTimeNS != 0,
		HasHogFar:      s.HogFarTimeNS != 0,
	}
	if ms, ok := s.TeeToHogCloseMS(); ok {
		snap.TeeToHogCloseMS = &ms
	}
	if ms, ok := s.HogToHogMS(); ok {
		snap.HogToHogMS = &ms
	}
	if ms, ok := s.TotalMS(); ok {
		snap.TotalMS = &ms
	}
	if !s.StartedAt.IsZero() {
		t := s.StartedAt
		snap.StartedAt = &t
	}
	return snap
}

func nsPtr(ns int64) *int64 {
	if ns == 0 {
		return nil
	}
	return &ns
}
