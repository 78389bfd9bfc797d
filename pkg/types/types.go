package types

import (
	"fmt"
	"time"
)

// TimestampLayout is the backend's wire format for attendance timestamps.
// Seconds resolution, local time, no timezone tag.
const TimestampLayout = "2006-01-02 15:04:05"

// PunchAction is the smart status reported by the terminal
type PunchAction int

const (
	ActionCheckIn       PunchAction = 0
	ActionCheckOut      PunchAction = 1
	ActionBreakStart    PunchAction = 2
	ActionBreakEnd      PunchAction = 3
	ActionOvertimeStart PunchAction = 4
	ActionOvertimeEnd   PunchAction = 5
)

// VerifyMethod is the verification method used at the terminal
type VerifyMethod int

const (
	VerifyPassword    VerifyMethod = 0
	VerifyFingerprint VerifyMethod = 1
	VerifyFace        VerifyMethod = 2
	VerifyCard        VerifyMethod = 3
	VerifyCombined    VerifyMethod = 4
)

// AttendanceEvent is a single punch reported by a terminal. Immutable once
// received; identity/display fields are passthrough and never participate
// in reconciliation.
type AttendanceEvent struct {
	UserID       string         `json:"user_id"`
	DeviceID     string         `json:"device_id,omitempty"`
	SerialNumber string         `json:"serial_number,omitempty"`
	Timestamp    string         `json:"timestamp"`
	Action       PunchAction    `json:"action"`
	Method       VerifyMethod   `json:"method"`
	Name         string         `json:"name,omitempty"`
	FullName     string         `json:"full_name,omitempty"`
	AvatarURL    string         `json:"avatar_url,omitempty"`
	RawData      map[string]any `json:"raw_data,omitempty"`
}

// Key returns the composite deduplication key. Two events with the same
// key are the same event.
func (e AttendanceEvent) Key() string {
	return fmt.Sprintf("%s|%s|%s|%d", e.UserID, e.DeviceID, e.Timestamp, e.Action)
}

// Time parses the event timestamp. Malformed timestamps yield the zero
// time rather than an error so sorting never fails on bad device data.
func (e AttendanceEvent) Time() time.Time {
	t, err := time.ParseInLocation(TimestampLayout, e.Timestamp, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Day returns the calendar date (YYYY-MM-DD) of the event timestamp.
func (e AttendanceEvent) Day() string {
	t := e.Time()
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// LogSource identifies where a bridge log entry came from
type LogSource string

const (
	LogSourceStdout LogSource = "stdout"
	LogSourceStderr LogSource = "stderr"
	LogSourceSystem LogSource = "system"
)

// LogLevel classifies a bridge log entry
type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// LogEntry is one captured line of backend process output
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Source    LogSource `json:"source"`
}

// ServiceStatus is the backend's /service/status response body
type ServiceStatus struct {
	Status      string  `json:"status"`
	PID         int     `json:"pid"`
	MemoryUsage float64 `json:"memory_usage"` // MB
	CPUPercent  float64 `json:"cpu_percent"`
	Uptime      float64 `json:"uptime"` // seconds
	Threads     int     `json:"threads,omitempty"`
	PublicIP    string  `json:"public_ip,omitempty"`
	LocalIP     string  `json:"local_ip,omitempty"`
}

// ServiceMetrics is the last-known resource snapshot shown by the UI
type ServiceMetrics struct {
	Status      string  `json:"status"` // "running", "stopped", "error"
	PID         int     `json:"pid"`
	Uptime      float64 `json:"uptime"`
	MemoryUsage float64 `json:"memory_usage"`
	CPUPercent  float64 `json:"cpu_percent"`
}

// StoppedMetrics is the baseline snapshot applied when the backend is
// stopped or unreachable.
func StoppedMetrics(status string) ServiceMetrics {
	return ServiceMetrics{Status: status}
}

// DeviceScope selects which devices the live feed follows
type DeviceScope struct {
	// AllDevices follows every configured device when true; otherwise
	// only DeviceID is followed.
	AllDevices bool   `json:"all_devices"`
	DeviceID   string `json:"device_id,omitempty"`
}

// Equal reports whether two scopes select the same subscription target
func (s DeviceScope) Equal(other DeviceScope) bool {
	if s.AllDevices != other.AllDevices {
		return false
	}
	return s.AllDevices || s.DeviceID == other.DeviceID
}

// String renders the scope for logging
func (s DeviceScope) String() string {
	if s.AllDevices {
		return "all-devices"
	}
	return "device:" + s.DeviceID
}

// AttendancePage is one historical page from /attendance/logs
type AttendancePage struct {
	Data       []AttendanceEvent `json:"data"`
	Pagination Pagination        `json:"pagination"`
}

// Pagination describes a historical page
type Pagination struct {
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
	TotalCount int `json:"total_count"`
}
