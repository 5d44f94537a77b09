package domain

import "time"

// SessionAction is the direction of a connect-log event.
type SessionAction string

const (
	ActionConnected    SessionAction = "Connected"
	ActionDisconnected SessionAction = "Disconnected"
)

// SessionEvent is one parsed connect-log line. It is consumed immediately
// by session reconstruction and not retained.
type SessionEvent struct {
	Action    SessionAction
	Name      string
	DurableID string
	Instant   time.Time
}

// Session is one contiguous interval of connected presence, immutable once
// closed. For reconstructed sessions End is strictly after Start; estimated
// sessions may collapse to a single observed instant, with the fixed
// activity padding reflected in DurationMs.
type Session struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	DurationMs int64     `json:"durationMs"`
}

// PlaytimeRecord is the derived playtime view for one durable identity.
// It is recomputed from sessions on every run, never hand-edited.
type PlaytimeRecord struct {
	Name      string    `json:"name"`
	TotalMs   int64     `json:"totalMs"`
	Sessions  int64     `json:"sessions"`
	FirstSeen time.Time `json:"firstSeen"`
	LastLogin time.Time `json:"lastLogin"`
	LastSeen  time.Time `json:"lastSeen"`
}
