package domain

import (
	"encoding/json"
	"time"
)

// PlayersDocument is the canonical player-stats store. Keys are durable
// identifiers, or synthetic unresolved-name keys for identities that never
// resolved within a run.
type PlayersDocument struct {
	Players map[string]*PlayerRecord `json:"players"`
}

// NewPlayersDocument returns an empty canonical store.
func NewPlayersDocument() *PlayersDocument {
	return &PlayersDocument{Players: make(map[string]*PlayerRecord)}
}

// PlaytimeDocument is the canonical playtime store. Peaks is written by a
// separate live-tracking process; this system threads the previous value
// through verbatim and never computes or validates it.
type PlaytimeDocument struct {
	TrackingSince time.Time                  `json:"trackingSince"`
	Players       map[string]*PlaytimeRecord `json:"players"`
	Peaks         json.RawMessage            `json:"peaks,omitempty"`
	Estimated     bool                       `json:"estimated,omitempty"`
}

// NewPlaytimeDocument returns an empty playtime store.
func NewPlaytimeDocument() *PlaytimeDocument {
	return &PlaytimeDocument{Players: make(map[string]*PlaytimeRecord)}
}
