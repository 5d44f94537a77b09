package domain

import "time"

// CheatFlag records a single anomaly detection for a player.
type CheatFlag struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// PlayerRecord holds the accumulated statistics for one identity within a
// run. Records are keyed by a durable identifier once resolution succeeds,
// or by a provisional name key until then. Counters only ever increase
// within a single processing pass.
type PlayerRecord struct {
	Name             string           `json:"name"`
	NameHistory      []string         `json:"nameHistory"`
	Deaths           int64            `json:"deaths"`
	Builds           int64            `json:"builds"`
	RaidsOut         int64            `json:"raidsOut"`
	RaidsIn          int64            `json:"raidsIn"`
	DestroyedOut     int64            `json:"destroyedOut"`
	DestroyedIn      int64            `json:"destroyedIn"`
	ContainersLooted int64            `json:"containersLooted"`
	Connects         int64            `json:"connects"`
	Disconnects      int64            `json:"disconnects"`
	AdminAccess      int64            `json:"adminAccess"`
	BuildItems       map[string]int64 `json:"buildItems"`
	DamageTaken      map[string]int64 `json:"damageTaken"`
	CheatFlags       []CheatFlag      `json:"cheatFlags"`
	LastEvent        time.Time        `json:"lastEvent"`
}

// NewPlayerRecord creates an empty record for the given display name.
func NewPlayerRecord(name string) *PlayerRecord {
	return &PlayerRecord{
		Name:        name,
		BuildItems:  make(map[string]int64),
		DamageTaken: make(map[string]int64),
	}
}

// Touch advances LastEvent to ts if ts is later. LastEvent never regresses.
func (r *PlayerRecord) Touch(ts time.Time) {
	if ts.After(r.LastEvent) {
		r.LastEvent = ts
	}
}

// SetName records a new current display name. The previous name is appended
// to NameHistory; history is append-only and never deduplicated.
func (r *PlayerRecord) SetName(name string) {
	if name == "" || name == r.Name {
		return
	}
	if r.Name != "" {
		r.NameHistory = append(r.NameHistory, r.Name)
	}
	r.Name = name
}

// AddBuildItem increments the per-item build counter.
func (r *PlayerRecord) AddBuildItem(item string) {
	if r.BuildItems == nil {
		r.BuildItems = make(map[string]int64)
	}
	r.BuildItems[item]++
}

// AddDamage increments the hit counter for a damage-source category.
func (r *PlayerRecord) AddDamage(category string) {
	if r.DamageTaken == nil {
		r.DamageTaken = make(map[string]int64)
	}
	r.DamageTaken[category]++
}

// Fold merges another record into this one: counters are summed, per-key
// tallies unioned, name history and cheat flags appended, and LastEvent
// advanced only when the other record's is strictly later. The folded
// record must be discarded afterwards so nothing is counted twice.
func (r *PlayerRecord) Fold(o *PlayerRecord) {
	r.Deaths += o.Deaths
	r.Builds += o.Builds
	r.RaidsOut += o.RaidsOut
	r.RaidsIn += o.RaidsIn
	r.DestroyedOut += o.DestroyedOut
	r.DestroyedIn += o.DestroyedIn
	r.ContainersLooted += o.ContainersLooted
	r.Connects += o.Connects
	r.Disconnects += o.Disconnects
	r.AdminAccess += o.AdminAccess
	for item, n := range o.BuildItems {
		if r.BuildItems == nil {
			r.BuildItems = make(map[string]int64)
		}
		r.BuildItems[item] += n
	}
	for cat, n := range o.DamageTaken {
		if r.DamageTaken == nil {
			r.DamageTaken = make(map[string]int64)
		}
		r.DamageTaken[cat] += n
	}
	r.NameHistory = append(r.NameHistory, o.NameHistory...)
	r.CheatFlags = append(r.CheatFlags, o.CheatFlags...)
	r.Touch(o.LastEvent)
}

// Normalize replaces nil maps and slices with empty ones so the persisted
// document always carries every field explicitly.
func (r *PlayerRecord) Normalize() {
	if r.NameHistory == nil {
		r.NameHistory = []string{}
	}
	if r.BuildItems == nil {
		r.BuildItems = make(map[string]int64)
	}
	if r.DamageTaken == nil {
		r.DamageTaken = make(map[string]int64)
	}
	if r.CheatFlags == nil {
		r.CheatFlags = []CheatFlag{}
	}
}
