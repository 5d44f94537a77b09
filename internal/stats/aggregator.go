// Package stats turns classified log events into canonical per-player
// records: aggregation, identity resolution, session reconstruction, and
// the merge/validation engine over the persisted store.
package stats

import (
	"strings"
	"time"

	"github.com/mvolk/zedstats/internal/collector"
	"github.com/mvolk/zedstats/internal/domain"
)

// Aggregator accumulates classified events into one record per identity.
// It is owned exclusively by a single run; there is no shared state across
// runs.
type Aggregator struct {
	records   map[domain.Identity]*domain.PlayerRecord
	nameIndex map[string]domain.Identity // lower-cased name -> resolved identity
	activity  map[string][]time.Time     // durable id -> activity instants for fallback playtime
	earliest  time.Time
	latest    time.Time
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		records:   make(map[domain.Identity]*domain.PlayerRecord),
		nameIndex: make(map[string]domain.Identity),
		activity:  make(map[string][]time.Time),
	}
}

// Apply folds one classified event into the aggregate. Filtering rules
// (non-positive damage, self-loot, raid attribution) live here rather than
// in the classifier so the parser stays a pure extractor.
func (a *Aggregator) Apply(event collector.LogEvent) {
	a.observe(event.Timestamp)

	switch event.Type {
	case collector.EventTypeDeath:
		data := event.Data.(collector.DeathData)
		rec := a.byName(data.Name)
		rec.Deaths++
		rec.Touch(event.Timestamp)

	case collector.EventTypeBuild:
		data := event.Data.(collector.BuildData)
		rec := a.byID(data.PlayerID, data.Name)
		rec.Builds++
		rec.AddBuildItem(data.Item)
		rec.Touch(event.Timestamp)
		a.recordActivity(data.PlayerID, event.Timestamp)

	case collector.EventTypeDamage:
		data := event.Data.(collector.DamageData)
		if data.Amount <= 0 {
			return
		}
		rec := a.byName(data.Name)
		rec.AddDamage(data.Category)
		rec.Touch(event.Timestamp)

	case collector.EventTypeLoot:
		data := event.Data.(collector.LootData)
		if data.PlayerID == data.OwnerID {
			return // self-loot
		}
		rec := a.byID(data.PlayerID, data.Name)
		rec.ContainersLooted++
		rec.Touch(event.Timestamp)
		a.recordActivity(data.PlayerID, event.Timestamp)

	case collector.EventTypeRaid:
		a.applyRaid(event.Timestamp, event.Data.(collector.RaidData))

	case collector.EventTypeAdminAccess:
		data := event.Data.(collector.AdminAccessData)
		rec := a.byName(data.Name)
		rec.AdminAccess++
		rec.Touch(event.Timestamp)

	case collector.EventTypeCheatFlag:
		data := event.Data.(collector.CheatFlagData)
		rec := a.byID(data.PlayerID, data.Name)
		rec.CheatFlags = append(rec.CheatFlags, domain.CheatFlag{
			Type:      data.FlagType,
			Timestamp: event.Timestamp,
		})
		rec.Touch(event.Timestamp)
	}
}

// applyRaid attributes a building-damage event. Decay and creature
// attackers, attacker-equals-owner lines, and lines with no extractable
// owner identifier are all suppressed by design. The owner side is only
// credited when the owner already has a record in this run.
func (a *Aggregator) applyRaid(ts time.Time, data collector.RaidData) {
	if data.OwnerID == "" {
		return
	}
	if collector.IsEnvironmentAttacker(data.Attacker) {
		return
	}
	if data.AttackerID != "" && data.AttackerID == data.OwnerID {
		return
	}

	if data.AttackerID != "" {
		rec := a.byID(data.AttackerID, data.Attacker)
		rec.RaidsOut++
		if data.Destroyed {
			rec.DestroyedOut++
		}
		rec.Touch(ts)
		a.recordActivity(data.AttackerID, ts)
	}

	if owner, ok := a.records[domain.ResolvedIdentity(data.OwnerID)]; ok {
		owner.RaidsIn++
		if data.Destroyed {
			owner.DestroyedIn++
		}
		owner.Touch(ts)
	}
}

// byID returns the record for a durable identifier, creating it if needed,
// and overwrites its display name with the latest observed value.
func (a *Aggregator) byID(id, name string) *domain.PlayerRecord {
	ident := domain.ResolvedIdentity(id)
	rec, ok := a.records[ident]
	if !ok {
		rec = domain.NewPlayerRecord(name)
		a.records[ident] = rec
	} else {
		rec.SetName(name)
	}
	if name != "" {
		a.nameIndex[strings.ToLower(name)] = ident
	}
	return rec
}

// byName attributes a name-only observation: an already-known durable
// record whose current name matches wins, otherwise a provisional
// name-keyed record is used.
func (a *Aggregator) byName(name string) *domain.PlayerRecord {
	if ident, ok := a.nameIndex[strings.ToLower(name)]; ok {
		return a.records[ident]
	}
	ident := domain.ProvisionalIdentity(name)
	rec, ok := a.records[ident]
	if !ok {
		rec = domain.NewPlayerRecord(name)
		a.records[ident] = rec
	}
	return rec
}

func (a *Aggregator) recordActivity(id string, ts time.Time) {
	a.activity[id] = append(a.activity[id], ts)
}

func (a *Aggregator) observe(ts time.Time) {
	if a.earliest.IsZero() || ts.Before(a.earliest) {
		a.earliest = ts
	}
	if ts.After(a.latest) {
		a.latest = ts
	}
}

// Records exposes the per-identity aggregate for resolution and merging.
func (a *Aggregator) Records() map[domain.Identity]*domain.PlayerRecord {
	return a.records
}

// Activity returns the per-identity activity instants gathered from build,
// loot and raid-attacker events, used by fallback playtime estimation.
func (a *Aggregator) Activity() map[string][]time.Time {
	return a.activity
}

// Names returns the last display name seen for each durable identifier.
func (a *Aggregator) Names() map[string]string {
	names := make(map[string]string)
	for ident, rec := range a.records {
		if ident.Resolved() {
			names[ident.DurableID()] = rec.Name
		}
	}
	return names
}

// Earliest returns the minimum instant over all applied events.
func (a *Aggregator) Earliest() time.Time { return a.earliest }

// Latest returns the maximum instant over all applied events.
func (a *Aggregator) Latest() time.Time { return a.latest }
