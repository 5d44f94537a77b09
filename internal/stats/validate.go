package stats

import (
	"sort"
	"strings"

	"github.com/mvolk/zedstats/internal/domain"
)

// FieldDiff is one counter divergence between the fresh and persisted value
// of a record.
type FieldDiff struct {
	Field string
	Old   int64
	New   int64
}

// Diff describes one player whose fresh record disagrees with the
// persisted store: either entirely absent (Missing), or divergent on one or
// more tracked counters.
type Diff struct {
	Key     string
	Name    string
	Missing bool
	Fields  []FieldDiff
}

// Report is the outcome of a dry-run comparison against the persisted
// store. A zero Count means the store is already consistent with the log.
type Report struct {
	// UnresolvedPersisted lists synthetic unresolved-name keys already in
	// the persisted store, candidates for manual reconciliation.
	UnresolvedPersisted []string
	Diffs               []Diff
}

// Count returns the number of discrepancies: one per missing or divergent
// player.
func (r *Report) Count() int { return len(r.Diffs) }

// Validate compares the freshly computed canonical store against the
// previously persisted one without writing anything. Tracked fields are
// deaths, builds, raidsOut and containersLooted; a player diverging on any
// of them is reported as exactly one DIFF.
func Validate(fresh, persisted *domain.PlayersDocument) *Report {
	report := &Report{}
	if persisted == nil {
		persisted = domain.NewPlayersDocument()
	}

	for key := range persisted.Players {
		if strings.HasPrefix(key, domain.UnresolvedKeyPrefix) {
			report.UnresolvedPersisted = append(report.UnresolvedPersisted, key)
		}
	}
	sort.Strings(report.UnresolvedPersisted)

	keys := make([]string, 0, len(fresh.Players))
	for key := range fresh.Players {
		if !strings.HasPrefix(key, domain.UnresolvedKeyPrefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		rec := fresh.Players[key]
		old, ok := persisted.Players[key]
		if !ok {
			report.Diffs = append(report.Diffs, Diff{Key: key, Name: rec.Name, Missing: true})
			continue
		}
		fields := compareTracked(old, rec)
		if len(fields) > 0 {
			report.Diffs = append(report.Diffs, Diff{Key: key, Name: rec.Name, Fields: fields})
		}
	}

	return report
}

func compareTracked(old, fresh *domain.PlayerRecord) []FieldDiff {
	var fields []FieldDiff
	track := []struct {
		name     string
		old, new int64
	}{
		{"deaths", old.Deaths, fresh.Deaths},
		{"builds", old.Builds, fresh.Builds},
		{"raidsOut", old.RaidsOut, fresh.RaidsOut},
		{"containersLooted", old.ContainersLooted, fresh.ContainersLooted},
	}
	for _, t := range track {
		if t.old != t.new {
			fields = append(fields, FieldDiff{Field: t.name, Old: t.old, New: t.new})
		}
	}
	return fields
}
