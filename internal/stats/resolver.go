package stats

import (
	"sort"
	"strings"

	"github.com/mvolk/zedstats/internal/domain"
)

// IdentityMap maps lower-cased display names to durable identifiers.
type IdentityMap map[string]string

// BuildIdentityMap assembles the run's identity map from, in precedence
// order: the external identifier feed, names already attached to durable
// records in the current run, and names attached to playtime records. A
// later source never overwrites a mapping established by an earlier one.
func BuildIdentityMap(feed map[string]string, records map[domain.Identity]*domain.PlayerRecord, playtime map[string]*domain.PlaytimeRecord) IdentityMap {
	idmap := make(IdentityMap, len(feed))
	for name, id := range feed {
		idmap[strings.ToLower(name)] = id
	}
	for ident, rec := range records {
		if !ident.Resolved() || rec.Name == "" {
			continue
		}
		key := strings.ToLower(rec.Name)
		if _, ok := idmap[key]; !ok {
			idmap[key] = ident.DurableID()
		}
	}
	for id, rec := range playtime {
		if rec.Name == "" {
			continue
		}
		key := strings.ToLower(rec.Name)
		if _, ok := idmap[key]; !ok {
			idmap[key] = id
		}
	}
	return idmap
}

// Resolve folds every provisional record whose name appears in the identity
// map into its durable target and discards the provisional. Returns the
// names (lower-cased, sorted) that remain unresolved.
func Resolve(records map[domain.Identity]*domain.PlayerRecord, idmap IdentityMap) []string {
	var unresolved []string

	for ident, rec := range records {
		if ident.Resolved() {
			continue
		}
		id, ok := idmap[ident.Name()]
		if !ok {
			unresolved = append(unresolved, ident.Name())
			continue
		}

		target := domain.ResolvedIdentity(id)
		existing, ok := records[target]
		if !ok {
			existing = domain.NewPlayerRecord(rec.Name)
			records[target] = existing
		}
		existing.Fold(rec)
		delete(records, ident)
	}

	sort.Strings(unresolved)
	return unresolved
}
