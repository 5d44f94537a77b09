package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvolk/zedstats/internal/domain"
)

func docWith(key string, mutate func(*domain.PlayerRecord)) *domain.PlayersDocument {
	doc := domain.NewPlayersDocument()
	rec := domain.NewPlayerRecord("Bob")
	if mutate != nil {
		mutate(rec)
	}
	doc.Players[key] = rec
	return doc
}

func TestValidateIdenticalStoreHasNoDiscrepancies(t *testing.T) {
	fresh := docWith(bobID, func(r *domain.PlayerRecord) { r.Deaths = 3; r.Builds = 7 })
	persisted := docWith(bobID, func(r *domain.PlayerRecord) { r.Deaths = 3; r.Builds = 7 })

	report := Validate(fresh, persisted)
	assert.Zero(t, report.Count())
	assert.Empty(t, report.UnresolvedPersisted)
}

func TestValidateSingleFieldDivergenceIsOneDiff(t *testing.T) {
	fresh := docWith(bobID, func(r *domain.PlayerRecord) { r.Deaths = 4 })
	persisted := docWith(bobID, func(r *domain.PlayerRecord) { r.Deaths = 3 })

	report := Validate(fresh, persisted)
	require.Equal(t, 1, report.Count())

	diff := report.Diffs[0]
	assert.Equal(t, bobID, diff.Key)
	assert.False(t, diff.Missing)
	require.Len(t, diff.Fields, 1)
	assert.Equal(t, FieldDiff{Field: "deaths", Old: 3, New: 4}, diff.Fields[0])
}

func TestValidateMultipleFieldsStillOneDiff(t *testing.T) {
	fresh := docWith(bobID, func(r *domain.PlayerRecord) {
		r.Deaths = 4
		r.Builds = 2
		r.RaidsOut = 1
		r.ContainersLooted = 9
	})
	persisted := docWith(bobID, nil)

	report := Validate(fresh, persisted)
	require.Equal(t, 1, report.Count())
	assert.Len(t, report.Diffs[0].Fields, 4)
}

func TestValidateMissingPlayer(t *testing.T) {
	fresh := docWith(bobID, nil)

	report := Validate(fresh, domain.NewPlayersDocument())
	require.Equal(t, 1, report.Count())
	assert.True(t, report.Diffs[0].Missing)
}

func TestValidateUntrackedFieldsIgnored(t *testing.T) {
	fresh := docWith(bobID, func(r *domain.PlayerRecord) { r.Connects = 10; r.RaidsIn = 2 })
	persisted := docWith(bobID, nil)

	report := Validate(fresh, persisted)
	assert.Zero(t, report.Count())
}

func TestValidateReportsPersistedUnresolvedEntries(t *testing.T) {
	persisted := docWith("unresolved:ghost", nil)
	fresh := domain.NewPlayersDocument()

	report := Validate(fresh, persisted)
	assert.Equal(t, []string{"unresolved:ghost"}, report.UnresolvedPersisted)
	assert.Zero(t, report.Count())
}

func TestValidateSkipsFreshSyntheticKeys(t *testing.T) {
	fresh := docWith("unresolved:ghost", func(r *domain.PlayerRecord) { r.Deaths = 1 })

	report := Validate(fresh, domain.NewPlayersDocument())
	assert.Zero(t, report.Count())
}

func TestValidateNilPersistedStore(t *testing.T) {
	fresh := docWith(bobID, nil)
	report := Validate(fresh, nil)
	assert.Equal(t, 1, report.Count())
	assert.True(t, report.Diffs[0].Missing)
}
