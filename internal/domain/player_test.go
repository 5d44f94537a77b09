package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlayerRecordTouchNeverRegresses(t *testing.T) {
	rec := NewPlayerRecord("Bob")
	later := time.Date(2024, 6, 5, 15, 0, 0, 0, time.UTC)
	earlier := later.Add(-time.Hour)

	rec.Touch(later)
	rec.Touch(earlier)
	assert.Equal(t, later, rec.LastEvent)
}

func TestPlayerRecordSetName(t *testing.T) {
	rec := NewPlayerRecord("Bob")
	rec.SetName("Bob") // no-op
	assert.Empty(t, rec.NameHistory)

	rec.SetName("Bobby")
	rec.SetName("Bob")
	rec.SetName("Bobby")
	assert.Equal(t, "Bobby", rec.Name)
	// History is append-only and never deduplicated.
	assert.Equal(t, []string{"Bob", "Bobby", "Bob"}, rec.NameHistory)
}

func TestPlayerRecordFold(t *testing.T) {
	a := NewPlayerRecord("Bob")
	a.Deaths = 1
	a.AddDamage("Zombie")
	a.Touch(time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC))

	b := NewPlayerRecord("bob")
	b.Deaths = 2
	b.AdminAccess = 1
	b.AddDamage("Zombie")
	b.AddDamage("Wolf")
	b.Touch(time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC))

	a.Fold(b)
	assert.Equal(t, int64(3), a.Deaths)
	assert.Equal(t, int64(1), a.AdminAccess)
	assert.Equal(t, int64(2), a.DamageTaken["Zombie"])
	assert.Equal(t, int64(1), a.DamageTaken["Wolf"])
	assert.Equal(t, time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC), a.LastEvent)
}

func TestIdentityKeys(t *testing.T) {
	resolved := ResolvedIdentity("76561198000000001")
	assert.True(t, resolved.Resolved())
	assert.Equal(t, "76561198000000001", resolved.Key())

	provisional := ProvisionalIdentity("Ghost")
	assert.False(t, provisional.Resolved())
	assert.Equal(t, "unresolved:ghost", provisional.Key())

	// Name comparison is case-insensitive via the lower-cased key.
	assert.Equal(t, ProvisionalIdentity("GHOST"), ProvisionalIdentity("ghost"))
}
