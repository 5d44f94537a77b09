package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvolk/zedstats/internal/domain"
)

func tempStore(t *testing.T, keep int) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store := NewStore(
		filepath.Join(dir, "players.json"),
		filepath.Join(dir, "playtime.json"),
		filepath.Join(dir, "backups"),
		keep,
	)
	return store, dir
}

func TestStoreMissingFilesYieldEmptyDocuments(t *testing.T) {
	store, _ := tempStore(t, 3)

	players, err := store.LoadPlayers()
	require.NoError(t, err)
	assert.Empty(t, players.Players)

	playtime, err := store.LoadPlaytime()
	require.NoError(t, err)
	assert.Empty(t, playtime.Players)
	assert.Nil(t, playtime.Peaks)
}

func TestStorePlayersRoundTrip(t *testing.T) {
	store, _ := tempStore(t, 3)

	doc := domain.NewPlayersDocument()
	rec := domain.NewPlayerRecord("Bob")
	rec.Deaths = 3
	rec.BuildItems["Wall Wood"] = 2
	rec.Normalize()
	doc.Players["76561198000000001"] = rec
	doc.Players["unresolved:ghost"] = domain.NewPlayerRecord("Ghost")
	doc.Players["unresolved:ghost"].Normalize()

	require.NoError(t, store.SavePlayers(doc))

	loaded, err := store.LoadPlayers()
	require.NoError(t, err)
	assert.Equal(t, doc.Players, loaded.Players)
}

func TestStorePlaytimePeaksVerbatim(t *testing.T) {
	store, _ := tempStore(t, 3)

	doc := domain.NewPlaytimeDocument()
	doc.TrackingSince = time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	doc.Players["76561198000000001"] = &domain.PlaytimeRecord{Name: "Bob", TotalMs: 5000, Sessions: 2}
	doc.Peaks = json.RawMessage(`{"allTime":{"count":17,"at":"2024-01-01T00:00:00Z"},"today":{"count":4}}`)

	require.NoError(t, store.SavePlaytime(doc))

	loaded, err := store.LoadPlaytime()
	require.NoError(t, err)
	assert.JSONEq(t, string(doc.Peaks), string(loaded.Peaks))
	assert.Equal(t, doc.Players, loaded.Players)
	assert.True(t, doc.TrackingSince.Equal(loaded.TrackingSince))
}

func TestStoreBackupRotation(t *testing.T) {
	store, dir := tempStore(t, 2)

	doc := domain.NewPlayersDocument()
	for i := 0; i < 4; i++ {
		require.NoError(t, store.SavePlayers(doc))
		// Backup names embed a second-resolution timestamp.
		time.Sleep(1100 * time.Millisecond)
	}

	backups, err := filepath.Glob(filepath.Join(dir, "backups", "players-*.json.gz"))
	require.NoError(t, err)
	// First save has nothing to back up; retention keeps the newest two.
	assert.Len(t, backups, 2)
}

func TestStoreNoBackupDirDisablesBackups(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "players.json"), filepath.Join(dir, "playtime.json"), "", 0)

	doc := domain.NewPlayersDocument()
	require.NoError(t, store.SavePlayers(doc))
	require.NoError(t, store.SavePlayers(doc))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".gz")
	}
}
