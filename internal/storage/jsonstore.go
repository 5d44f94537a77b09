// Package storage persists the canonical documents and the run-history
// archive. The core never touches disk; it hands finished documents here.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/mvolk/zedstats/internal/domain"
)

// Store reads and writes the canonical player-stats and playtime documents.
// Writes are atomic (rename into place) and the previous version is rotated
// into a gzip-compressed, timestamped backup first.
type Store struct {
	statsPath    string
	playtimePath string
	backupDir    string
	keep         int
}

// NewStore creates a store. backupDir may be empty to disable backups;
// keep bounds how many backups are retained per document.
func NewStore(statsPath, playtimePath, backupDir string, keep int) *Store {
	return &Store{
		statsPath:    statsPath,
		playtimePath: playtimePath,
		backupDir:    backupDir,
		keep:         keep,
	}
}

// LoadPlayers reads the persisted player-stats document. A missing file is
// not an error; it yields an empty document.
func (s *Store) LoadPlayers() (*domain.PlayersDocument, error) {
	doc := domain.NewPlayersDocument()
	if err := s.load(s.statsPath, doc); err != nil {
		return nil, err
	}
	if doc.Players == nil {
		doc.Players = make(map[string]*domain.PlayerRecord)
	}
	return doc, nil
}

// LoadPlaytime reads the persisted playtime document, preserving the peaks
// sub-structure verbatim. A missing file yields an empty document.
func (s *Store) LoadPlaytime() (*domain.PlaytimeDocument, error) {
	doc := domain.NewPlaytimeDocument()
	if err := s.load(s.playtimePath, doc); err != nil {
		return nil, err
	}
	if doc.Players == nil {
		doc.Players = make(map[string]*domain.PlaytimeRecord)
	}
	return doc, nil
}

// SavePlayers replaces the player-stats document, backing up the previous
// version first.
func (s *Store) SavePlayers(doc *domain.PlayersDocument) error {
	return s.save(s.statsPath, doc)
}

// SavePlaytime replaces the playtime document, backing up the previous
// version first.
func (s *Store) SavePlaytime(doc *domain.PlaytimeDocument) error {
	return s.save(s.playtimePath, doc)
}

func (s *Store) load(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func (s *Store) save(path string, v interface{}) error {
	if err := s.backup(path); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return writeAtomic(path, append(data, '\n'))
}

// backup rotates the current file, if any, into backupDir as
// <name>-<timestamp>.json.gz and prunes old backups past the retention
// count.
func (s *Store) backup(path string) error {
	if s.backupDir == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s for backup: %w", path, err)
	}

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return fmt.Errorf("creating backup dir: %w", err)
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stamp := time.Now().UTC().Format("20060102-150405")
	target := filepath.Join(s.backupDir, fmt.Sprintf("%s-%s%s.gz", base[:len(base)-len(ext)], stamp, ext))

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating backup: %w", err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		f.Close()
		return fmt.Errorf("writing backup: %w", err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finishing backup: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing backup: %w", err)
	}

	return s.prune(base[:len(base)-len(ext)])
}

// prune removes the oldest backups for one document beyond the retention
// count. Backup names embed a sortable UTC timestamp.
func (s *Store) prune(prefix string) error {
	if s.keep <= 0 {
		return nil
	}
	entries, err := filepath.Glob(filepath.Join(s.backupDir, prefix+"-*.gz"))
	if err != nil {
		return err
	}
	if len(entries) <= s.keep {
		return nil
	}
	sort.Strings(entries)
	for _, old := range entries[:len(entries)-s.keep] {
		if err := os.Remove(old); err != nil {
			return fmt.Errorf("pruning backup %s: %w", old, err)
		}
	}
	return nil
}

// writeAtomic writes data to a temporary file in the target directory and
// renames it into place, so a crashed run never leaves a half-written
// document behind.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
