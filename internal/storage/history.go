package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mvolk/zedstats/internal/domain"
	_ "modernc.org/sqlite"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	mode TEXT NOT NULL,
	lines INTEGER NOT NULL DEFAULT 0,
	parsed INTEGER NOT NULL DEFAULT 0,
	skipped INTEGER NOT NULL DEFAULT 0,
	players INTEGER NOT NULL DEFAULT 0,
	unresolved INTEGER NOT NULL DEFAULT 0,
	discrepancies INTEGER NOT NULL DEFAULT 0,
	estimated INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS run_players (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	player_key TEXT NOT NULL,
	name TEXT NOT NULL,
	deaths INTEGER NOT NULL DEFAULT 0,
	builds INTEGER NOT NULL DEFAULT 0,
	raids_out INTEGER NOT NULL DEFAULT 0,
	raids_in INTEGER NOT NULL DEFAULT 0,
	containers_looted INTEGER NOT NULL DEFAULT 0,
	connects INTEGER NOT NULL DEFAULT 0,
	playtime_ms INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, player_key)
);

CREATE INDEX IF NOT EXISTS idx_run_players_key ON run_players(player_key);
`

// RunSummary is one row of the run-history archive.
type RunSummary struct {
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Mode          string    `json:"mode"`
	Lines         int       `json:"lines"`
	Parsed        int       `json:"parsed"`
	Skipped       int       `json:"skipped"`
	Players       int       `json:"players"`
	Unresolved    int       `json:"unresolved"`
	Discrepancies int       `json:"discrepancies"`
	Estimated     bool      `json:"estimated"`
}

// History archives per-run counters and player snapshots for trend queries.
type History struct {
	db *sql.DB
}

// OpenHistory opens (and migrates) the run-history database.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting pragmas: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &History{db: db}, nil
}

// Close closes the database connection.
func (h *History) Close() error {
	return h.db.Close()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// RecordRun appends one run row plus a per-player counter snapshot.
func (h *History) RecordRun(ctx context.Context, run *RunSummary, players *domain.PlayersDocument, playtime *domain.PlaytimeDocument) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, mode, lines, parsed, skipped, players, unresolved, discrepancies, estimated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, formatTimestamp(run.StartedAt), formatTimestamp(run.FinishedAt), run.Mode,
		run.Lines, run.Parsed, run.Skipped, run.Players, run.Unresolved, run.Discrepancies, run.Estimated)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_players (run_id, player_key, name, deaths, builds, raids_out, raids_in, containers_looted, connects, playtime_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing snapshot insert: %w", err)
	}
	defer stmt.Close()

	for key, rec := range players.Players {
		var playtimeMs int64
		if playtime != nil {
			if pt, ok := playtime.Players[key]; ok {
				playtimeMs = pt.TotalMs
			}
		}
		if _, err := stmt.ExecContext(ctx, run.ID, key, rec.Name,
			rec.Deaths, rec.Builds, rec.RaidsOut, rec.RaidsIn,
			rec.ContainersLooted, rec.Connects, playtimeMs); err != nil {
			return fmt.Errorf("inserting snapshot for %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// RecentRuns returns the most recent runs, newest first.
func (h *History) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, mode, lines, parsed, skipped, players, unresolved, discrepancies, estimated
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		var started, finished string
		if err := rows.Scan(&run.ID, &started, &finished, &run.Mode,
			&run.Lines, &run.Parsed, &run.Skipped, &run.Players,
			&run.Unresolved, &run.Discrepancies, &run.Estimated); err != nil {
			return nil, err
		}
		run.StartedAt, _ = time.Parse(time.RFC3339, started)
		run.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
