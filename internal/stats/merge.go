package stats

import (
	"time"

	"github.com/mvolk/zedstats/internal/domain"
)

// MergeResult is the reconciled output of one run.
type MergeResult struct {
	Players    *domain.PlayersDocument
	Playtime   *domain.PlaytimeDocument
	Unresolved []string // names that never resolved to a durable identifier
}

// Merge reconciles the aggregated records with the session reconstructor's
// view and the previously persisted store. Provisional records must already
// have been folded by Resolve; any identity still provisional here is
// persisted under its synthetic unresolved-name key so no observed event is
// lost. Connect/disconnect counters are overlaid from the session set,
// creating a minimal record (name sourced from the playtime view) for
// identities the aggregator never saw directly. The prior playtime
// document contributes only trackingSince and the verbatim peaks
// passthrough; counters are recomputed wholesale each run.
func Merge(records map[domain.Identity]*domain.PlayerRecord, sessions *SessionSet, unresolved []string, prior *domain.PlaytimeDocument, now time.Time) *MergeResult {
	players := domain.NewPlayersDocument()
	for ident, rec := range records {
		players.Players[ident.Key()] = rec
	}

	for id := range sessions.Connects {
		overlay(players, id, sessions).Connects = sessions.Connects[id]
	}
	for id := range sessions.Disconnects {
		overlay(players, id, sessions).Disconnects = sessions.Disconnects[id]
	}

	for _, rec := range players.Players {
		rec.Normalize()
	}

	playtime := domain.NewPlaytimeDocument()
	playtime.Players = sessions.Records
	playtime.Estimated = sessions.Estimated
	playtime.TrackingSince = now
	if prior != nil {
		playtime.Peaks = prior.Peaks
		if !prior.TrackingSince.IsZero() {
			playtime.TrackingSince = prior.TrackingSince
		}
	}

	return &MergeResult{
		Players:    players,
		Playtime:   playtime,
		Unresolved: unresolved,
	}
}

func overlay(doc *domain.PlayersDocument, id string, sessions *SessionSet) *domain.PlayerRecord {
	rec, ok := doc.Players[id]
	if !ok {
		rec = domain.NewPlayerRecord(sessions.Names[id])
		doc.Players[id] = rec
	}
	return rec
}
