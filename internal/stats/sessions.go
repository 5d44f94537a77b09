package stats

import (
	"sort"
	"time"

	"github.com/mvolk/zedstats/internal/domain"
)

const (
	// DefaultSessionGap bounds fallback clustering: activity instants more
	// than this far apart belong to different sessions.
	DefaultSessionGap = 30 * time.Minute

	// DefaultSessionPadding approximates activity before the first and
	// after the last observed action of an estimated session.
	DefaultSessionPadding = 15 * time.Minute
)

// SessionSet is the session reconstructor's output: bounded sessions and
// connect counters per durable identity. Estimated is true when sessions
// were clustered from activity instants instead of an explicit
// connect/disconnect feed.
type SessionSet struct {
	Records     map[string]*domain.PlaytimeRecord
	Sessions    map[string][]domain.Session
	Connects    map[string]int64
	Disconnects map[string]int64
	Names       map[string]string
	Estimated   bool
}

func newSessionSet() *SessionSet {
	return &SessionSet{
		Records:     make(map[string]*domain.PlaytimeRecord),
		Sessions:    make(map[string][]domain.Session),
		Connects:    make(map[string]int64),
		Disconnects: make(map[string]int64),
		Names:       make(map[string]string),
	}
}

// ReconstructSessions pairs connect/disconnect events, in feed order, into
// bounded sessions. A Connected overwrites any still-open start for that
// identity. A Disconnected with a matching open start closes a session
// (discarded when its duration is not positive); an unmatched Disconnected
// still counts. Identities left open at end of input are closed at the
// instant of the last event in the feed, never at processing wall-clock.
func ReconstructSessions(events []domain.SessionEvent) *SessionSet {
	set := newSessionSet()
	open := make(map[string]time.Time)
	var last time.Time

	for _, event := range events {
		last = event.Instant
		set.Names[event.DurableID] = event.Name

		switch event.Action {
		case domain.ActionConnected:
			set.Connects[event.DurableID]++
			open[event.DurableID] = event.Instant
		case domain.ActionDisconnected:
			set.Disconnects[event.DurableID]++
			start, ok := open[event.DurableID]
			if !ok {
				continue
			}
			delete(open, event.DurableID)
			set.close(event.DurableID, start, event.Instant)
		}
	}

	for id, start := range open {
		set.close(id, start, last)
	}

	set.derive()
	return set
}

// EstimateSessions clusters per-identity activity instants into sessions
// when no connect log is available: consecutive instants within gap share a
// session, and each session's duration is inflated by the fixed padding.
// The result is an estimate and is flagged as such.
func EstimateSessions(activity map[string][]time.Time, names map[string]string, gap, padding time.Duration) *SessionSet {
	if gap <= 0 {
		gap = DefaultSessionGap
	}
	if padding <= 0 {
		padding = DefaultSessionPadding
	}

	set := newSessionSet()
	set.Estimated = true

	for id, instants := range activity {
		if len(instants) == 0 {
			continue
		}
		sorted := make([]time.Time, len(instants))
		copy(sorted, instants)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

		if name, ok := names[id]; ok {
			set.Names[id] = name
		}

		start := sorted[0]
		end := sorted[0]
		for _, ts := range sorted[1:] {
			if ts.Sub(end) > gap {
				set.Sessions[id] = append(set.Sessions[id], estimatedSession(start, end, padding))
				start = ts
			}
			end = ts
		}
		set.Sessions[id] = append(set.Sessions[id], estimatedSession(start, end, padding))
	}

	set.derive()
	return set
}

func estimatedSession(start, end time.Time, padding time.Duration) domain.Session {
	return domain.Session{
		Start:      start,
		End:        end,
		DurationMs: end.Sub(start).Milliseconds() + padding.Milliseconds(),
	}
}

// close appends a reconstructed session when its duration is positive.
func (s *SessionSet) close(id string, start, end time.Time) {
	if !end.After(start) {
		return
	}
	s.Sessions[id] = append(s.Sessions[id], domain.Session{
		Start:      start,
		End:        end,
		DurationMs: end.Sub(start).Milliseconds(),
	})
}

// derive recomputes the per-identity playtime records from the session
// sets and connect counters.
func (s *SessionSet) derive() {
	for id := range s.Names {
		s.record(id)
	}
	for id := range s.Sessions {
		rec := s.record(id)
		for _, session := range s.Sessions[id] {
			rec.TotalMs += session.DurationMs
			rec.Sessions++
			if rec.FirstSeen.IsZero() || session.Start.Before(rec.FirstSeen) {
				rec.FirstSeen = session.Start
			}
			if session.Start.After(rec.LastLogin) {
				rec.LastLogin = session.Start
			}
			if session.End.After(rec.LastSeen) {
				rec.LastSeen = session.End
			}
		}
	}
}

func (s *SessionSet) record(id string) *domain.PlaytimeRecord {
	rec, ok := s.Records[id]
	if !ok {
		rec = &domain.PlaytimeRecord{Name: s.Names[id]}
		s.Records[id] = rec
	}
	return rec
}
