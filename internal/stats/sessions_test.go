package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvolk/zedstats/internal/domain"
)

func connect(action domain.SessionAction, minute int) domain.SessionEvent {
	return domain.SessionEvent{
		Action:    action,
		Name:      "Bob",
		DurableID: bobID,
		Instant:   at(minute),
	}
}

func TestReconstructSessionsRoundTrip(t *testing.T) {
	set := ReconstructSessions([]domain.SessionEvent{
		connect(domain.ActionConnected, 0),
		connect(domain.ActionDisconnected, 45),
	})

	require.Len(t, set.Sessions[bobID], 1)
	session := set.Sessions[bobID][0]
	assert.Equal(t, at(0), session.Start)
	assert.Equal(t, at(45), session.End)
	assert.Equal(t, int64(45*60*1000), session.DurationMs)

	rec := set.Records[bobID]
	require.NotNil(t, rec)
	assert.Equal(t, int64(45*60*1000), rec.TotalMs)
	assert.Equal(t, int64(1), rec.Sessions)
	assert.Equal(t, at(0), rec.FirstSeen)
	assert.Equal(t, at(0), rec.LastLogin)
	assert.Equal(t, at(45), rec.LastSeen)
	assert.Equal(t, "Bob", rec.Name)
	assert.False(t, set.Estimated)
}

func TestReconstructSessionsUnmatchedDisconnect(t *testing.T) {
	set := ReconstructSessions([]domain.SessionEvent{
		connect(domain.ActionDisconnected, 10),
	})

	assert.Empty(t, set.Sessions[bobID])
	assert.Equal(t, int64(1), set.Disconnects[bobID])
	assert.Equal(t, int64(0), set.Connects[bobID])
	assert.Equal(t, int64(0), set.Records[bobID].TotalMs)
}

func TestReconstructSessionsReconnectOverwritesOpenStart(t *testing.T) {
	set := ReconstructSessions([]domain.SessionEvent{
		connect(domain.ActionConnected, 0),
		connect(domain.ActionConnected, 20),
		connect(domain.ActionDisconnected, 30),
	})

	require.Len(t, set.Sessions[bobID], 1)
	assert.Equal(t, at(20), set.Sessions[bobID][0].Start)
	assert.Equal(t, int64(2), set.Connects[bobID])
	assert.Equal(t, int64(1), set.Disconnects[bobID])
}

func TestReconstructSessionsOpenAtEndClosesAtLastEvent(t *testing.T) {
	other := domain.SessionEvent{
		Action:    domain.ActionConnected,
		Name:      "Alice",
		DurableID: aliceID,
		Instant:   at(50),
	}
	set := ReconstructSessions([]domain.SessionEvent{
		connect(domain.ActionConnected, 0),
		other, // last event in the feed, not wall-clock now
	})

	require.Len(t, set.Sessions[bobID], 1)
	assert.Equal(t, at(0), set.Sessions[bobID][0].Start)
	assert.Equal(t, at(50), set.Sessions[bobID][0].End)

	// Alice's own open session has zero duration at the last instant and is
	// discarded, but her connect still counts.
	assert.Empty(t, set.Sessions[aliceID])
	assert.Equal(t, int64(1), set.Connects[aliceID])
}

func TestReconstructSessionsNonPositiveDurationDiscarded(t *testing.T) {
	set := ReconstructSessions([]domain.SessionEvent{
		connect(domain.ActionConnected, 30),
		connect(domain.ActionDisconnected, 30),
	})

	assert.Empty(t, set.Sessions[bobID])
	assert.Equal(t, int64(1), set.Connects[bobID])
	assert.Equal(t, int64(1), set.Disconnects[bobID])
}

func TestEstimateSessionsClustering(t *testing.T) {
	base := at(0)
	activity := map[string][]time.Time{
		bobID: {base, base.Add(10 * time.Minute), base.Add(50 * time.Minute)},
	}
	names := map[string]string{bobID: "Bob"}

	set := EstimateSessions(activity, names, 30*time.Minute, 15*time.Minute)
	require.True(t, set.Estimated)

	sessions := set.Sessions[bobID]
	require.Len(t, sessions, 2)

	padding := (15 * time.Minute).Milliseconds()
	assert.Equal(t, base, sessions[0].Start)
	assert.Equal(t, base.Add(10*time.Minute), sessions[0].End)
	assert.Equal(t, (10*time.Minute).Milliseconds()+padding, sessions[0].DurationMs)

	assert.Equal(t, base.Add(50*time.Minute), sessions[1].Start)
	assert.Equal(t, base.Add(50*time.Minute), sessions[1].End)
	assert.Equal(t, padding, sessions[1].DurationMs)

	rec := set.Records[bobID]
	assert.Equal(t, (10*time.Minute).Milliseconds()+2*padding, rec.TotalMs)
	assert.Equal(t, int64(2), rec.Sessions)
	assert.Equal(t, "Bob", rec.Name)
}

func TestEstimateSessionsUnsortedInput(t *testing.T) {
	base := at(0)
	activity := map[string][]time.Time{
		bobID: {base.Add(10 * time.Minute), base},
	}

	set := EstimateSessions(activity, nil, 30*time.Minute, 15*time.Minute)
	require.Len(t, set.Sessions[bobID], 1)
	assert.Equal(t, base, set.Sessions[bobID][0].Start)
}

func TestEstimateSessionsGapBoundary(t *testing.T) {
	base := at(0)
	// Exactly the gap apart stays one session; anything beyond splits.
	activity := map[string][]time.Time{
		bobID: {base, base.Add(30 * time.Minute)},
	}
	set := EstimateSessions(activity, nil, 30*time.Minute, 15*time.Minute)
	assert.Len(t, set.Sessions[bobID], 1)

	activity[bobID] = []time.Time{base, base.Add(30*time.Minute + time.Second)}
	set = EstimateSessions(activity, nil, 30*time.Minute, 15*time.Minute)
	assert.Len(t, set.Sessions[bobID], 2)
}
