package collector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvolk/zedstats/internal/domain"
)

func TestParseConnectLine(t *testing.T) {
	event, ok := ParseConnectLine("Player Connected Bob NetID(76561198000000001abc) (5/6/2024 14:30)")
	require.True(t, ok)
	assert.Equal(t, domain.ActionConnected, event.Action)
	assert.Equal(t, "Bob", event.Name)
	assert.Equal(t, "76561198000000001", event.DurableID)
	assert.Equal(t, ts(5, 6, 2024, 14, 30), event.Instant)

	event, ok = ParseConnectLine("Player Disconnected Bob The Builder NetID(76561198000000001) (05/06/2024 16:05)")
	require.True(t, ok)
	assert.Equal(t, domain.ActionDisconnected, event.Action)
	assert.Equal(t, "Bob The Builder", event.Name)

	_, ok = ParseConnectLine("Player Rebooted Bob NetID(76561198000000001) (5/6/2024 14:30)")
	assert.False(t, ok)
}

func TestParseConnectLog(t *testing.T) {
	input := strings.Join([]string{
		"Player Connected Bob NetID(76561198000000001) (5/6/2024 14:30)",
		"not a connect line",
		"Player Disconnected Bob NetID(76561198000000001) (5/6/2024 15:30)",
	}, "\n")

	events, skipped, err := ParseConnectLog(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, 1, skipped)
	// File order is preserved.
	assert.Equal(t, domain.ActionConnected, events[0].Action)
	assert.Equal(t, domain.ActionDisconnected, events[1].Action)
}
