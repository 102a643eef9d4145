package mediaservers

import (
	"testing"

	nostr "github.com/MaviLabArt/Pidgeon-sub002"
	"github.com/stretchr/testify/require"
)

func eventsAt(timestamps ...nostr.Timestamp) []nostr.Event {
	events := make([]nostr.Event, len(timestamps))
	for i, ts := range timestamps {
		events[i] = nostr.Event{
			CreatedAt: ts,
			Kind:      nostr.KindUserServerList,
			Content:   string(rune('a' + i)),
			Tags:      nostr.Tags{{"server", "https://s.example"}},
		}
	}
	return events
}

func TestSelectLatest(t *testing.T) {
	for _, tc := range []struct {
		name     string
		events   []nostr.Event
		expected string // content of the winner, "" for nil
	}{
		{"newest in the middle", eventsAt(5, 10, 3), "b"},
		{"empty", nil, ""},
		{"single", eventsAt(0), "a"},
		{"zero timestamps lose", eventsAt(0, 1, 0), "b"},
		{"all zero keeps the first", eventsAt(0, 0, 0), "a"},
		{"tie keeps the first", eventsAt(7, 9, 9, 2), "b"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			winner := SelectLatest(tc.events)
			if tc.expected == "" {
				require.Nil(t, winner)
				return
			}
			require.NotNil(t, winner)
			require.Equal(t, tc.expected, winner.Content)
		})
	}
}

func TestSelectLatestReturnsCopy(t *testing.T) {
	events := eventsAt(1, 2)
	winner := SelectLatest(events)
	require.NotNil(t, winner)

	winner.Content = "changed"
	winner.Tags[0][1] = "https://changed.example"

	require.Equal(t, "b", events[1].Content)
	require.Equal(t, "https://s.example", events[1].Tags[0][1])
}
