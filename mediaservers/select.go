package mediaservers

import nostr "github.com/MaviLabArt/Pidgeon-sub002"

// SelectLatest picks the event with the greatest created_at. When more than one
// event has that timestamp the one that comes first in events wins.
// It returns a copy, or nil when events is empty.
func SelectLatest(events []nostr.Event) *nostr.Event {
	if len(events) == 0 {
		return nil
	}

	latest := 0
	for i := 1; i < len(events); i++ {
		if events[i].CreatedAt > events[latest].CreatedAt {
			latest = i
		}
	}

	winner := events[latest]
	winner.Tags = winner.Tags.CloneDeep()
	return &winner
}
