package mediaservers

import nostr "github.com/MaviLabArt/Pidgeon-sub002"

// ExtractServers returns the normalized origins of the "server" tags of evt, in tag
// order and without repetitions. Tags that are too short, that aren't "server" tags
// or whose value doesn't normalize are skipped. The result is never nil.
func ExtractServers(evt *nostr.Event) []string {
	servers := make([]string, 0)
	if evt == nil {
		return servers
	}

	for tag := range evt.Tags.FindAll("server") {
		origin := NormalizeOrigin(tag.Value())
		if origin == "" {
			continue
		}

		servers = nostr.AppendUnique(servers, origin)
	}

	return servers
}
