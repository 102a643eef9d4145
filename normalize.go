package nostr

import (
	"net/url"
	"slices"
	"strings"
)

// NormalizeURL turns a relay address into the canonical form used as the key
// for connections: "wss://" is assumed when there is no scheme (or "ws://" for
// localhost), http(s) become ws(s), the host is lowercased and a trailing slash
// is removed. It returns "" for anything that can't be parsed.
func NormalizeURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return ""
	}

	if fqn := strings.Split(u, ":")[0]; fqn == "localhost" || fqn == "127.0.0.1" {
		u = "ws://" + u
	} else if !hasRelayScheme(u) {
		if strings.Contains(u, "://") {
			return ""
		}
		u = "wss://" + u
	}

	p, err := url.Parse(u)
	if err != nil || p.Host == "" {
		return ""
	}

	switch p.Scheme {
	case "http":
		p.Scheme = "ws"
	case "https":
		p.Scheme = "wss"
	case "ws", "wss":
	default:
		return ""
	}

	p.Host = strings.ToLower(p.Host)
	p.Path = strings.TrimRight(p.Path, "/")
	p.RawPath = ""

	return p.String()
}

func hasRelayScheme(u string) bool {
	lower := strings.ToLower(u)
	for _, prefix := range []string{"wss://", "ws://", "https://", "http://"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// IsValidRelayURL checks if a URL is a valid relay URL (ws:// or wss://).
func IsValidRelayURL(u string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	if parsed.Scheme != "wss" && parsed.Scheme != "ws" {
		return false
	}
	return parsed.Host != ""
}

// AppendUnique adds items to an array only if they don't already exist in the array.
// Returns the modified array.
func AppendUnique[I comparable](arr []I, items ...I) []I {
	for _, item := range items {
		if slices.Contains(arr, item) {
			continue
		}
		arr = append(arr, item)
	}
	return arr
}
