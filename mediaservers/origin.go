package mediaservers

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

var (
	invisibleRunes = runes.Remove(runes.Predicate(func(r rune) bool {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
			return true
		}
		return false
	}))

	explicitScheme = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)
)

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// NormalizeOrigin turns a server address found in an event into a canonical
// "scheme://host[:port]" origin, or returns "" when it can't be trusted as one.
//
// Zero-width characters and the byte-order mark are removed before anything else,
// so they can't be used to make two different hosts look the same. Addresses
// without a scheme are assumed to be https. Only http and https are accepted,
// credentials are rejected, host and scheme are lowercased, internationalized
// hosts are mapped to their punycode form, the default port is dropped and path,
// query and fragment are discarded.
func NormalizeOrigin(raw string) string {
	cleaned, _, err := transform.String(invisibleRunes, raw)
	if err != nil {
		return ""
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return ""
	}

	lower := strings.ToLower(cleaned)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if explicitScheme.MatchString(cleaned) {
			return ""
		}
		cleaned = "https://" + cleaned
	}

	u, err := url.Parse(cleaned)
	if err != nil {
		return ""
	}

	if u.User != nil {
		return ""
	}

	scheme := strings.ToLower(u.Scheme)
	defaultPort, ok := defaultPorts[scheme]
	if !ok {
		return ""
	}

	// u.Hostname() is already percent-decoded, so a '%' left in it (escaped
	// characters or an IPv6 zone) can't be part of a clean origin
	hostname := strings.ToLower(u.Hostname())
	if hostname == "" || strings.Contains(hostname, "%") {
		return ""
	}
	if strings.Contains(hostname, ":") {
		hostname = "[" + hostname + "]"
	} else if hostname, err = idna.Lookup.ToASCII(hostname); err != nil || hostname == "" {
		return ""
	}

	origin := scheme + "://" + hostname
	if port := u.Port(); port != "" && port != defaultPort {
		origin += ":" + port
	}

	return origin
}
