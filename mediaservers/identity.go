package mediaservers

import (
	"errors"
	"fmt"
	"strings"

	nostr "github.com/MaviLabArt/Pidgeon-sub002"
	"github.com/MaviLabArt/Pidgeon-sub002/nip19"
)

var ErrInvalidPubKey = errors.New("invalid public key")

// ParseIdentity reads a public key given as 64-char hex, "npub" or "nprofile",
// optionally prefixed with "nostr:". For an nprofile the relay hints it carries
// are returned too.
func ParseIdentity(input string) (nostr.PubKey, []string, error) {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "nostr:")

	if len(input) == 64 {
		pk, err := nostr.PubKeyFromHex(strings.ToLower(input))
		if err != nil {
			return nostr.ZeroPK, nil, fmt.Errorf("%w: %w", ErrInvalidPubKey, err)
		}
		return pk, nil, nil
	}

	pp, err := nip19.ToProfilePointer(input)
	if err != nil {
		return nostr.ZeroPK, nil, fmt.Errorf("%w: %w", ErrInvalidPubKey, err)
	}
	if !nostr.IsValidPublicKey(pp.PublicKey) {
		return nostr.ZeroPK, nil, fmt.Errorf("%w: '%s' is not a point on the curve", ErrInvalidPubKey, input)
	}

	return pp.PublicKey, pp.Relays, nil
}
