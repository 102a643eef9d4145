package sdk

import (
	nostr "github.com/MaviLabArt/Pidgeon-sub002"
	"github.com/MaviLabArt/Pidgeon-sub002/mediaservers"
)

// InputToPubKey turns any npub/nprofile/hex input into a public key, together with
// the relay hints an nprofile carries.
func InputToPubKey(input string) (nostr.PubKey, []string, error) {
	return mediaservers.ParseIdentity(input)
}

// InputToProfile is like InputToPubKey but returns a ProfilePointer, or nil if the
// input can't be decoded.
func InputToProfile(input string) *nostr.ProfilePointer {
	pk, relays, err := mediaservers.ParseIdentity(input)
	if err != nil {
		return nil
	}
	return &nostr.ProfilePointer{PublicKey: pk, Relays: relays}
}
