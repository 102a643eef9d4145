package nip19

import (
	"fmt"

	nostr "github.com/MaviLabArt/Pidgeon-sub002"
)

// ToProfilePointer turns an "npub" or "nprofile" code into a nostr.ProfilePointer.
func ToProfilePointer(code string) (nostr.ProfilePointer, error) {
	prefix, data, err := Decode(code)
	if err != nil {
		return nostr.ProfilePointer{}, err
	}

	switch prefix {
	case "npub":
		return nostr.ProfilePointer{PublicKey: data.(nostr.PubKey)}, nil
	case "nprofile":
		return data.(nostr.ProfilePointer), nil
	default:
		return nostr.ProfilePointer{}, fmt.Errorf("unexpected prefix '%s' to '%s'", prefix, code)
	}
}

// EncodeProfilePointer is the inverse of ToProfilePointer: it gives an "npub" when
// there are no relays and an "nprofile" otherwise.
func EncodeProfilePointer(pointer nostr.ProfilePointer) string {
	if len(pointer.Relays) == 0 {
		return EncodeNpub(pointer.PublicKey)
	}
	return EncodeNprofile(pointer.PublicKey, pointer.Relays)
}
