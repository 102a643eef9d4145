package mediaservers

import nostr "github.com/MaviLabArt/Pidgeon-sub002"

// Family is a protocol family of media servers. Each family is announced with
// its own replaceable event kind and is resolved independently of the other.
type Family int

const (
	// Blossom servers, announced with kind 10063 (BUD-03).
	Blossom Family = iota
	// NIP96 file storage servers, announced with kind 10096.
	NIP96
)

// Families lists every family in the order they appear in a Directory.
var Families = []Family{Blossom, NIP96}

func (f Family) Kind() nostr.Kind {
	switch f {
	case Blossom:
		return nostr.KindUserServerList
	case NIP96:
		return nostr.KindFileStorageServerList
	}
	return 0
}

func (f Family) String() string {
	switch f {
	case Blossom:
		return "blossom"
	case NIP96:
		return "nip96"
	}
	return "unknown"
}

// FamilyFromKind maps an event kind back to its family.
func FamilyFromKind(kind nostr.Kind) (Family, bool) {
	switch kind {
	case nostr.KindUserServerList:
		return Blossom, true
	case nostr.KindFileStorageServerList:
		return NIP96, true
	}
	return 0, false
}
