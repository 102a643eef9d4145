package nostr

import (
	"crypto/sha256"
)

// Event represents a Nostr event.
//
// Events arriving from relays are untrusted: see ParseEventLenient for how
// malformed fields are coerced when decoding them.
type Event struct {
	ID        ID
	PubKey    PubKey
	CreatedAt Timestamp
	Kind      Kind
	Tags      Tags
	Content   string
	Sig       [64]byte
}

// GetID serializes the event and returns its computed ID.
func (evt Event) GetID() ID {
	return sha256.Sum256(evt.Serialize())
}

// CheckID checks if the computed ID matches the ID field.
func (evt Event) CheckID() bool {
	return evt.GetID() == evt.ID
}
