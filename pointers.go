package nostr

// ProfilePointer represents a pointer to a Nostr profile, as carried by an nprofile code:
// the author's public key plus relays where their events are likely to be found.
type ProfilePointer struct {
	PublicKey PubKey
	Relays    []string
}

// AsFilter returns a filter for events of the given kinds authored by this profile.
func (ep ProfilePointer) AsFilter(kinds ...Kind) Filter {
	return Filter{Authors: []PubKey{ep.PublicKey}, Kinds: kinds}
}
