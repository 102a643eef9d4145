package mediaservers

import (
	"slices"

	nostr "github.com/MaviLabArt/Pidgeon-sub002"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Directory is the result of a resolution: for each family the servers announced
// in the latest event of that family, and the event itself.
type Directory struct {
	Blossom      []string     `json:"blossom"`
	NIP96        []string     `json:"nip96"`
	BlossomEvent *nostr.Event `json:"blossomEvent"`
	NIP96Event   *nostr.Event `json:"nip96Event"`
}

// EmptyDirectory returns a Directory with both lists empty (not nil) and no events.
func EmptyDirectory() Directory {
	return Directory{
		Blossom: make([]string, 0),
		NIP96:   make([]string, 0),
	}
}

func (d Directory) Servers(f Family) []string {
	switch f {
	case Blossom:
		return d.Blossom
	case NIP96:
		return d.NIP96
	}
	return nil
}

func (d Directory) Event(f Family) *nostr.Event {
	switch f {
	case Blossom:
		return d.BlossomEvent
	case NIP96:
		return d.NIP96Event
	}
	return nil
}

// IsEmpty tells if no family has any server.
func (d Directory) IsEmpty() bool {
	return len(d.Blossom) == 0 && len(d.NIP96) == 0
}

// Clone returns a copy of d that shares no slices or events with it.
func (d Directory) Clone() Directory {
	return Directory{
		Blossom:      slices.Clone(d.Blossom),
		NIP96:        slices.Clone(d.NIP96),
		BlossomEvent: cloneEvent(d.BlossomEvent),
		NIP96Event:   cloneEvent(d.NIP96Event),
	}
}

func cloneEvent(evt *nostr.Event) *nostr.Event {
	if evt == nil {
		return nil
	}
	c := *evt
	c.Tags = evt.Tags.CloneDeep()
	return &c
}

func (d *Directory) set(f Family, servers []string, evt *nostr.Event) {
	switch f {
	case Blossom:
		d.Blossom, d.BlossomEvent = servers, evt
	case NIP96:
		d.NIP96, d.NIP96Event = servers, evt
	}
}

// MarshalJSON always renders both lists as arrays, even for a zero Directory.
func (d Directory) MarshalJSON() ([]byte, error) {
	type plain Directory
	if d.Blossom == nil {
		d.Blossom = make([]string, 0)
	}
	if d.NIP96 == nil {
		d.NIP96 = make([]string, 0)
	}
	return json.Marshal(plain(d))
}
