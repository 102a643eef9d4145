package nostr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mailru/easyjson/jwriter"
	"github.com/tidwall/gjson"
)

var (
	UnknownLabel        = errors.New("unknown envelope label")
	InvalidJsonEnvelope = errors.New("invalid json envelope")
)

// ParseMessage reads the label of a relay message and decodes it into the matching envelope.
func ParseMessage(message string) (Envelope, error) {
	firstQuote := strings.IndexByte(message, '"')
	if firstQuote == -1 {
		return nil, InvalidJsonEnvelope
	}
	secondQuote := strings.IndexByte(message[firstQuote+1:], '"')
	if secondQuote == -1 {
		return nil, InvalidJsonEnvelope
	}
	label := message[firstQuote+1 : firstQuote+1+secondQuote]

	var v Envelope
	switch label {
	case "EVENT":
		v = &EventEnvelope{}
	case "REQ":
		v = &ReqEnvelope{}
	case "NOTICE":
		x := NoticeEnvelope("")
		v = &x
	case "EOSE":
		x := EOSEEnvelope("")
		v = &x
	case "CLOSED":
		v = &ClosedEnvelope{}
	case "CLOSE":
		x := CloseEnvelope("")
		v = &x
	default:
		return nil, UnknownLabel
	}

	if err := v.FromJSON(message); err != nil {
		return nil, err
	}

	return v, nil
}

// Envelope is the interface for all nostr message envelopes.
type Envelope interface {
	Label() string
	FromJSON(string) error
	MarshalJSON() ([]byte, error)
	String() string
}

var (
	_ Envelope = (*EventEnvelope)(nil)
	_ Envelope = (*ReqEnvelope)(nil)
	_ Envelope = (*NoticeEnvelope)(nil)
	_ Envelope = (*EOSEEnvelope)(nil)
	_ Envelope = (*CloseEnvelope)(nil)
	_ Envelope = (*ClosedEnvelope)(nil)
)

func envelopeArray(data string, label string, minLen int) ([]gjson.Result, error) {
	r := gjson.Parse(data)
	if !r.IsArray() {
		return nil, InvalidJsonEnvelope
	}
	arr := r.Array()
	if len(arr) < minLen {
		return nil, fmt.Errorf("failed to decode %s envelope: missing fields", label)
	}
	return arr, nil
}

// EventEnvelope represents an EVENT message.
//
// The event inside is decoded with ParseEventLenient, so fields with the wrong
// shape are zeroed instead of failing the whole message.
type EventEnvelope struct {
	SubscriptionID *string
	Event
}

func (EventEnvelope) Label() string { return "EVENT" }
func (v EventEnvelope) String() string {
	j, _ := v.MarshalJSON()
	return string(j)
}

func (v *EventEnvelope) FromJSON(data string) error {
	arr, err := envelopeArray(data, "EVENT", 2)
	if err != nil {
		return err
	}

	raw := arr[1]
	if len(arr) >= 3 {
		subid := arr[1].String()
		v.SubscriptionID = &subid
		raw = arr[2]
	}

	evt, err := ParseEventLenient(raw.Raw)
	if err != nil {
		return fmt.Errorf("failed to decode EVENT envelope: %w", err)
	}
	v.Event = evt
	return nil
}

func (v EventEnvelope) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{NoEscapeHTML: true}
	w.RawString(`["EVENT",`)
	if v.SubscriptionID != nil {
		w.String(*v.SubscriptionID)
		w.RawByte(',')
	}
	v.Event.MarshalEasyJSON(&w)
	w.RawByte(']')
	return w.BuildBytes()
}

// ReqEnvelope represents a REQ message.
type ReqEnvelope struct {
	SubscriptionID string
	Filters        []Filter
}

func (ReqEnvelope) Label() string { return "REQ" }
func (v ReqEnvelope) String() string {
	j, _ := v.MarshalJSON()
	return string(j)
}

func (v *ReqEnvelope) FromJSON(data string) error {
	arr, err := envelopeArray(data, "REQ", 3)
	if err != nil {
		return err
	}
	v.SubscriptionID = arr[1].String()

	v.Filters = make([]Filter, len(arr)-2)
	for i, filterj := range arr[2:] {
		if err := v.Filters[i].UnmarshalJSON([]byte(filterj.Raw)); err != nil {
			return fmt.Errorf("on filter: %w", err)
		}
	}

	return nil
}

func (v ReqEnvelope) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{NoEscapeHTML: true}
	w.RawString(`["REQ",`)
	w.String(v.SubscriptionID)
	for _, filter := range v.Filters {
		w.RawByte(',')
		filter.MarshalEasyJSON(&w)
	}
	w.RawByte(']')
	return w.BuildBytes()
}

// NoticeEnvelope represents a NOTICE message.
type NoticeEnvelope string

func (NoticeEnvelope) Label() string { return "NOTICE" }
func (v NoticeEnvelope) String() string {
	j, _ := v.MarshalJSON()
	return string(j)
}

func (v *NoticeEnvelope) FromJSON(data string) error {
	arr, err := envelopeArray(data, "NOTICE", 2)
	if err != nil {
		return err
	}
	*v = NoticeEnvelope(arr[1].String())
	return nil
}

func (v NoticeEnvelope) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{NoEscapeHTML: true}
	w.RawString(`["NOTICE",`)
	w.String(string(v))
	w.RawByte(']')
	return w.BuildBytes()
}

// EOSEEnvelope represents an EOSE (End of Stored Events) message.
type EOSEEnvelope string

func (EOSEEnvelope) Label() string { return "EOSE" }
func (v EOSEEnvelope) String() string {
	j, _ := v.MarshalJSON()
	return string(j)
}

func (v *EOSEEnvelope) FromJSON(data string) error {
	arr, err := envelopeArray(data, "EOSE", 2)
	if err != nil {
		return err
	}
	*v = EOSEEnvelope(arr[1].String())
	return nil
}

func (v EOSEEnvelope) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{NoEscapeHTML: true}
	w.RawString(`["EOSE",`)
	w.String(string(v))
	w.RawByte(']')
	return w.BuildBytes()
}

// CloseEnvelope represents a CLOSE message.
type CloseEnvelope string

func (CloseEnvelope) Label() string { return "CLOSE" }
func (v CloseEnvelope) String() string {
	j, _ := v.MarshalJSON()
	return string(j)
}

func (v *CloseEnvelope) FromJSON(data string) error {
	arr, err := envelopeArray(data, "CLOSE", 2)
	if err != nil {
		return err
	}
	*v = CloseEnvelope(arr[1].String())
	return nil
}

func (v CloseEnvelope) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{NoEscapeHTML: true}
	w.RawString(`["CLOSE",`)
	w.String(string(v))
	w.RawByte(']')
	return w.BuildBytes()
}

// ClosedEnvelope represents a CLOSED message.
type ClosedEnvelope struct {
	SubscriptionID string
	Reason         string
}

func (ClosedEnvelope) Label() string { return "CLOSED" }
func (v ClosedEnvelope) String() string {
	j, _ := v.MarshalJSON()
	return string(j)
}

func (v *ClosedEnvelope) FromJSON(data string) error {
	arr, err := envelopeArray(data, "CLOSED", 3)
	if err != nil {
		return err
	}
	*v = ClosedEnvelope{
		SubscriptionID: arr[1].String(),
		Reason:         arr[2].String(),
	}
	return nil
}

func (v ClosedEnvelope) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{NoEscapeHTML: true}
	w.RawString(`["CLOSED",`)
	w.String(v.SubscriptionID)
	w.RawByte(',')
	w.String(v.Reason)
	w.RawByte(']')
	return w.BuildBytes()
}
