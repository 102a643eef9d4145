package nostr

import (
	"encoding/hex"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var ErrNotAnEventObject = errors.New("event is not a json object")

// ParseEventLenient decodes an event coming from an untrusted source.
//
// Unlike Event.UnmarshalJSON it never fails on individual fields:
//   - "id", "pubkey" and "sig" that aren't valid hex of the right size are left zeroed;
//   - "created_at" is read from a number or a numeric string, anything else becomes 0;
//   - "kind" outside of 0..65535 becomes 0;
//   - "tags" entries that aren't arrays are dropped and each tag is cut at its first
//     non-string item, so ["server", 5] ends up as ["server"];
//   - "content" that isn't a string becomes "".
//
// The only error is when the input is not a JSON object at all.
func ParseEventLenient(data string) (Event, error) {
	r := gjson.Parse(data)
	if !r.IsObject() {
		return Event{}, ErrNotAnEventObject
	}

	evt := Event{}
	r.ForEach(func(key, value gjson.Result) bool {
		switch key.Str {
		case "id":
			decodeFixedHex(evt.ID[:], value)
		case "pubkey":
			decodeFixedHex(evt.PubKey[:], value)
		case "sig":
			decodeFixedHex(evt.Sig[:], value)
		case "created_at":
			evt.CreatedAt = lenientTimestamp(value)
		case "kind":
			if value.Type == gjson.Number {
				if k := value.Float(); k >= 0 && k <= math.MaxUint16 && k == math.Trunc(k) {
					evt.Kind = Kind(k)
				}
			}
		case "tags":
			evt.Tags = lenientTags(value)
		case "content":
			if value.Type == gjson.String {
				evt.Content = value.Str
			}
		}
		return true
	})

	return evt, nil
}

func decodeFixedHex(dst []byte, value gjson.Result) {
	if value.Type != gjson.String || len(value.Str) != len(dst)*2 {
		return
	}
	if _, err := hex.Decode(dst, []byte(value.Str)); err != nil {
		clear(dst)
	}
}

func lenientTimestamp(value gjson.Result) Timestamp {
	var f float64
	switch value.Type {
	case gjson.Number:
		f = value.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value.Str), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return Timestamp(f)
}

func lenientTags(value gjson.Result) Tags {
	if !value.IsArray() {
		return nil
	}

	raw := value.Array()
	tags := make(Tags, 0, len(raw))
	for _, rawTag := range raw {
		if !rawTag.IsArray() {
			continue
		}

		items := rawTag.Array()
		tag := make(Tag, 0, len(items))
		for _, item := range items {
			if item.Type != gjson.String {
				break
			}
			tag = append(tag, item.Str)
		}
		tags = append(tags, tag)
	}

	return tags
}
