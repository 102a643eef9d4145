package nip19

import (
	"bytes"
	"fmt"

	nostr "github.com/MaviLabArt/Pidgeon-sub002"
	"github.com/btcsuite/btcd/btcutil/bech32"
)

// Decode decodes an "npub" into a nostr.PubKey or an "nprofile" into a nostr.ProfilePointer.
// Any other prefix is an error.
func Decode(bech32string string) (prefix string, value any, err error) {
	prefix, bits5, err := bech32.DecodeNoLimit(bech32string)
	if err != nil {
		return "", nil, err
	}

	data, err := bech32.ConvertBits(bits5, 5, 8, false)
	if err != nil {
		return prefix, nil, fmt.Errorf("failed to translate data into 8 bits: %s", err.Error())
	}

	switch prefix {
	case "npub":
		if len(data) != 32 {
			return prefix, nil, fmt.Errorf("npub should be 32 bytes (%d)", len(data))
		}
		return prefix, nostr.PubKey(data[0:32]), nil
	case "nprofile":
		var result nostr.ProfilePointer
		curr := 0
		for {
			t, v := readTLVEntry(data[curr:])
			if v == nil {
				// end here
				if result.PublicKey == nostr.ZeroPK {
					return prefix, result, fmt.Errorf("no pubkey found for nprofile")
				}

				return prefix, result, nil
			}

			switch t {
			case TLVDefault:
				if len(v) != 32 {
					return prefix, nil, fmt.Errorf("pubkey should be 32 bytes (%d)", len(v))
				}
				result.PublicKey = nostr.PubKey(v)
			case TLVRelay:
				result.Relays = append(result.Relays, string(v))
			default:
				// ignore
			}

			curr = curr + 2 + len(v)
		}
	}

	return prefix, data, fmt.Errorf("unknown tag %s", prefix)
}

func EncodeNpub(pk nostr.PubKey) string {
	bits5, _ := bech32.ConvertBits(pk[:], 8, 5, true)
	npub, _ := bech32.Encode("npub", bits5)
	return npub
}

func EncodeNprofile(pk nostr.PubKey, relays []string) string {
	buf := &bytes.Buffer{}
	writeTLVEntry(buf, TLVDefault, pk[:])

	for _, url := range relays {
		writeTLVEntry(buf, TLVRelay, []byte(url))
	}

	bits5, _ := bech32.ConvertBits(buf.Bytes(), 8, 5, true)

	nprofile, _ := bech32.Encode("nprofile", bits5)
	return nprofile
}
