package nostr

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Timestamp is a unix timestamp in seconds, as used in "created_at".
type Timestamp int64

func Now() Timestamp { return Timestamp(time.Now().Unix()) }

func (t Timestamp) Time() time.Time { return time.Unix(int64(t), 0) }
func (t Timestamp) String() string  { return strconv.FormatInt(int64(t), 10) }

// RelayEvent represents an event received from a specific relay.
type RelayEvent struct {
	Event
	Relay *Relay
}

var (
	ZeroID = ID{}
	ZeroPK = PubKey{}
)

// PubKey is the 32-byte x-only public key that identifies an author.
type PubKey [32]byte

func (pk PubKey) String() string { return "pk::" + pk.Hex() }
func (pk PubKey) Hex() string    { return hex.EncodeToString(pk[:]) }

func (pk PubKey) MarshalJSON() ([]byte, error) {
	res := make([]byte, 66)
	hex.Encode(res[1:], pk[:])
	res[0] = '"'
	res[65] = '"'
	return res, nil
}

func (pk *PubKey) UnmarshalJSON(buf []byte) error {
	if len(buf) != 66 {
		return fmt.Errorf("must be a hex string of 64 characters")
	}
	if _, err := hex.Decode(pk[:], buf[1:65]); err != nil {
		return fmt.Errorf("invalid pubkey hex: %w", err)
	}
	return nil
}

// PubKeyFromHex parses a 64-char hex string and checks that it is a point on the curve.
func PubKeyFromHex(pkh string) (PubKey, error) {
	pk, err := PubKeyFromHexCheap(pkh)
	if err != nil {
		return pk, err
	}

	if !IsValidPublicKey(pk) {
		return pk, fmt.Errorf("'%s' is not a valid pubkey", pkh)
	}

	return pk, nil
}

// PubKeyFromHexCheap is like PubKeyFromHex but skips the curve check.
func PubKeyFromHexCheap(pkh string) (PubKey, error) {
	pk := PubKey{}
	if len(pkh) != 64 {
		return pk, fmt.Errorf("pubkey should be 64-char hex, got '%s'", pkh)
	}
	if _, err := hex.Decode(pk[:], []byte(pkh)); err != nil {
		return pk, fmt.Errorf("'%s' is not valid hex: %w", pkh, err)
	}

	return pk, nil
}

func MustPubKeyFromHex(pkh string) PubKey {
	pk, err := PubKeyFromHexCheap(pkh)
	if err != nil {
		panic(err)
	}
	return pk
}

// ID is the sha256 hash of a serialized event.
type ID [32]byte

func (id ID) String() string { return "id::" + id.Hex() }
func (id ID) Hex() string    { return hex.EncodeToString(id[:]) }

func (id ID) MarshalJSON() ([]byte, error) {
	res := make([]byte, 66)
	hex.Encode(res[1:], id[:])
	res[0] = '"'
	res[65] = '"'
	return res, nil
}

func (id *ID) UnmarshalJSON(buf []byte) error {
	if len(buf) != 66 {
		return fmt.Errorf("must be a hex string of 64 characters")
	}
	if _, err := hex.Decode(id[:], buf[1:65]); err != nil {
		return fmt.Errorf("invalid id hex: %w", err)
	}
	return nil
}

func IDFromHex(idh string) (ID, error) {
	id := ID{}

	if len(idh) != 64 {
		return id, fmt.Errorf("id should be 64-char hex, got '%s'", idh)
	}
	if _, err := hex.Decode(id[:], []byte(idh)); err != nil {
		return id, fmt.Errorf("'%s' is not valid hex: %w", idh, err)
	}

	return id, nil
}

func MustIDFromHex(idh string) ID {
	id, err := IDFromHex(idh)
	if err != nil {
		panic(err)
	}
	return id
}
