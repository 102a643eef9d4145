package nostr

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// VerifySignature checks the schnorr signature against the pubkey.
// It recomputes the hash from the event body instead of trusting the ID field,
// and also requires the ID field to match it.
func (evt Event) VerifySignature() bool {
	pubkey, err := schnorr.ParsePubKey(evt.PubKey[:])
	if err != nil {
		return false
	}

	sig, err := schnorr.ParseSignature(evt.Sig[:])
	if err != nil {
		return false
	}

	hash := sha256.Sum256(evt.Serialize())
	if ID(hash) != evt.ID {
		return false
	}

	return sig.Verify(hash[:], pubkey)
}

// Sign sets ID, PubKey and Sig using the given secret key.
//
// Nothing in the resolution path signs events, this exists so tests and tools
// can produce valid fixtures.
func (evt *Event) Sign(secretKey [32]byte) error {
	if evt.Tags == nil {
		evt.Tags = make(Tags, 0)
	}

	sk, pk := btcec.PrivKeyFromBytes(secretKey[:])
	evt.PubKey = PubKey(pk.SerializeCompressed()[1:])

	h := sha256.Sum256(evt.Serialize())
	sig, err := schnorr.Sign(sk, h[:], schnorr.FastSign())
	if err != nil {
		return err
	}

	evt.ID = h
	evt.Sig = [64]byte(sig.Serialize())

	return nil
}
