package cache

import "time"

// Cache32 stores values under 32-byte keys, like public keys or event ids.
// Entries set with a TTL silently disappear once it expires.
type Cache32[V any] interface {
	Get(k [32]byte) (v V, ok bool)
	Delete(k [32]byte)
	SetWithTTL(k [32]byte, v V, d time.Duration) bool
	Close()
}
