package cache_memory

import (
	"time"

	"github.com/MaviLabArt/Pidgeon-sub002/sdk/cache"
	"github.com/dgraph-io/ristretto/v2"
)

var _ cache.Cache32[int] = (*RistrettoCache[int])(nil)

type RistrettoCache[V any] struct {
	Cache *ristretto.Cache[string, V]
}

// New creates a cache holding at most max entries.
func New[V any](max int64) *RistrettoCache[V] {
	cache, _ := ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters: max * 10,
		MaxCost:     max,
		BufferItems: 64,
	})
	return &RistrettoCache[V]{Cache: cache}
}

func (s *RistrettoCache[V]) Get(k [32]byte) (v V, ok bool) { return s.Cache.Get(string(k[:])) }
func (s *RistrettoCache[V]) Delete(k [32]byte)              { s.Cache.Del(string(k[:])) }

// SetWithTTL stores v until d elapses. Writes are buffered, so a Get right after
// may still miss unless Wait is called in between.
func (s *RistrettoCache[V]) SetWithTTL(k [32]byte, v V, d time.Duration) bool {
	return s.Cache.SetWithTTL(string(k[:]), v, 1, d)
}

// Wait blocks until all buffered writes have been applied.
func (s *RistrettoCache[V]) Wait() { s.Cache.Wait() }

func (s *RistrettoCache[V]) Close() { s.Cache.Close() }
