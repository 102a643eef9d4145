package mediaservers

import (
	"context"
	"sync"

	nostr "github.com/MaviLabArt/Pidgeon-sub002"
)

// DefaultRelays are always queried in addition to the relays of a Request, unless a
// resolver was created WithDefaultRelays.
var DefaultRelays = []string{
	"wss://relay.damus.io",
	"wss://nos.lol",
	"wss://relay.primal.net",
	"wss://purplepag.es",
}

var defaultResolver = sync.OnceValue(func() *Resolver {
	pool := nostr.NewPool(nostr.PoolOptions{PenaltyBox: true})
	return NewResolver(pool, WithLogger(nostr.Logger))
})

// Default returns the process-wide resolver, backed by a shared relay pool that is
// created on first use.
func Default() *Resolver { return defaultResolver() }

// Resolve is Default().Resolve.
func Resolve(ctx context.Context, req Request) (Directory, error) {
	return Default().Resolve(ctx, req)
}
