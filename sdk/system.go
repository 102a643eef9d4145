package sdk

import (
	"context"
	"time"

	nostr "github.com/MaviLabArt/Pidgeon-sub002"
	"github.com/MaviLabArt/Pidgeon-sub002/mediaservers"
	"github.com/MaviLabArt/Pidgeon-sub002/sdk/cache"
	cache_memory "github.com/MaviLabArt/Pidgeon-sub002/sdk/cache/memory"
	"github.com/rs/zerolog"
)

// DefaultCacheTTL is how long a resolved Directory is reused by FetchMediaServers.
const DefaultCacheTTL = 5 * time.Minute

// System bundles a relay Pool, a media server Resolver running on it and a cache of
// the directories it resolved.
//
// Usually an application should have a single global instance of this and use
// its internal Pool for all its operations.
type System struct {
	Pool           *nostr.Pool
	Resolver       *mediaservers.Resolver
	DirectoryCache cache.Cache32[mediaservers.Directory]
	DefaultRelays  []string

	cacheTTL    time.Duration
	noCache     bool
	penaltyBox  bool
	assumeValid bool
	log         zerolog.Logger
}

// SystemModifier is a function that modifies a System instance.
// It's used with NewSystem to configure the system during creation.
type SystemModifier func(sys *System)

// WithDefaultRelays sets the relays queried for every pubkey on top of the ones
// given to FetchMediaServers.
func WithDefaultRelays(relays ...string) SystemModifier {
	return func(sys *System) {
		sys.DefaultRelays = relays
	}
}

func WithCacheTTL(d time.Duration) SystemModifier {
	return func(sys *System) {
		sys.cacheTTL = d
	}
}

// WithoutCache makes every FetchMediaServers call go to the relays.
func WithoutCache() SystemModifier {
	return func(sys *System) {
		sys.noCache = true
	}
}

func WithPenaltyBox(enabled bool) SystemModifier {
	return func(sys *System) {
		sys.penaltyBox = enabled
	}
}

// WithAssumeValid skips signature checks on events coming from relays.
func WithAssumeValid() SystemModifier {
	return func(sys *System) {
		sys.assumeValid = true
	}
}

func WithLogger(logger zerolog.Logger) SystemModifier {
	return func(sys *System) {
		sys.log = logger
	}
}

// NewSystem creates a new System with default configuration,
// which can be customized using the provided modifiers.
func NewSystem(mods ...SystemModifier) *System {
	sys := &System{
		DefaultRelays: mediaservers.DefaultRelays,
		cacheTTL:      DefaultCacheTTL,
		penaltyBox:    true,
		log:           nostr.Logger,
	}

	for _, mod := range mods {
		mod(sys)
	}

	sys.Pool = nostr.NewPool(nostr.PoolOptions{
		PenaltyBox:          sys.penaltyBox,
		EventMiddleware:     sys.logEvent,
		DuplicateMiddleware: sys.logDuplicate,
		RelayOptions:        nostr.RelayOptions{AssumeValid: sys.assumeValid},
	})

	sys.Resolver = mediaservers.NewResolver(sys.Pool,
		mediaservers.WithDefaultRelays(sys.DefaultRelays),
		mediaservers.WithLogger(sys.log),
	)

	if !sys.noCache && sys.cacheTTL > 0 {
		sys.DirectoryCache = cache_memory.New[mediaservers.Directory](8000)
	}

	return sys
}

func (sys *System) logEvent(ie nostr.RelayEvent) {
	sys.log.Debug().Str("relay", ie.Relay.URL).Str("id", ie.Event.ID.Hex()).Stringer("kind", ie.Event.Kind).Msg("received")
}

func (sys *System) logDuplicate(relay string, id nostr.ID) {
	sys.log.Debug().Str("relay", relay).Str("id", id.Hex()).Msg("duplicate")
}

// FetchMediaServers resolves the Blossom and NIP-96 servers announced by pk, asking the
// given relays as well as the system defaults.
//
// When no extra relays are given the result is cached for the configured TTL. Errors
// are never cached. Every call gets its own copy, so callers may modify it freely.
func (sys *System) FetchMediaServers(ctx context.Context, pk nostr.PubKey, relays ...string) (mediaservers.Directory, error) {
	cacheable := sys.DirectoryCache != nil && len(relays) == 0
	if cacheable {
		if dir, ok := sys.DirectoryCache.Get(pk); ok {
			return dir.Clone(), nil
		}
	}

	dir, err := sys.Resolver.Resolve(ctx, mediaservers.Request{PubKey: pk.Hex(), Relays: relays})
	if err != nil {
		return dir, err
	}

	if cacheable {
		sys.DirectoryCache.SetWithTTL(pk, dir.Clone(), sys.cacheTTL)
	}
	return dir, nil
}

// Close releases resources held by the System.
func (sys *System) Close() {
	if sys.Pool != nil {
		sys.Pool.Close("sdk.System closed")
	}
	if sys.DirectoryCache != nil {
		sys.DirectoryCache.Close()
	}
}
