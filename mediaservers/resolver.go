package mediaservers

import (
	"context"
	"fmt"
	"strings"

	nostr "github.com/MaviLabArt/Pidgeon-sub002"
	"github.com/rs/zerolog"
)

// fetchLimit bounds how many list events a single resolution asks relays for.
const fetchLimit = 32

// Fetcher performs one query against a set of relays and returns everything
// that came back. A nil slice means no events. *nostr.Pool implements it.
type Fetcher interface {
	FetchEventsOnce(ctx context.Context, relays []string, filter nostr.Filter) ([]nostr.Event, error)
}

var _ Fetcher = (*nostr.Pool)(nil)

// Request identifies whose servers to resolve and which relays to ask, on top of the
// resolver's default relays.
type Request struct {
	PubKey string
	Relays []string
}

// Resolver finds the media servers announced by a public key. It holds no mutable
// state and can be used concurrently.
type Resolver struct {
	fetcher       Fetcher
	defaultRelays []string
	log           zerolog.Logger
}

type Option func(*Resolver)

// WithDefaultRelays replaces DefaultRelays for this resolver.
func WithDefaultRelays(relays []string) Option {
	return func(r *Resolver) {
		r.defaultRelays = append(make([]string, 0, len(relays)), relays...)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) {
		r.log = logger
	}
}

func NewResolver(fetcher Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher: fetcher,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve fetches the latest Blossom and NIP-96 server lists of req.PubKey.
//
// An empty pubkey gives an empty Directory without touching the network, an
// undecodable one gives an error wrapping ErrInvalidPubKey. Otherwise exactly one
// fetch is made and its error, if any, is returned wrapped.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Directory, error) {
	input := strings.TrimSpace(req.PubKey)
	if input == "" {
		return EmptyDirectory(), nil
	}

	pk, hints, err := ParseIdentity(input)
	if err != nil {
		return EmptyDirectory(), err
	}

	relays := r.relaysFor(req.Relays, hints)
	filter := nostr.ProfilePointer{PublicKey: pk}.AsFilter(Blossom.Kind(), NIP96.Kind())
	filter.Limit = fetchLimit

	r.log.Debug().Str("pubkey", pk.Hex()).Strs("relays", relays).Msg("fetching media server lists")

	events, err := r.fetcher.FetchEventsOnce(ctx, relays, filter)
	if err != nil {
		return EmptyDirectory(), fmt.Errorf("fetching media server lists of %s: %w", pk.Hex(), err)
	}

	byFamily := make(map[Family][]nostr.Event, len(Families))
	for _, evt := range events {
		if family, ok := FamilyFromKind(evt.Kind); ok {
			byFamily[family] = append(byFamily[family], evt)
		}
	}

	dir := EmptyDirectory()
	for _, family := range Families {
		latest := SelectLatest(byFamily[family])
		dir.set(family, ExtractServers(latest), latest)

		r.log.Debug().
			Str("pubkey", pk.Hex()).
			Stringer("family", family).
			Int("candidates", len(byFamily[family])).
			Int("servers", len(dir.Servers(family))).
			Msg("selected server list")
	}

	return dir, nil
}

// relaysFor merges the caller relays, the nprofile hints and the default relays,
// normalized and without repetitions, keeping the first occurrence.
func (r *Resolver) relaysFor(requested []string, hints []string) []string {
	defaults := r.defaultRelays
	if defaults == nil {
		defaults = DefaultRelays
	}

	relays := make([]string, 0, len(requested)+len(hints)+len(defaults))
	for _, group := range [][]string{requested, hints, defaults} {
		for _, url := range group {
			if nm := nostr.NormalizeURL(strings.TrimSpace(url)); nm != "" {
				relays = nostr.AppendUnique(relays, nm)
			}
		}
	}
	return relays
}
