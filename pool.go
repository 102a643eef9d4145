package nostr

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// ErrAllRelaysFailed is returned by FetchEventsOnce when no relay could be queried at all.
var ErrAllRelaysFailed = errors.New("all relays failed")

// DefaultMaxWaitForEOSE is how long FetchEventsOnce waits for a relay that never sends EOSE.
const DefaultMaxWaitForEOSE = 4 * time.Second

// Pool manages connections to multiple relays, ensures they are reopened when necessary and not duplicated.
type Pool struct {
	Relays  *xsync.MapOf[string, *Relay]
	Context context.Context

	cancel context.CancelCauseFunc

	eventMiddleware     func(RelayEvent)
	duplicateMiddleware func(relay string, id ID)
	relayOptions        RelayOptions

	// custom things not often used
	penaltyBoxMu sync.Mutex
	penaltyBox   map[string][2]float64
}

func (ie RelayEvent) String() string { return fmt.Sprintf("[%s] >> %s", ie.Relay.URL, ie.Event) }

// NewPool creates a new Pool with the given options.
func NewPool(opts PoolOptions) *Pool {
	ctx, cancel := context.WithCancelCause(context.Background())

	pool := &Pool{
		Relays: xsync.NewMapOf[string, *Relay](),

		Context: ctx,
		cancel:  cancel,

		eventMiddleware:     opts.EventMiddleware,
		duplicateMiddleware: opts.DuplicateMiddleware,
		relayOptions:        opts.RelayOptions,
	}

	if opts.PenaltyBox {
		pool.penaltyBox = make(map[string][2]float64)
		go pool.startPenaltyBox()
	}

	return pool
}

type PoolOptions struct {
	// PenaltyBox just sets the penalty box mechanism so relays that fail to connect
	// or that disconnect will be ignored for a while and we won't attempt to connect again.
	PenaltyBox bool

	// EventMiddleware is a function that will be called with all events received.
	EventMiddleware func(RelayEvent)

	// DuplicateMiddleware is a function that will be called with all duplicate ids received.
	DuplicateMiddleware func(relay string, id ID)

	// RelayOptions are any options that should be passed to Relays instantiated by this pool
	RelayOptions RelayOptions
}

func (pool *Pool) startPenaltyBox() {
	sleep := 30.0
	for {
		select {
		case <-pool.Context.Done():
			return
		case <-time.After(time.Duration(sleep) * time.Second):
		}

		pool.penaltyBoxMu.Lock()
		nextSleep := 300.0
		for url, v := range pool.penaltyBox {
			remainingSeconds := v[1]
			remainingSeconds -= sleep
			if remainingSeconds <= 0 {
				pool.penaltyBox[url] = [2]float64{v[0], 0}
				continue
			} else {
				pool.penaltyBox[url] = [2]float64{v[0], remainingSeconds}
			}

			if remainingSeconds < nextSleep {
				nextSleep = remainingSeconds
			}
		}

		sleep = nextSleep
		pool.penaltyBoxMu.Unlock()
	}
}

// EnsureRelay ensures that a relay connection exists and is active.
// If the relay is not connected, it attempts to connect.
func (pool *Pool) EnsureRelay(url string) (*Relay, error) {
	return pool.ensureRelay(pool.Context, url)
}

// ensureRelay is EnsureRelay, but the dial is bounded by ctx. The connection itself
// lives as long as the pool.
func (pool *Pool) ensureRelay(ctx context.Context, url string) (*Relay, error) {
	nm := NormalizeURL(url)
	if nm == "" {
		return nil, fmt.Errorf("invalid relay URL '%s'", url)
	}
	defer namedLock(nm)()

	relay, ok := pool.Relays.Load(nm)
	if ok && relay == nil {
		if pool.penaltyBox != nil {
			pool.penaltyBoxMu.Lock()
			v := pool.penaltyBox[nm]
			pool.penaltyBoxMu.Unlock()
			if v[1] > 0 {
				return nil, fmt.Errorf("in penalty box, %fs remaining", v[1])
			}
		}
	} else if ok && relay.IsConnected() {
		// already connected, unlock and return
		return relay, nil
	}

	relay = NewRelay(pool.Context, nm, pool.relayOptions)
	if err := relay.Connect(ctx); err != nil {
		if pool.penaltyBox != nil {
			// putting relay in penalty box
			pool.penaltyBoxMu.Lock()
			v := pool.penaltyBox[nm]
			pool.penaltyBox[nm] = [2]float64{v[0] + 1, 30.0 + math.Pow(2, v[0]+1)}
			pool.penaltyBoxMu.Unlock()
			pool.Relays.Store(nm, nil)
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	pool.Relays.Store(nm, relay)
	return relay, nil
}

// FetchMany opens a subscription to multiple relays and ends as soon as all of them
// return an EOSE message (or fail). Events with the same id coming from different
// relays are only emitted once.
func (pool *Pool) FetchMany(
	ctx context.Context,
	urls []string,
	filter Filter,
	opts SubscriptionOptions,
) chan RelayEvent {
	return pool.fetchMany(ctx, urls, filter, opts, nil)
}

func (pool *Pool) fetchMany(
	ctx context.Context,
	urls []string,
	filter Filter,
	opts SubscriptionOptions,
	onFailure func(url string, err error),
) chan RelayEvent {
	seenAlready := xsync.NewMapOf[ID, struct{}]()

	if opts.CheckDuplicate == nil {
		opts.CheckDuplicate = func(id ID, relay string) bool {
			_, exists := seenAlready.LoadOrStore(id, struct{}{})
			if exists && pool.duplicateMiddleware != nil {
				pool.duplicateMiddleware(relay, id)
			}
			return exists
		}
	}

	return pool.subManyEose(ctx, urls, filter, opts, onFailure)
}

// FetchEventsOnce queries every relay in urls once with filter and returns all the
// distinct events received before each of them sent EOSE, failed or ctx ended.
//
// Relays that can't be reached are tolerated, an error is only returned when none of
// them could be queried. In that case it wraps ErrAllRelaysFailed together with every
// per-relay error.
func (pool *Pool) FetchEventsOnce(ctx context.Context, urls []string, filter Filter) ([]Event, error) {
	relays := make([]string, 0, len(urls))
	for _, url := range urls {
		if nm := NormalizeURL(url); nm != "" {
			relays = AppendUnique(relays, nm)
		}
	}
	if len(relays) == 0 {
		return nil, nil
	}

	var mu sync.Mutex
	errs := make([]error, 0, len(relays))
	onFailure := func(url string, err error) {
		mu.Lock()
		errs = append(errs, fmt.Errorf("%s: %w", url, err))
		mu.Unlock()
	}

	var events []Event
	for ie := range pool.fetchMany(ctx, relays, filter, SubscriptionOptions{
		Label:          "fetch",
		MaxWaitForEOSE: DefaultMaxWaitForEOSE,
	}, onFailure) {
		events = append(events, ie.Event)
	}

	// the channel is only closed after every relay goroutine returned
	mu.Lock()
	defer mu.Unlock()
	if len(errs) == len(relays) {
		return nil, errors.Join(append([]error{ErrAllRelaysFailed}, errs...)...)
	}

	return events, nil
}

func (pool *Pool) subManyEose(
	ctx context.Context,
	urls []string,
	filter Filter,
	opts SubscriptionOptions,
	onFailure func(url string, err error),
) chan RelayEvent {
	ctx, cancel := context.WithCancelCause(ctx)

	relays := make([]string, 0, len(urls))
	for _, url := range urls {
		if nm := NormalizeURL(url); nm != "" && !slices.Contains(relays, nm) {
			relays = append(relays, nm)
		}
	}

	events := make(chan RelayEvent)
	wg := sync.WaitGroup{}
	wg.Add(len(relays))

	go func() {
		// this will happen when all subscriptions get an eose (or when they die)
		wg.Wait()
		cancel(errors.New("all subscriptions ended"))
		close(events)
	}()

	fail := func(nm string, err error) {
		if onFailure != nil {
			onFailure(nm, err)
		}
	}

	for _, url := range relays {
		go func(nm string) {
			defer wg.Done()

			relay, err := pool.ensureRelay(ctx, nm)
			if err != nil {
				debugLogf("[pool] error connecting to %s with %v: %s", nm, filter, err)
				fail(nm, err)
				return
			}

			sub, err := relay.Subscribe(ctx, filter, opts)
			if err != nil {
				debugLogf("[pool] error subscribing to %s with %v: %s", relay, filter, err)
				fail(nm, err)
				return
			}
			defer sub.Unsub()

			for {
				select {
				case <-ctx.Done():
					return
				case <-sub.EndOfStoredEvents:
					return
				case reason := <-sub.ClosedReason:
					debugLogf("[pool] CLOSED from %s: '%s'", nm, reason)
					return
				case evt, more := <-sub.Events:
					if !more {
						return
					}

					ie := RelayEvent{Event: evt, Relay: relay}
					if mh := pool.eventMiddleware; mh != nil {
						mh(ie)
					}

					select {
					case events <- ie:
					case <-ctx.Done():
						return
					}
				}
			}
		}(url)
	}

	return events
}

// Close closes the pool with the given reason.
func (pool *Pool) Close(reason string) {
	pool.cancel(fmt.Errorf("pool closed with reason: '%s'", reason))
}
