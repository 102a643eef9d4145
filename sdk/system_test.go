package sdk

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	nostr "github.com/MaviLabArt/Pidgeon-sub002"
	"github.com/MaviLabArt/Pidgeon-sub002/nip19"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

// serverListRelay answers every REQ with events, then EOSE, counting the REQs it got.
func serverListRelay(t *testing.T, reqs *atomic.Int32, events ...nostr.Event) *httptest.Server {
	t.Helper()

	return httptest.NewServer(&websocket.Server{
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler: func(conn *websocket.Conn) {
			for {
				var msg string
				if err := websocket.Message.Receive(conn, &msg); err != nil {
					return
				}
				env, err := nostr.ParseMessage(msg)
				if err != nil {
					continue
				}
				req, ok := env.(*nostr.ReqEnvelope)
				if !ok {
					continue
				}
				reqs.Add(1)

				for _, evt := range events {
					b, _ := nostr.EventEnvelope{SubscriptionID: &req.SubscriptionID, Event: evt}.MarshalJSON()
					websocket.Message.Send(conn, string(b))
				}
				b, _ := nostr.EOSEEnvelope(req.SubscriptionID).MarshalJSON()
				websocket.Message.Send(conn, string(b))
			}
		},
	})
}

func signedList(t *testing.T, sk [32]byte, kind nostr.Kind, servers ...string) nostr.Event {
	evt := nostr.Event{CreatedAt: nostr.Now(), Kind: kind}
	for _, s := range servers {
		evt.Tags = append(evt.Tags, nostr.Tag{"server", s})
	}
	require.NoError(t, evt.Sign(sk))
	return evt
}

func TestFetchMediaServers(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	pk := nostr.GetPublicKey(sk)

	var reqs atomic.Int32
	relay := serverListRelay(t, &reqs,
		signedList(t, sk, nostr.KindUserServerList, "https://blossom.example/", "blossom.example"),
		signedList(t, sk, nostr.KindFileStorageServerList, "HTTPS://Files.Example:443"),
	)
	defer relay.Close()

	sys := NewSystem(WithDefaultRelays(relay.URL), WithPenaltyBox(false))
	defer sys.Close()

	dir, err := sys.FetchMediaServers(t.Context(), pk)
	require.NoError(t, err)
	require.Equal(t, []string{"https://blossom.example"}, dir.Blossom)
	require.Equal(t, []string{"https://files.example"}, dir.NIP96)
	require.Equal(t, int32(1), reqs.Load())

	// let the buffered cache write land
	require.Eventually(t, func() bool {
		_, ok := sys.DirectoryCache.Get(pk)
		return ok
	}, time.Second, 10*time.Millisecond)

	cached, err := sys.FetchMediaServers(t.Context(), pk)
	require.NoError(t, err)
	require.Equal(t, dir, cached)
	require.Equal(t, int32(1), reqs.Load())

	// what callers do with their copy doesn't leak into the cache
	cached.Blossom[0] = "https://evil.example"
	cached.BlossomEvent.Tags[0][1] = "https://evil.example"
	cached.NIP96 = append(cached.NIP96, "https://evil.example")
	dir.NIP96Event.CreatedAt = 1

	again, err := sys.FetchMediaServers(t.Context(), pk)
	require.NoError(t, err)
	require.Equal(t, []string{"https://blossom.example"}, again.Blossom)
	require.Equal(t, []string{"https://files.example"}, again.NIP96)
	require.Equal(t, "https://blossom.example/", again.BlossomEvent.Tags[0][1])
	require.NotEqual(t, nostr.Timestamp(1), again.NIP96Event.CreatedAt)
	require.Equal(t, int32(1), reqs.Load())

	// explicit relays bypass the cache
	_, err = sys.FetchMediaServers(t.Context(), pk, relay.URL)
	require.NoError(t, err)
	require.Equal(t, int32(2), reqs.Load())
}

func TestFetchMediaServersWithoutCache(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	pk := nostr.GetPublicKey(sk)

	var reqs atomic.Int32
	relay := serverListRelay(t, &reqs, signedList(t, sk, nostr.KindUserServerList, "https://s.example"))
	defer relay.Close()

	sys := NewSystem(WithDefaultRelays(relay.URL), WithoutCache())
	defer sys.Close()
	require.Nil(t, sys.DirectoryCache)

	for range 2 {
		dir, err := sys.FetchMediaServers(t.Context(), pk)
		require.NoError(t, err)
		require.Equal(t, []string{"https://s.example"}, dir.Blossom)
		require.Empty(t, dir.NIP96)
		require.Nil(t, dir.NIP96Event)
	}
	require.Equal(t, int32(2), reqs.Load())
}

func TestInputToPubKey(t *testing.T) {
	pk := nostr.GetPublicKey(nostr.GeneratePrivateKey())

	for _, input := range []string{
		pk.Hex(),
		nip19.EncodeNpub(pk),
		"nostr:" + nip19.EncodeNpub(pk),
		nip19.EncodeNprofile(pk, []string{"wss://hint.example"}),
	} {
		got, _, err := InputToPubKey(input)
		require.NoError(t, err, input)
		require.Equal(t, pk, got)
	}

	_, relays, err := InputToPubKey(nip19.EncodeNprofile(pk, []string{"wss://hint.example"}))
	require.NoError(t, err)
	require.Equal(t, []string{"wss://hint.example"}, relays)

	_, _, err = InputToPubKey("banana")
	require.Error(t, err)
	require.Nil(t, InputToProfile("banana"))
	require.Equal(t, pk, InputToProfile(pk.Hex()).PublicKey)
}
