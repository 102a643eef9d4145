package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	nostr "github.com/MaviLabArt/Pidgeon-sub002"
	"github.com/MaviLabArt/Pidgeon-sub002/mediaservers"
	"github.com/MaviLabArt/Pidgeon-sub002/nip19"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

const testPubKeyHex = "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"

type fetchCall struct {
	pk     nostr.PubKey
	relays []string
}

func recordingFetch(dir mediaservers.Directory, err error, calls *[]fetchCall) fetchFunc {
	return func(ctx context.Context, pk nostr.PubKey, relays ...string) (mediaservers.Directory, error) {
		*calls = append(*calls, fetchCall{pk, relays})
		return dir, err
	}
}

func TestHandler(t *testing.T) {
	pk := nostr.MustPubKeyFromHex(testPubKeyHex)
	dir := mediaservers.EmptyDirectory()
	dir.Blossom = []string{"https://blossom.example"}

	for _, tc := range []struct {
		name   string
		path   string
		err    error
		status int
		body   string
		relays []string
	}{
		{
			name:   "hex",
			path:   "/" + testPubKeyHex,
			status: http.StatusOK,
			body:   `{"blossom":["https://blossom.example"],"nip96":[],"blossomEvent":null,"nip96Event":null}`,
			relays: []string{},
		},
		{
			name:   "npub with relays",
			path:   "/" + nip19.EncodeNpub(pk) + "?relay=wss://a.example&relay=+&relay=wss://b.example",
			status: http.StatusOK,
			body:   `{"blossom":["https://blossom.example"],"nip96":[],"blossomEvent":null,"nip96Event":null}`,
			relays: []string{"wss://a.example", "wss://b.example"},
		},
		{
			name:   "nprofile hints",
			path:   "/" + nip19.EncodeNprofile(pk, []string{"wss://hint.example"}) + "?relay=wss://a.example",
			status: http.StatusOK,
			body:   `{"blossom":["https://blossom.example"],"nip96":[],"blossomEvent":null,"nip96Event":null}`,
			relays: []string{"wss://a.example", "wss://hint.example"},
		},
		{
			name:   "invalid",
			path:   "/banana",
			status: http.StatusBadRequest,
		},
		{
			name:   "missing",
			path:   "/",
			status: http.StatusBadRequest,
		},
		{
			name:   "upstream failure",
			path:   "/" + testPubKeyHex,
			err:    nostr.ErrAllRelaysFailed,
			status: http.StatusBadGateway,
			body:   `{"error":"all relays failed"}`,
			relays: []string{},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var calls []fetchCall
			h := newHandler(recordingFetch(dir, tc.err, &calls), time.Second, zerolog.Nop())

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tc.body != "" {
				require.JSONEq(t, tc.body, rec.Body.String())
			}

			if tc.relays == nil {
				require.Empty(t, calls)
				return
			}
			require.Len(t, calls, 1)
			require.Equal(t, pk, calls[0].pk)
			require.Equal(t, tc.relays, calls[0].relays)
		})
	}
}

func TestHandlerCORS(t *testing.T) {
	var calls []fetchCall
	h := newHandler(recordingFetch(mediaservers.EmptyDirectory(), nil, &calls), time.Second, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/"+testPubKeyHex, nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServerOverFasthttp(t *testing.T) {
	var calls []fetchCall
	dir := mediaservers.EmptyDirectory()
	dir.NIP96 = []string{"https://files.example"}

	ln := fasthttputil.NewInmemoryListener()
	server := newServer(newHandler(recordingFetch(dir, nil, &calls), time.Second, zerolog.Nop()))
	go server.Serve(ln)
	defer server.Shutdown()

	client := &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://mediaservers.local/" + testPubKeyHex)
	require.NoError(t, client.Do(req, resp))

	require.Equal(t, fasthttp.StatusOK, resp.StatusCode())
	require.JSONEq(t, `{"blossom":[],"nip96":["https://files.example"],"blossomEvent":null,"nip96Event":null}`, string(resp.Body()))
	require.Len(t, calls, 1)
}

func TestFormatResolution(t *testing.T) {
	dir := mediaservers.EmptyDirectory()
	dir.Blossom = []string{"https://a.example", "https://b.example"}

	require.Equal(t,
		"alice\n  blossom: https://a.example\n  blossom: https://b.example\n  nip96: none\n",
		formatResolution(resolution{Input: "alice", Servers: &dir}))

	require.Equal(t,
		"bob\n  error: boom\n",
		formatResolution(resolution{Input: "bob", Error: errors.New("boom").Error()}))
}
