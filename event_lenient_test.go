package nostr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEventLenient(t *testing.T) {
	const pk = "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"

	for _, tc := range []struct {
		name  string
		input string
		check func(t *testing.T, evt Event)
	}{
		{
			"well formed",
			`{"id":"` + pk + `","pubkey":"` + pk + `","created_at":1700000000,"kind":10063,"tags":[["server","https://a"]],"content":"x"}`,
			func(t *testing.T, evt Event) {
				require.Equal(t, MustPubKeyFromHex(pk), evt.PubKey)
				require.Equal(t, Timestamp(1700000000), evt.CreatedAt)
				require.Equal(t, KindUserServerList, evt.Kind)
				require.Equal(t, Tags{{"server", "https://a"}}, evt.Tags)
				require.Equal(t, "x", evt.Content)
			},
		},
		{
			"missing created_at",
			`{"kind":10063,"tags":[]}`,
			func(t *testing.T, evt Event) {
				require.Equal(t, Timestamp(0), evt.CreatedAt)
			},
		},
		{
			"string created_at",
			`{"created_at":" 1234 "}`,
			func(t *testing.T, evt Event) {
				require.Equal(t, Timestamp(1234), evt.CreatedAt)
			},
		},
		{
			"garbage created_at",
			`{"created_at":"yesterday"}`,
			func(t *testing.T, evt Event) {
				require.Equal(t, Timestamp(0), evt.CreatedAt)
			},
		},
		{
			"object created_at",
			`{"created_at":{"a":1}}`,
			func(t *testing.T, evt Event) {
				require.Equal(t, Timestamp(0), evt.CreatedAt)
			},
		},
		{
			"tags that aren't arrays are dropped",
			`{"tags":["server",{"a":1},["server","https://b"],5]}`,
			func(t *testing.T, evt Event) {
				require.Equal(t, Tags{{"server", "https://b"}}, evt.Tags)
			},
		},
		{
			"tags are cut at the first non-string",
			`{"tags":[["server",5,"https://c"],["server","https://d",null,"x"]]}`,
			func(t *testing.T, evt Event) {
				require.Equal(t, Tags{{"server"}, {"server", "https://d"}}, evt.Tags)
			},
		},
		{
			"tags not an array",
			`{"tags":"server"}`,
			func(t *testing.T, evt Event) {
				require.Nil(t, evt.Tags)
			},
		},
		{
			"bad hex fields are zeroed",
			`{"id":"nothex","pubkey":"zz` + pk[2:] + `","sig":42}`,
			func(t *testing.T, evt Event) {
				require.Equal(t, ZeroID, evt.ID)
				require.Equal(t, ZeroPK, evt.PubKey)
				require.Equal(t, [64]byte{}, evt.Sig)
			},
		},
		{
			"kind out of range",
			`{"kind":70000}`,
			func(t *testing.T, evt Event) {
				require.Equal(t, Kind(0), evt.Kind)
			},
		},
		{
			"fractional kind",
			`{"kind":1.5}`,
			func(t *testing.T, evt Event) {
				require.Equal(t, Kind(0), evt.Kind)
			},
		},
		{
			"content not a string",
			`{"content":["x"]}`,
			func(t *testing.T, evt Event) {
				require.Equal(t, "", evt.Content)
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			evt, err := ParseEventLenient(tc.input)
			require.NoError(t, err)
			tc.check(t, evt)
		})
	}
}

func TestParseEventLenientNotAnObject(t *testing.T) {
	for _, input := range []string{``, `[]`, `"event"`, `12`, `null`} {
		_, err := ParseEventLenient(input)
		require.ErrorIs(t, err, ErrNotAnEventObject)
	}
}

func TestParseEventLenientKeepsValidSignature(t *testing.T) {
	evt := Event{
		CreatedAt: 1700000000,
		Kind:      KindUserServerList,
		Tags:      Tags{{"server", "https://a.example"}},
	}
	require.NoError(t, evt.Sign(GeneratePrivateKey()))

	parsed, err := ParseEventLenient(evt.String())
	require.NoError(t, err)
	require.True(t, parsed.VerifySignature())
}
