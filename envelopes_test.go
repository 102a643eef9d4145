package nostr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	for _, tc := range []struct {
		name    string
		message string
		check   func(t *testing.T, env Envelope)
	}{
		{
			"event with subscription",
			`["EVENT","1:fetch",{"kind":10063,"created_at":5,"tags":[["server","https://a"]],"content":""}]`,
			func(t *testing.T, env Envelope) {
				ee := env.(*EventEnvelope)
				require.Equal(t, "1:fetch", *ee.SubscriptionID)
				require.Equal(t, KindUserServerList, ee.Event.Kind)
				require.Equal(t, Timestamp(5), ee.Event.CreatedAt)
			},
		},
		{
			"event with broken fields",
			`["EVENT","2:x",{"kind":10096,"created_at":"bad","tags":[1,["server","https://b",2]]}]`,
			func(t *testing.T, env Envelope) {
				ee := env.(*EventEnvelope)
				require.Equal(t, Timestamp(0), ee.Event.CreatedAt)
				require.Equal(t, Tags{{"server", "https://b"}}, ee.Event.Tags)
			},
		},
		{
			"eose",
			`["EOSE","3:fetch"]`,
			func(t *testing.T, env Envelope) {
				require.Equal(t, EOSEEnvelope("3:fetch"), *env.(*EOSEEnvelope))
			},
		},
		{
			"closed",
			`["CLOSED","4:fetch","error: shutting down"]`,
			func(t *testing.T, env Envelope) {
				require.Equal(t, ClosedEnvelope{"4:fetch", "error: shutting down"}, *env.(*ClosedEnvelope))
			},
		},
		{
			"notice",
			`["NOTICE","slow down"]`,
			func(t *testing.T, env Envelope) {
				require.Equal(t, NoticeEnvelope("slow down"), *env.(*NoticeEnvelope))
			},
		},
		{
			"close",
			`["CLOSE","5:fetch"]`,
			func(t *testing.T, env Envelope) {
				require.Equal(t, CloseEnvelope("5:fetch"), *env.(*CloseEnvelope))
			},
		},
		{
			"req",
			`["REQ","6:fetch",{"kinds":[10063,10096],"authors":["3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"],"limit":32}]`,
			func(t *testing.T, env Envelope) {
				req := env.(*ReqEnvelope)
				require.Equal(t, "6:fetch", req.SubscriptionID)
				require.Len(t, req.Filters, 1)
				require.Equal(t, []Kind{KindUserServerList, KindFileStorageServerList}, req.Filters[0].Kinds)
				require.Equal(t, 32, req.Filters[0].Limit)
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env, err := ParseMessage(tc.message)
			require.NoError(t, err)
			tc.check(t, env)
		})
	}
}

func TestParseMessageErrors(t *testing.T) {
	_, err := ParseMessage(`["AUTH","challenge"]`)
	require.ErrorIs(t, err, UnknownLabel)

	_, err = ParseMessage(`nothing here`)
	require.ErrorIs(t, err, InvalidJsonEnvelope)

	_, err = ParseMessage(`["EVENT","sub","not an object"]`)
	require.ErrorIs(t, err, ErrNotAnEventObject)

	_, err = ParseMessage(`["CLOSED","only-sub"]`)
	require.Error(t, err)
}

func TestEnvelopeEncoding(t *testing.T) {
	filter := Filter{
		Kinds:   []Kind{KindUserServerList, KindFileStorageServerList},
		Authors: []PubKey{MustPubKeyFromHex("3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d")},
		Limit:   32,
	}

	b, err := ReqEnvelope{"1:fetch", []Filter{filter}}.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t,
		`["REQ","1:fetch",{"kinds":[10063,10096],"authors":["3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"],"limit":32}]`,
		string(b))

	env, err := ParseMessage(string(b))
	require.NoError(t, err)
	require.Equal(t, filter.Kinds, env.(*ReqEnvelope).Filters[0].Kinds)
	require.Equal(t, filter.Authors, env.(*ReqEnvelope).Filters[0].Authors)

	b, err = CloseEnvelope("1:fetch").MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `["CLOSE","1:fetch"]`, string(b))

	b, err = ClosedEnvelope{"1:fetch", `bad "filter"`}.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `["CLOSED","1:fetch","bad \"filter\""]`, string(b))
}

func TestFilterMatches(t *testing.T) {
	pk := MustPubKeyFromHex("3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d")
	filter := Filter{
		Kinds:   []Kind{KindUserServerList, KindFileStorageServerList},
		Authors: []PubKey{pk},
	}

	require.True(t, filter.Matches(Event{Kind: KindUserServerList, PubKey: pk}))
	require.False(t, filter.Matches(Event{Kind: KindTextNote, PubKey: pk}))
	require.False(t, filter.Matches(Event{Kind: KindUserServerList}))

	clone := filter.Clone()
	clone.Kinds[0] = KindTextNote
	require.Equal(t, KindUserServerList, filter.Kinds[0])
}
