package nostr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	for _, tc := range []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"   ", ""},
		{"relay.example.com", "wss://relay.example.com"},
		{"wss://Relay.Example.com/", "wss://relay.example.com"},
		{" wss://relay.example.com/path/ ", "wss://relay.example.com/path"},
		{"https://relay.example.com", "wss://relay.example.com"},
		{"http://relay.example.com", "ws://relay.example.com"},
		{"ws://localhost:7777", "ws://localhost:7777"},
		{"localhost:7777", "ws://localhost:7777"},
		{"127.0.0.1:7777", "ws://127.0.0.1:7777"},
		{"wss://", ""},
		{"ftp://relay.example.com", ""},
	} {
		t.Run(tc.input, func(t *testing.T) {
			require.Equal(t, tc.expected, NormalizeURL(tc.input))
		})
	}
}

func TestIsValidRelayURL(t *testing.T) {
	require.True(t, IsValidRelayURL("wss://relay.example.com"))
	require.True(t, IsValidRelayURL("ws://localhost:7777"))
	require.False(t, IsValidRelayURL("https://relay.example.com"))
	require.False(t, IsValidRelayURL("wss://"))
	require.False(t, IsValidRelayURL("::::"))
}

func TestAppendUnique(t *testing.T) {
	require.Equal(t, []string{"a", "b", "c"}, AppendUnique([]string{"a"}, "b", "a", "c", "b"))
	require.Equal(t, []int{1}, AppendUnique(nil, 1, 1))
}
