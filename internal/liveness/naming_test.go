package liveness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProvisionalIdentity(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"http://cdn.example.com/live/cnn.m3u8", "cnn"},
		{"https://cdn.example.com/live/sport-1/", "sport-1"},
		{"http://cdn.example.com/hls/news.channel.m3u8?token=abc", "news.channel"},
		{"http://cdn.example.com/live/Caf%C3%A9%20TV.ts", "Café TV"},
		{"http://cdn.example.com/stream", "stream"},
		{"http://cdn.example.com/", GenericLabel},
		{"http://cdn.example.com", GenericLabel},
		{"http://cdn.example.com/.m3u8", GenericLabel},
		{"acestream://0123456789abcdef", GenericLabel},
		{"http://h/foo%0Abar.m3u8", "foo bar"},
		{"http://h/a%22b.m3u8", "a'b"},
		{"http://h/%0A%09.m3u8", GenericLabel},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			require.Equal(t, tt.expected, ProvisionalIdentity(tt.url))
		})
	}
}

func TestNamer(t *testing.T) {
	namer := NewNamer("cnn", "curated.news")

	require.True(t, namer.Taken("cnn"))

	id, ok := namer.Assign("http://cdn.example.com/live/cnn.m3u8")
	require.Equal(t, "cnn", id)
	require.False(t, ok)

	id, ok = namer.Assign("http://cdn.example.com/live/bbc.m3u8")
	require.Equal(t, "bbc", id)
	require.True(t, ok)

	_, ok = namer.Assign("http://mirror.example.com/bbc.m3u8")
	require.False(t, ok)

	require.True(t, namer.Reserve("fresh"))
	require.False(t, namer.Reserve("fresh"))
}
