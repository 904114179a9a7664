package m3u

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_ValidPlaylist(t *testing.T) {
	input := `#EXTM3U
#EXTINF:-1 tvg-id="espn.us" tvg-name="ESPN" tvg-logo="http://logo.example.com/espn.png" group-title="US Sports",ESPN
http://stream.example.com/12345

#EXTINF:-1 tvg-id="hbo.us" tvg-name="HBO" tvg-logo="http://logo.example.com/hbo.png" group-title="US Movies",HBO
http://stream.example.com/12346
`
	playlist := Parse(input)
	require.Equal(t, 2, playlist.Len())
	require.Equal(t, "#EXTM3U", playlist.Header)
	require.Equal(t, []string{"espn.us", "hbo.us"}, playlist.Identities())

	espn, ok := playlist.Get("espn.us")
	require.True(t, ok)
	require.Equal(t, "ESPN", espn.DisplayName)
	require.Equal(t, "http://stream.example.com/12345", espn.URL)
	require.Equal(t, "espn.us", espn.TVGID())
	require.Equal(t, "http://logo.example.com/espn.png", espn.Logo())
	require.Equal(t, "US Sports", espn.Group())

	hbo, ok := playlist.Get("hbo.us")
	require.True(t, ok)
	require.Equal(t, "HBO", hbo.DisplayName)
	require.Equal(t, "http://stream.example.com/12346", hbo.URL)
	require.Equal(t, "US Movies", hbo.Group())
}

func TestParse_IdentityPrecedence(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		identity    string
		displayName string
	}{
		{
			name: "tvg-id wins",
			input: `#EXTINF:-1 tvg-id="fox.sports.1" tvg-name="FOX Sports 1",FOX Sports 1 HD
http://stream.example.com/1`,
			identity:    "fox.sports.1",
			displayName: "FOX Sports 1 HD",
		},
		{
			name: "empty tvg-id falls back to tvg-name",
			input: `#EXTINF:-1 tvg-id="" tvg-name="CNN" group-title="News",CNN International
http://stream.example.com/cnn`,
			identity:    "CNN",
			displayName: "CNN International",
		},
		{
			name: "label when no attributes",
			input: `#EXTINF:-1,Local Channel
http://stream.example.com/local`,
			identity:    "Local Channel",
			displayName: "Local Channel",
		},
		{
			name: "tvg-name used as display name without label",
			input: `#EXTINF:-1 tvg-id="bbc.uk" tvg-name="BBC One"
http://stream.example.com/bbc`,
			identity:    "bbc.uk",
			displayName: "BBC One",
		},
		{
			name: "whitespace-only tvg-id ignored",
			input: `#EXTINF:-1 tvg-id="  ",Spaced
http://stream.example.com/spaced`,
			identity:    "Spaced",
			displayName: "Spaced",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			playlist := Parse(tt.input)
			require.Equal(t, 1, playlist.Len())

			entry := playlist.Entries()[0]
			require.Equal(t, tt.identity, entry.Identity)
			require.Equal(t, tt.displayName, entry.DisplayName)
		})
	}
}

func TestParse_NoIdentityDiscarded(t *testing.T) {
	input := `#EXTM3U
#EXTINF:-1 group-title="News",
http://stream.example.com/1
#EXTINF:-1,Named
http://stream.example.com/2`

	playlist := Parse(input)
	require.Equal(t, []string{"Named"}, playlist.Identities())
	require.Equal(t, 1, playlist.Skipped)
}

func TestParse_CommaInsideAttribute(t *testing.T) {
	input := `#EXTINF:-1 tvg-name="News, Weather" group-title="A, B",Channel Label
http://stream.example.com/1`

	playlist := Parse(input)
	require.Equal(t, 1, playlist.Len())

	entry := playlist.Entries()[0]
	require.Equal(t, "News, Weather", entry.Identity)
	require.Equal(t, "Channel Label", entry.DisplayName)
	require.Equal(t, "A, B", entry.Group())
}

func TestParse_EmptyLines(t *testing.T) {
	input := `#EXTM3U

#EXTINF:-1 tvg-name="Channel1",Channel 1

http://stream.example.com/1


#EXTINF:-1 tvg-name="Channel2",Channel 2

http://stream.example.com/2

`
	playlist := Parse(input)
	require.Equal(t, []string{"Channel1", "Channel2"}, playlist.Identities())
}

func TestParse_NoHeader(t *testing.T) {
	input := `#EXTINF:-1 tvg-name="Channel1",Channel 1
http://stream.example.com/1`

	playlist := Parse(input)
	require.Equal(t, 1, playlist.Len())
	require.Empty(t, playlist.Header)
}

func TestParse_HeaderWithAttributes(t *testing.T) {
	input := `#EXTM3U x-tvg-url="http://epg.example.com/guide.xml"
#EXTINF:-1,One
http://stream.example.com/1`

	playlist := Parse(input)
	require.Equal(t, `#EXTM3U x-tvg-url="http://epg.example.com/guide.xml"`, playlist.Header)
}

func TestParse_IncompleteBlockAtEnd(t *testing.T) {
	input := `#EXTM3U
#EXTINF:-1 tvg-name="Channel1",Channel 1
http://stream.example.com/1
#EXTINF:-1 tvg-name="Channel2",Channel 2`

	playlist := Parse(input)
	require.Equal(t, []string{"Channel1"}, playlist.Identities())
	require.Equal(t, 1, playlist.Skipped)
}

func TestParse_BlockFollowedByBlock(t *testing.T) {
	input := `#EXTM3U
#EXTINF:-1 tvg-name="Channel1",Channel 1
#EXTINF:-1 tvg-name="Channel2",Channel 2
http://stream.example.com/2`

	playlist := Parse(input)
	require.Equal(t, []string{"Channel2"}, playlist.Identities())
	require.Equal(t, 1, playlist.Skipped)

	entry, ok := playlist.Get("Channel2")
	require.True(t, ok)
	require.Equal(t, []string{`#EXTINF:-1 tvg-name="Channel2",Channel 2`}, entry.Directives)
}

func TestParse_URLWithoutBlockIgnored(t *testing.T) {
	input := `#EXTM3U
http://stream.example.com/orphan
#EXTINF:-1,Real
http://stream.example.com/real`

	playlist := Parse(input)
	require.Equal(t, []string{"Real"}, playlist.Identities())
	require.Equal(t, 0, playlist.Skipped)
}

func TestParse_LookaheadWindow(t *testing.T) {
	t.Run("url within window", func(t *testing.T) {
		input := `#EXTINF:-1,Noisy
junk 1
junk 2
junk 3
junk 4
http://stream.example.com/1`

		playlist := Parse(input)
		require.Equal(t, []string{"Noisy"}, playlist.Identities())
	})

	t.Run("url beyond window", func(t *testing.T) {
		input := `#EXTINF:-1,Noisy
junk 1
junk 2
junk 3
junk 4
junk 5
http://stream.example.com/1`

		playlist := Parse(input)
		require.Equal(t, 0, playlist.Len())
		require.Equal(t, 1, playlist.Skipped)
	})

	t.Run("directives after junk are not attached", func(t *testing.T) {
		input := `#EXTINF:-1 tvg-id="late",Late
#EXTGRP:Kept

junk 1
#EXTVLCOPT:http-referrer=http://stray.example.com/
http://stream.example.com/late`

		playlist := Parse(input)
		require.Equal(t, []string{"late"}, playlist.Identities())

		entry, _ := playlist.Get("late")
		require.Equal(t, []string{`#EXTINF:-1 tvg-id="late",Late`, "#EXTGRP:Kept"}, entry.Directives)
		require.Equal(t, "http://stream.example.com/late", entry.URL)
	})

	t.Run("blank lines do not consume window", func(t *testing.T) {
		input := "#EXTINF:-1,Gappy\n\n\n\n\n\n\n\nhttp://stream.example.com/1"

		playlist := Parse(input)
		require.Equal(t, []string{"Gappy"}, playlist.Identities())
	})
}

func TestParse_AdditionalDirectives(t *testing.T) {
	input := `#EXTM3U
#EXTINF:-1 tvg-id="sport.1",Sport 1
#EXTGRP:Sports
#EXTVLCOPT:http-user-agent=Mozilla/5.0
http://stream.example.com/sport1`

	playlist := Parse(input)
	require.Equal(t, 1, playlist.Len())

	entry := playlist.Entries()[0]
	require.Equal(t, []string{
		`#EXTINF:-1 tvg-id="sport.1",Sport 1`,
		"#EXTGRP:Sports",
		"#EXTVLCOPT:http-user-agent=Mozilla/5.0",
	}, entry.Directives)
	require.Equal(t, "http://stream.example.com/sport1", entry.URL)
}

func TestParse_DuplicateIdentityLastWins(t *testing.T) {
	input := `#EXTM3U
#EXTINF:-1 tvg-id="a",First
http://stream.example.com/first
#EXTINF:-1 tvg-id="b",Other
http://stream.example.com/other
#EXTINF:-1 tvg-id="a",Second
http://stream.example.com/second`

	playlist := Parse(input)
	require.Equal(t, []string{"a", "b"}, playlist.Identities())

	entry, ok := playlist.Get("a")
	require.True(t, ok)
	require.Equal(t, "http://stream.example.com/second", entry.URL)
	require.Equal(t, "Second", entry.DisplayName)
}

func TestParse_Schemes(t *testing.T) {
	input := `#EXTINF:-1,Ace
acestream://0123456789abcdef
#EXTINF:-1,Ftp
ftp://files.example.com/stream
http://stream.example.com/late`

	playlist := Parse(input)
	require.Equal(t, []string{"Ace", "Ftp"}, playlist.Identities())

	ftp, _ := playlist.Get("Ftp")
	require.Equal(t, "http://stream.example.com/late", ftp.URL)

	restricted := NewParser("https")
	playlist = restricted.Parse(`#EXTINF:-1,Plain
http://stream.example.com/1
#EXTINF:-1,Secure
HTTPS://stream.example.com/2`)
	require.Equal(t, []string{"Secure"}, playlist.Identities())
	require.Equal(t, 1, playlist.Skipped)
}

func TestParse_WindowsLineEndingsAndBOM(t *testing.T) {
	input := "\ufeff#EXTM3U\r\n#EXTINF:-1 tvg-id=\"a\",Chan A\r\n  http://x/a.m3u8  \r\n"

	playlist := Parse(input)
	require.Equal(t, "#EXTM3U", playlist.Header)

	entry, ok := playlist.Get("a")
	require.True(t, ok)
	require.Equal(t, "http://x/a.m3u8", entry.URL)
	require.Equal(t, `#EXTINF:-1 tvg-id="a",Chan A`, entry.MetadataLine())
}

func TestParse_SpecialCharacters(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name: "unicode characters",
			input: `#EXTM3U
#EXTINF:-1 tvg-name="Tele Zurich",Télé Zürich
http://stream.example.com/1`,
			expected: "Télé Zürich",
		},
		{
			name: "cyrillic label",
			input: `#EXTM3U
#EXTINF:-1,Первый канал
http://stream.example.com/1`,
			expected: "Первый канал",
		},
		{
			name: "parentheses in name",
			input: `#EXTM3U
#EXTINF:-1 tvg-name="ESPN (HD)",ESPN (HD)
http://stream.example.com/1`,
			expected: "ESPN (HD)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			playlist := Parse(tt.input)
			require.Equal(t, 1, playlist.Len())
			require.Equal(t, tt.expected, playlist.Entries()[0].DisplayName)
		})
	}
}

func TestParse_NeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"#EXTM3U",
		"#EXTINF",
		"#EXTINF:",
		",,,,",
		`#EXTINF:-1 tvg-id="unterminated,Name
http://stream.example.com/1`,
		"http://only.example.com/url",
	}

	for _, input := range inputs {
		require.NotPanics(t, func() {
			Parse(input)
		})
	}
}

func TestExtractAttributes(t *testing.T) {
	tests := []struct {
		name     string
		head     string
		expected []Attribute
	}{
		{
			name: "ordered attributes",
			head: `#EXTINF:-1 tvg-id="espn" tvg-logo="http://logo.example.com/espn.png" group-title="US Sports"`,
			expected: []Attribute{
				{Key: "tvg-id", Value: "espn"},
				{Key: "tvg-logo", Value: "http://logo.example.com/espn.png"},
				{Key: "group-title", Value: "US Sports"},
			},
		},
		{
			name:     "empty value",
			head:     `#EXTINF:-1 tvg-name=""`,
			expected: []Attribute{{Key: "tvg-name", Value: ""}},
		},
		{
			name:     "no attributes",
			head:     `#EXTINF:-1`,
			expected: []Attribute{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, extractAttributes(tt.head))
		})
	}
}

func TestSplitDirective(t *testing.T) {
	head, label := splitDirective(`#EXTINF:-1 tvg-name="a,b",  Label, with comma  `)
	require.Equal(t, `#EXTINF:-1 tvg-name="a,b"`, head)
	require.Equal(t, "Label, with comma", label)

	head, label = splitDirective(`#EXTINF:-1 tvg-id="x"`)
	require.Equal(t, `#EXTINF:-1 tvg-id="x"`, head)
	require.Empty(t, label)
}
