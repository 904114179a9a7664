package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/m3u"
	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/merge"
	"github.com/stretchr/testify/require"
)

const samplePlaylist = `#EXTM3U
#EXTINF:-1 tvg-id="one" group-title="News",One
http://example.com/one.m3u8
#EXTINF:-1 tvg-name="Two" group-title="News",Two HD
http://example.com/two.m3u8
#EXTINF:-1 group-title="Sports",Three
http://example.com/three.m3u8
#EXTINF:-1,Orphan
`

func TestLoadPlaylist_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.m3u")
	require.NoError(t, os.WriteFile(path, []byte(samplePlaylist), 0o644))

	playlist, err := loadPlaylist(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 3, playlist.Len())
	require.Equal(t, 1, playlist.Skipped)
}

func TestPrintEntries(t *testing.T) {
	limit = 2

	defer func() { limit = 50 }()

	var buf bytes.Buffer

	printEntries(&buf, m3u.Parse(samplePlaylist))

	out := buf.String()
	require.Contains(t, out, "ENTRIES (3 parsed, 1 discarded)")
	require.Contains(t, out, "tvg-id")
	require.Contains(t, out, "tvg-name")
	require.NotContains(t, out, "three.m3u8")
	require.Contains(t, out, "... 1 more entries")
}

func TestPrintGroups(t *testing.T) {
	var buf bytes.Buffer

	printGroups(&buf, m3u.Parse(samplePlaylist))

	out := strings.ToUpper(buf.String())
	require.Contains(t, out, "GROUPS (2)")
	require.Contains(t, out, "NEWS")
	require.Contains(t, out, "SPORTS")
}

func TestPrintMerge(t *testing.T) {
	local := m3u.Parse("#EXTM3U\n#EXTINF:-1 tvg-id=\"one\",One\nhttp://old.example.com/one.m3u8\n" +
		"#EXTINF:-1 tvg-id=\"mine\",Mine\nhttp://example.com/mine.m3u8\n")

	var buf bytes.Buffer

	printMerge(&buf, merge.Merge(m3u.Parse(samplePlaylist), local))

	out := buf.String()
	require.Contains(t, out, "[ADDED] (2)")
	require.Contains(t, out, "[UPDATED] (1)")
	require.Contains(t, out, "[PRESERVED (local only)] (1)")
	require.Contains(t, out, "    mine\n")
}
