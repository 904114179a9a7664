package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStore_ReadMissing(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "iptv.m3u"))

	text, err := store.Read()
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestLocalStore_WriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iptv.m3u")
	store := NewLocalStore(path)

	require.NoError(t, store.Write("#EXTM3U\n"))

	text, err := store.Read()
	require.NoError(t, err)
	require.Equal(t, "#EXTM3U\n", text)

	require.NoError(t, store.Write("#EXTM3U\n#EXTINF:-1,A\nhttp://a\n"))

	text, err = store.Read()
	require.NoError(t, err)
	require.Equal(t, "#EXTM3U\n#EXTINF:-1,A\nhttp://a\n", text)
	require.Equal(t, path, store.Path())
}

func TestLocalStore_WriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(filepath.Join(dir, "iptv.m3u"))

	require.NoError(t, store.Write("one"))
	require.NoError(t, store.Write("two"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "iptv.m3u", entries[0].Name())
}

func TestLocalStore_WritePreservesMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iptv.m3u")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	store := NewLocalStore(path)
	require.NoError(t, store.Write("new"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLocalStore_WriteFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "iptv.m3u")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))

	// A directory in place of the parent makes temp file creation fail.
	store := NewLocalStore(filepath.Join(path, "nested.m3u"))
	require.Error(t, store.Write("new"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "original", string(data))
}

func TestLocalStore_Lock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iptv.m3u")

	first := NewLocalStore(path)
	second := NewLocalStore(path)

	unlock, err := first.Lock()
	require.NoError(t, err)

	_, err = second.Lock()
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, unlock())

	unlock, err = second.Lock()
	require.NoError(t, err)
	require.NoError(t, unlock())
}
