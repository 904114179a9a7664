package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testUpstreamURL = "http://example.com/playlist.m3u"
	testInvalidURL  = "://invalid-url"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, []string{DefaultUpstreamURL}, cfg.UpstreamURLs)
	require.Equal(t, "iptv.m3u", cfg.LocalPath)
	require.Equal(t, 10, cfg.MinEntries)
	require.Equal(t, 30*time.Second, cfg.FetchTimeout)
	require.Equal(t, 10, cfg.ProbeConcurrency)
	require.Equal(t, 5*time.Second, cfg.ProbeTimeout)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "text", cfg.LogFormat)
	require.Equal(t, "0.0.0.0", cfg.BindAddr)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, time.Hour, cfg.RefreshInterval)
	require.False(t, cfg.DryRun)
	require.False(t, cfg.DiscoveryEnabled())

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "no upstream",
			mutate: func(c *Config) { c.UpstreamURLs = nil },
			errMsg: "--upstream must contain at least one URL",
		},
		{
			name:   "blank upstream",
			mutate: func(c *Config) { c.UpstreamURLs = []string{" , "} },
			errMsg: "--upstream must contain at least one URL",
		},
		{
			name:   "invalid upstream",
			mutate: func(c *Config) { c.UpstreamURLs = []string{testInvalidURL} },
			errMsg: "invalid upstream URL at position 1",
		},
		{
			name:   "non-http upstream",
			mutate: func(c *Config) { c.UpstreamURLs = []string{testUpstreamURL, "ftp://example.com/list.m3u"} },
			errMsg: "invalid upstream URL at position 2",
		},
		{
			name:   "missing local",
			mutate: func(c *Config) { c.LocalPath = " " },
			errMsg: "--local is required",
		},
		{
			name:   "negative min entries",
			mutate: func(c *Config) { c.MinEntries = -1 },
			errMsg: "min entries must not be negative",
		},
		{
			name:   "zero fetch timeout",
			mutate: func(c *Config) { c.FetchTimeout = 0 },
			errMsg: "fetch timeout must be positive",
		},
		{
			name:   "invalid candidate",
			mutate: func(c *Config) { c.CandidateURLs = []string{testInvalidURL} },
			errMsg: "invalid candidate URL at position 1",
		},
		{
			name:   "zero concurrency",
			mutate: func(c *Config) { c.ProbeConcurrency = 0 },
			errMsg: "probe concurrency must be at least 1",
		},
		{
			name:   "zero probe timeout",
			mutate: func(c *Config) { c.ProbeTimeout = 0 },
			errMsg: "probe timeout must be positive",
		},
		{
			name:   "bad log format",
			mutate: func(c *Config) { c.LogFormat = "xml" },
			errMsg: "log format must be text or json",
		},
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Port = 70000 },
			errMsg: "port must be between 1 and 65535",
		},
		{
			name:   "zero refresh interval",
			mutate: func(c *Config) { c.RefreshInterval = 0 },
			errMsg: "refresh interval must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidate_MinEntriesZeroAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinEntries = 0

	require.NoError(t, cfg.Validate())
}

func TestUpstreams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UpstreamURLs = []string{" http://a.example.com/1.m3u ", "http://b.example.com/2.m3u,http://c.example.com/3.m3u", ""}

	require.Equal(t, []string{
		"http://a.example.com/1.m3u",
		"http://b.example.com/2.m3u",
		"http://c.example.com/3.m3u",
	}, cfg.Upstreams())
}

func TestListenAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BindAddr = "127.0.0.1"
	cfg.Port = 9000

	require.Equal(t, "127.0.0.1:9000", cfg.ListenAddr())
}

func TestDiscoveryEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CandidateURLs = []string{"http://cdn.example.com/a.m3u8"}
	require.True(t, cfg.DiscoveryEnabled())

	cfg = DefaultConfig()
	cfg.CuratedPath = "sources.json"
	require.True(t, cfg.DiscoveryEnabled())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "iptvsync.yaml", `
upstreams:
  - http://example.com/one.m3u
  - http://example.com/two.m3u
local: /srv/iptv.m3u
min_entries: 0
fetch_timeout: 10s
discovery:
  curated: sources.json
  candidates:
    - http://cdn.example.com/a.m3u8
  concurrency: 4
  probe_timeout: 2s
  group: Found
history: history.db
log:
  level: debug
  format: json
server:
  port: 9090
  refresh: 15m
`)

	cfg := DefaultConfig()
	require.NoError(t, LoadFile(path, cfg))

	require.Equal(t, []string{"http://example.com/one.m3u", "http://example.com/two.m3u"}, cfg.UpstreamURLs)
	require.Equal(t, "/srv/iptv.m3u", cfg.LocalPath)
	require.Equal(t, 0, cfg.MinEntries)
	require.Equal(t, 10*time.Second, cfg.FetchTimeout)
	require.Equal(t, "sources.json", cfg.CuratedPath)
	require.Equal(t, []string{"http://cdn.example.com/a.m3u8"}, cfg.CandidateURLs)
	require.Equal(t, 4, cfg.ProbeConcurrency)
	require.Equal(t, 2*time.Second, cfg.ProbeTimeout)
	require.Equal(t, "Found", cfg.DiscoveredGroup)
	require.Equal(t, "history.db", cfg.HistoryPath)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 15*time.Minute, cfg.RefreshInterval)

	// Untouched values keep their defaults.
	require.Equal(t, "0.0.0.0", cfg.BindAddr)
	require.Equal(t, 2*time.Minute, cfg.DiscoveryTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile_TOML(t *testing.T) {
	path := writeFile(t, "iptvsync.toml", `
upstreams = ["http://example.com/one.m3u"]
local = "out.m3u"
min_entries = 25
user_agent = "custom/2.0"

[discovery]
candidates_file = "candidates.txt"
timeout = "30s"

[server]
bind = "127.0.0.1"
`)

	cfg := DefaultConfig()
	require.NoError(t, LoadFile(path, cfg))

	require.Equal(t, []string{"http://example.com/one.m3u"}, cfg.UpstreamURLs)
	require.Equal(t, "out.m3u", cfg.LocalPath)
	require.Equal(t, 25, cfg.MinEntries)
	require.Equal(t, "custom/2.0", cfg.UserAgent)
	require.Equal(t, "candidates.txt", cfg.CandidatesPath)
	require.Equal(t, 30*time.Second, cfg.DiscoveryTimeout)
	require.Equal(t, "127.0.0.1", cfg.BindAddr)
	require.True(t, cfg.DiscoveryEnabled())
}

func TestLoadFile_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), DefaultConfig())
		require.Error(t, err)
		require.Contains(t, err.Error(), "read config")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		err := LoadFile(writeFile(t, "config.ini", "local=x"), DefaultConfig())
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported config format")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		err := LoadFile(writeFile(t, "config.yml", "upstreams: [unterminated"), DefaultConfig())
		require.Error(t, err)
		require.Contains(t, err.Error(), "parse config")
	})

	t.Run("bad duration", func(t *testing.T) {
		err := LoadFile(writeFile(t, "config.yaml", "fetch_timeout: soon\n"), DefaultConfig())
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid fetch_timeout")
	})
}
