// Package config provides configuration for the playlist reconciler.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultUpstreamURL is the playlist the local file tracks unless configured otherwise.
const DefaultUpstreamURL = "https://raw.githubusercontent.com/IPTVSHARED/iptv/main/.m3u"

// Config holds the application configuration.
type Config struct {
	// Sources
	UpstreamURLs []string
	LocalPath    string
	MinEntries   int
	Schemes      []string

	// Fetching
	UserAgent    string
	FetchTimeout time.Duration

	// Discovery
	CuratedPath      string
	CandidatesPath   string
	CandidateURLs    []string
	ProbeConcurrency int
	ProbeTimeout     time.Duration
	DiscoveryTimeout time.Duration
	DiscoveredGroup  string

	// Reporting
	HistoryPath string
	MetricsPath string
	LogLevel    string
	LogFormat   string
	DryRun      bool

	// Server
	BindAddr        string
	Port            int
	RefreshInterval time.Duration
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		UpstreamURLs:     []string{DefaultUpstreamURL},
		LocalPath:        "iptv.m3u",
		MinEntries:       10,
		UserAgent:        "iptvsync/1.0",
		FetchTimeout:     30 * time.Second,
		ProbeConcurrency: 10,
		ProbeTimeout:     5 * time.Second,
		DiscoveryTimeout: 2 * time.Minute,
		DiscoveredGroup:  "Discovered",
		LogLevel:         "info",
		LogFormat:        "text",
		BindAddr:         "0.0.0.0",
		Port:             8080,
		RefreshInterval:  time.Hour,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	upstreams := c.Upstreams()
	if len(upstreams) == 0 {
		return errors.New("--upstream must contain at least one URL")
	}

	for i, upstream := range upstreams {
		if err := validateHTTPURL(upstream); err != nil {
			return fmt.Errorf("invalid upstream URL at position %d: %w", i+1, err)
		}
	}

	if strings.TrimSpace(c.LocalPath) == "" {
		return errors.New("--local is required")
	}

	if c.MinEntries < 0 {
		return fmt.Errorf("min entries must not be negative, got %d", c.MinEntries)
	}

	if c.FetchTimeout <= 0 {
		return errors.New("fetch timeout must be positive")
	}

	for i, candidate := range c.CandidateURLs {
		if _, err := url.Parse(candidate); err != nil {
			return fmt.Errorf("invalid candidate URL at position %d: %w", i+1, err)
		}
	}

	if c.ProbeConcurrency < 1 {
		return errors.New("probe concurrency must be at least 1")
	}

	if c.ProbeTimeout <= 0 {
		return errors.New("probe timeout must be positive")
	}

	if c.DiscoveryTimeout < 0 {
		return errors.New("discovery timeout must not be negative")
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.LogFormat)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.RefreshInterval <= 0 {
		return errors.New("refresh interval must be positive")
	}

	return nil
}

// ListenAddr returns the full listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.Port)
}

// Upstreams returns the trimmed, non-empty upstream URLs. Entries may themselves
// be comma-separated lists.
func (c *Config) Upstreams() []string {
	result := make([]string, 0, len(c.UpstreamURLs))

	for _, value := range c.UpstreamURLs {
		for _, u := range strings.Split(value, ",") {
			u = strings.TrimSpace(u)
			if u != "" {
				result = append(result, u)
			}
		}
	}

	return result
}

// DiscoveryEnabled reports whether any candidate source is configured.
func (c *Config) DiscoveryEnabled() bool {
	return c.CuratedPath != "" || c.CandidatesPath != "" || len(c.CandidateURLs) > 0
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("missing host")
	}

	return nil
}
