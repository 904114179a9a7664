package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	Upstreams    []string      `yaml:"upstreams" toml:"upstreams"`
	Local        string        `yaml:"local" toml:"local"`
	MinEntries   *int          `yaml:"min_entries" toml:"min_entries"`
	Schemes      []string      `yaml:"schemes" toml:"schemes"`
	UserAgent    string        `yaml:"user_agent" toml:"user_agent"`
	FetchTimeout string        `yaml:"fetch_timeout" toml:"fetch_timeout"`
	Discovery    fileDiscovery `yaml:"discovery" toml:"discovery"`
	History      string        `yaml:"history" toml:"history"`
	MetricsFile  string        `yaml:"metrics_file" toml:"metrics_file"`
	Log          fileLog       `yaml:"log" toml:"log"`
	Server       fileServer    `yaml:"server" toml:"server"`
}

type fileDiscovery struct {
	Curated        string   `yaml:"curated" toml:"curated"`
	CandidatesFile string   `yaml:"candidates_file" toml:"candidates_file"`
	Candidates     []string `yaml:"candidates" toml:"candidates"`
	Concurrency    int      `yaml:"concurrency" toml:"concurrency"`
	ProbeTimeout   string   `yaml:"probe_timeout" toml:"probe_timeout"`
	Timeout        string   `yaml:"timeout" toml:"timeout"`
	Group          string   `yaml:"group" toml:"group"`
}

type fileLog struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

type fileServer struct {
	Bind    string `yaml:"bind" toml:"bind"`
	Port    int    `yaml:"port" toml:"port"`
	Refresh string `yaml:"refresh" toml:"refresh"`
}

// LoadFile reads a YAML (.yaml, .yml) or TOML (.toml) file and applies every
// value it sets onto cfg. Values absent from the file keep their current setting.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var f fileConfig

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}

	return f.apply(cfg)
}

func (f *fileConfig) apply(cfg *Config) error {
	if len(f.Upstreams) > 0 {
		cfg.UpstreamURLs = f.Upstreams
	}

	setString(&cfg.LocalPath, f.Local)

	if f.MinEntries != nil {
		cfg.MinEntries = *f.MinEntries
	}

	if len(f.Schemes) > 0 {
		cfg.Schemes = f.Schemes
	}

	setString(&cfg.UserAgent, f.UserAgent)

	durations := []struct {
		name   string
		value  string
		target *time.Duration
	}{
		{"fetch_timeout", f.FetchTimeout, &cfg.FetchTimeout},
		{"discovery.probe_timeout", f.Discovery.ProbeTimeout, &cfg.ProbeTimeout},
		{"discovery.timeout", f.Discovery.Timeout, &cfg.DiscoveryTimeout},
		{"server.refresh", f.Server.Refresh, &cfg.RefreshInterval},
	}

	for _, d := range durations {
		if d.value == "" {
			continue
		}

		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}

		*d.target = parsed
	}

	setString(&cfg.CuratedPath, f.Discovery.Curated)
	setString(&cfg.CandidatesPath, f.Discovery.CandidatesFile)

	if len(f.Discovery.Candidates) > 0 {
		cfg.CandidateURLs = f.Discovery.Candidates
	}

	if f.Discovery.Concurrency != 0 {
		cfg.ProbeConcurrency = f.Discovery.Concurrency
	}

	setString(&cfg.DiscoveredGroup, f.Discovery.Group)
	setString(&cfg.HistoryPath, f.History)
	setString(&cfg.MetricsPath, f.MetricsFile)
	setString(&cfg.LogLevel, f.Log.Level)
	setString(&cfg.LogFormat, f.Log.Format)
	setString(&cfg.BindAddr, f.Server.Bind)

	if f.Server.Port != 0 {
		cfg.Port = f.Server.Port
	}

	return nil
}

func setString(target *string, value string) {
	if value != "" {
		*target = value
	}
}
