// Package main is the entry point for the playlist reconciler.
package main

import (
	"os"

	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/cli"
	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	cfg        = config.DefaultConfig()
	log        = logrus.New()
	configPath string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "iptvsync",
		Short: "Reconcile a local M3U playlist against its upstream sources",
		Long: `Fetches the upstream playlist, merges it into the local playlist file and
writes the result atomically. Entries that exist only locally are always kept.

Optionally probes curated sources and candidate stream URLs and adds the ones
that respond.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
		RunE:              runOnce,
	}

	flags := rootCmd.PersistentFlags()

	flags.StringVar(&configPath, "config", "", "Path to a YAML or TOML config file")

	// Source flags
	flags.StringSliceVar(&cfg.UpstreamURLs, "upstream", cfg.UpstreamURLs, "Upstream playlist URL (repeatable, earlier wins)")
	flags.StringVar(&cfg.LocalPath, "local", cfg.LocalPath, "Local playlist file")
	flags.IntVar(&cfg.MinEntries, "min-entries", cfg.MinEntries, "Minimum upstream entries required before writing")
	flags.StringSliceVar(&cfg.Schemes, "scheme", cfg.Schemes, "Accepted stream URL scheme (repeatable, replaces the defaults)")
	flags.StringVar(&cfg.UserAgent, "user-agent", cfg.UserAgent, "User-Agent for upstream, page and probe requests")
	flags.DurationVar(&cfg.FetchTimeout, "fetch-timeout", cfg.FetchTimeout, "Timeout for each upstream fetch")

	// Discovery flags
	flags.StringVar(&cfg.CuratedPath, "curated", cfg.CuratedPath, "JSON file of curated sources")
	flags.StringVar(&cfg.CandidatesPath, "candidates-file", cfg.CandidatesPath, "File of candidate stream URLs, one per line")
	flags.StringSliceVar(&cfg.CandidateURLs, "candidate", cfg.CandidateURLs, "Candidate stream URL (repeatable)")
	flags.IntVar(&cfg.ProbeConcurrency, "probe-concurrency", cfg.ProbeConcurrency, "Maximum liveness probes in flight")
	flags.DurationVar(&cfg.ProbeTimeout, "probe-timeout", cfg.ProbeTimeout, "Timeout for each liveness probe")
	flags.DurationVar(&cfg.DiscoveryTimeout, "discovery-timeout", cfg.DiscoveryTimeout, "Overall discovery deadline (0 disables)")
	flags.StringVar(&cfg.DiscoveredGroup, "discovered-group", cfg.DiscoveredGroup, "group-title for discovered entries")

	// Reporting flags
	flags.StringVar(&cfg.HistoryPath, "history", cfg.HistoryPath, "SQLite file recording every run")
	flags.StringVar(&cfg.MetricsPath, "metrics-file", cfg.MetricsPath, "Write Prometheus metrics to this textfile after each run")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")

	rootCmd.Flags().BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Print the diff instead of writing the local playlist")

	rootCmd.AddCommand(newServeCommand(), newHistoryCommand())

	return rootCmd
}

// loadConfig applies the config file, then re-applies every flag set on the
// command line so that flags take precedence over file values.
func loadConfig(cmd *cobra.Command, _ []string) error {
	if configPath != "" {
		type override struct {
			flag   *pflag.Flag
			scalar string
			slice  []string
		}

		var overrides []override

		cmd.Flags().Visit(func(f *pflag.Flag) {
			o := override{flag: f}

			if sv, ok := f.Value.(pflag.SliceValue); ok {
				o.slice = sv.GetSlice()
			} else {
				o.scalar = f.Value.String()
			}

			overrides = append(overrides, o)
		})

		if err := config.LoadFile(configPath, cfg); err != nil {
			return err
		}

		for _, o := range overrides {
			var err error

			if sv, ok := o.flag.Value.(pflag.SliceValue); ok {
				err = sv.Replace(o.slice)
			} else {
				err = o.flag.Value.Set(o.scalar)
			}

			if err != nil {
				return err
			}
		}
	}

	if err := cli.ConfigureLogger(log, cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	return cfg.Validate()
}
