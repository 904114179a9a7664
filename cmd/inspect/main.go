// Package main provides a CLI tool for debugging playlist parsing and merging.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/cli"
	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/data"
	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/m3u"
	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/merge"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	playlistPath string
	againstPath  string
	limit        int
	logLevel     string
	log          = logrus.New()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Debug playlist parsing and merging",
		Long: `A debugging tool to analyze how a playlist parses and how it would merge.

Outputs detailed information about:
- Which entries were recognized and under which identity
- How many metadata blocks were discarded
- Entries per group
- With --against, what a merge into that playlist would add, update and preserve

Examples:
  # Using a local file
  go run ./cmd/inspect --playlist iptv.m3u

  # Preview merging an upstream URL into the local file
  go run ./cmd/inspect --playlist https://example.com/playlist.m3u --against iptv.m3u`,
		RunE: run,
	}

	rootCmd.Flags().StringVar(&playlistPath, "playlist", "", "Path or URL to the playlist (required)")
	rootCmd.Flags().StringVar(&againstPath, "against", "", "Path or URL to a local playlist to preview a merge into")
	rootCmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries to list (0 lists all)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	if err := rootCmd.MarkFlagRequired("playlist"); err != nil {
		log.WithError(err).Fatal("Failed to mark playlist flag as required")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadPlaylist fetches a playlist from a URL or reads it from a local file.
func loadPlaylist(ctx context.Context, path string) (*m3u.Playlist, error) {
	log.WithField("source", path).Info("Loading playlist")

	var text string

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		fetched, err := data.NewFetcher(log, "", time.Minute).Fetch(ctx, path)
		if err != nil {
			return nil, err
		}

		text = fetched
	} else {
		read, err := data.NewLocalStore(path).Read()
		if err != nil {
			return nil, err
		}

		text = read
	}

	playlist := m3u.Parse(text)

	log.WithFields(logrus.Fields{
		"entries": playlist.Len(),
		"skipped": playlist.Skipped,
	}).Info("Parsed playlist")

	return playlist, nil
}

func run(cmd *cobra.Command, _ []string) error {
	if err := cli.ConfigureLogger(log, logLevel, "text"); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	playlist, err := loadPlaylist(ctx, playlistPath)
	if err != nil {
		return fmt.Errorf("failed to load playlist: %w", err)
	}

	out := cmd.OutOrStdout()

	printEntries(out, playlist)
	printGroups(out, playlist)

	if againstPath == "" {
		return nil
	}

	local, err := loadPlaylist(ctx, againstPath)
	if err != nil {
		return fmt.Errorf("failed to load local playlist: %w", err)
	}

	printMerge(out, merge.Merge(playlist, local))

	return nil
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 80))
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", 80))
}

func printEntries(w io.Writer, playlist *m3u.Playlist) {
	section(w, fmt.Sprintf("ENTRIES (%d parsed, %d discarded)", playlist.Len(), playlist.Skipped))

	if playlist.Header != "" {
		fmt.Fprintf(w, "Header: %s\n", playlist.Header)
	}

	entries := playlist.Entries()
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	rows := make([][]string, 0, len(entries))

	for _, entry := range entries {
		source := "label"

		switch {
		case entry.TVGID() != "":
			source = "tvg-id"
		case entry.Attribute("tvg-name") != "":
			source = "tvg-name"
		}

		rows = append(rows, []string{entry.Identity, source, entry.DisplayName, entry.Group(), entry.URL})
	}

	fmt.Fprintln(w, cli.RenderTable([]string{"Identity", "From", "Name", "Group", "URL"}, rows, nil))

	if shown := len(entries); shown < playlist.Len() {
		fmt.Fprintf(w, "... %d more entries (use --limit 0 to list all)\n", playlist.Len()-shown)
	}
}

func printGroups(w io.Writer, playlist *m3u.Playlist) {
	groups, counts := playlist.GroupCounts()

	section(w, fmt.Sprintf("GROUPS (%d)", len(groups)))

	rows := make([][]string, 0, len(groups))
	for _, group := range groups {
		rows = append(rows, []string{group, strconv.Itoa(counts[group])})
	}

	fmt.Fprintln(w, cli.RenderTable([]string{"Group", "Entries"}, rows, []cli.Alignment{cli.AlignLeft, cli.AlignRight}))
}

func printMerge(w io.Writer, result *merge.Result) {
	section(w, "MERGE PREVIEW")

	fmt.Fprintln(w, cli.RenderTable(
		[]string{"Result", "Entries"},
		[][]string{
			{"upstream", strconv.Itoa(result.UpstreamCount)},
			{"merged", strconv.Itoa(result.Playlist.Len())},
			{"added", strconv.Itoa(len(result.Added))},
			{"updated", strconv.Itoa(len(result.Updated))},
			{"preserved", strconv.Itoa(len(result.Preserved))},
		},
		[]cli.Alignment{cli.AlignLeft, cli.AlignRight},
	))

	lists := []struct {
		title string
		ids   []string
	}{
		{"ADDED", result.Added},
		{"UPDATED", result.Updated},
		{"PRESERVED (local only)", result.Preserved},
	}

	for _, list := range lists {
		if len(list.ids) == 0 {
			continue
		}

		fmt.Fprintf(w, "\n  [%s] (%d)\n", list.title, len(list.ids))

		for _, id := range list.ids {
			fmt.Fprintf(w, "    %s\n", id)
		}
	}
}
