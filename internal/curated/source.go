// Package curated loads hand-maintained channel sources and extracts stream
// links from their web pages.
package curated

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/m3u"
)

// Source is a channel whose stream link is published on a web page.
type Source struct {
	Name       string `json:"name"`
	PageURL    string `json:"pageURL"`
	Identifier string `json:"identifier"`
}

// Identity returns the playlist identity of the source: the identifier, falling
// back to the name.
func (s Source) Identity() string {
	id := strings.TrimSpace(s.Identifier)
	if id == "" {
		id = strings.TrimSpace(s.Name)
	}

	if id == "" {
		return ""
	}

	return m3u.CleanIdentity(id)
}

// Load reads a JSON array of sources. Records without a name or page URL are skipped.
func Load(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curated sources: %w", err)
	}

	var raw []Source
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode curated sources: %w", err)
	}

	sources := make([]Source, 0, len(raw))

	for _, s := range raw {
		s.Name = strings.TrimSpace(s.Name)
		s.PageURL = strings.TrimSpace(s.PageURL)

		if s.Name == "" || s.PageURL == "" {
			continue
		}

		sources = append(sources, s)
	}

	return sources, nil
}

// LoadCandidates reads one URL per line. Blank lines and lines starting with # are ignored.
func LoadCandidates(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidates: %w", err)
	}

	var urls []string

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		urls = append(urls, line)
	}

	return urls, nil
}
