// Package m3u provides tolerant parsing and rendering of M3U playlist files.
package m3u

import (
	"regexp"
	"strings"
)

// LookaheadWindow is how many non-blank lines after a metadata block are searched for its URL.
const LookaheadWindow = 5

// DefaultSchemes are the URL prefixes accepted as stream endpoints.
var DefaultSchemes = []string{
	"http://",
	"https://",
	"rtmp://",
	"rtmps://",
	"rtsp://",
	"rtp://",
	"udp://",
	"mms://",
	"acestream://",
}

var attributePattern = regexp.MustCompile(`([A-Za-z0-9_.:-]+)="([^"]*)"`)

var defaultParser = NewParser()

// Parser turns playlist text into a Playlist. The zero value accepts no URLs; use NewParser.
type Parser struct {
	Schemes []string
}

// NewParser creates a parser accepting the given URL schemes, or DefaultSchemes if none are given.
func NewParser(schemes ...string) *Parser {
	if len(schemes) == 0 {
		schemes = DefaultSchemes
	}

	normalized := make([]string, 0, len(schemes))

	for _, scheme := range schemes {
		scheme = strings.ToLower(strings.TrimSpace(scheme))
		if scheme == "" {
			continue
		}

		if !strings.Contains(scheme, "://") {
			scheme = strings.TrimSuffix(scheme, ":") + "://"
		}

		normalized = append(normalized, scheme)
	}

	return &Parser{Schemes: normalized}
}

// Parse parses playlist text with the default schemes.
func Parse(text string) *Playlist {
	return defaultParser.Parse(text)
}

// Parse extracts entries from playlist text. It never fails: metadata blocks that
// cannot be resolved to an entry are skipped and counted in Playlist.Skipped.
func (p *Parser) Parse(text string) *Playlist {
	lines := splitLines(text)
	playlist := NewPlaylist("")

	cursor := 0
	for cursor < len(lines) {
		line := lines[cursor]

		switch {
		case isHeader(line):
			if playlist.Header == "" && playlist.Len() == 0 {
				playlist.Header = line
			}

			cursor++
		case isEntryDirective(line):
			entry, next, ok := p.resolveBlock(lines, cursor)
			if ok {
				playlist.Add(entry)
			} else {
				playlist.Skipped++
			}

			cursor = next
		default:
			// Blank lines, stray URLs and unknown text outside a block.
			cursor++
		}
	}

	return playlist
}

// resolveBlock collects the metadata block starting at lines[start] and searches
// forward for its URL. It returns the index to resume scanning from.
func (p *Parser) resolveBlock(lines []string, start int) (Entry, int, bool) {
	directives := []string{lines[start]}
	budget := LookaheadWindow

	for i := start + 1; i < len(lines); i++ {
		line := lines[i]

		switch {
		case line == "":
			continue
		case isEntryDirective(line):
			// The next block starts before this one found a URL.
			return Entry{}, i, false
		case p.isURL(line):
			entry, ok := newEntry(directives, line)

			return entry, i + 1, ok
		case strings.HasPrefix(line, directiveTag) && !isHeader(line):
			// Only directives directly after the block belong to it.
			if budget == LookaheadWindow {
				directives = append(directives, line)
			}
		default:
			budget--
			if budget == 0 {
				return Entry{}, i + 1, false
			}
		}
	}

	return Entry{}, len(lines), false
}

func (p *Parser) isURL(line string) bool {
	for _, scheme := range p.Schemes {
		if hasPrefixFold(line, scheme) {
			return true
		}
	}

	return false
}

func newEntry(directives []string, url string) (Entry, bool) {
	head, label := splitDirective(directives[0])
	attrs := extractAttributes(head)

	entry := Entry{
		Attributes: attrs,
		Directives: directives,
		URL:        url,
	}

	tvgID := strings.TrimSpace(entry.Attribute(attrTVGID))
	tvgName := strings.TrimSpace(entry.Attribute(attrTVGName))

	switch {
	case tvgID != "":
		entry.Identity = tvgID
	case tvgName != "":
		entry.Identity = tvgName
	case label != "":
		entry.Identity = label
	default:
		return Entry{}, false
	}

	switch {
	case label != "":
		entry.DisplayName = label
	case tvgName != "":
		entry.DisplayName = tvgName
	default:
		entry.DisplayName = entry.Identity
	}

	return entry, true
}

// splitDirective splits an #EXTINF line at the first comma outside quotes into
// the duration/attribute head and the trimmed display label.
func splitDirective(line string) (string, string) {
	inQuotes := false

	for i, r := range line {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if !inQuotes {
				return line[:i], strings.TrimSpace(line[i+1:])
			}
		}
	}

	return line, ""
}

func extractAttributes(head string) []Attribute {
	matches := attributePattern.FindAllStringSubmatch(head, -1)
	attrs := make([]Attribute, 0, len(matches))

	for _, m := range matches {
		attrs = append(attrs, Attribute{Key: m[1], Value: m[2]})
	}

	return attrs
}

func splitLines(text string) []string {
	raw := strings.Split(strings.TrimPrefix(text, "\ufeff"), "\n")
	lines := make([]string, len(raw))

	for i, line := range raw {
		lines[i] = strings.TrimSpace(line)
	}

	return lines
}

func isHeader(line string) bool {
	return hasPrefixFold(line, headerTag)
}

func isEntryDirective(line string) bool {
	return hasPrefixFold(line, entryTag)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
