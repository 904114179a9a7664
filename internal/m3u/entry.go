package m3u

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	headerTag    = "#EXTM3U"
	entryTag     = "#EXTINF"
	directiveTag = "#"

	attrTVGID    = "tvg-id"
	attrTVGName  = "tvg-name"
	attrTVGLogo  = "tvg-logo"
	attrGroup    = "group-title"
	noGroupLabel = "(no group)"
)

// UnnamedLabel is the identity of a stream that offers nothing usable to name it by.
const UnnamedLabel = "Unnamed Stream"

// Attribute is one key="value" pair from an #EXTINF line.
type Attribute struct {
	Key   string
	Value string
}

// Entry represents a single channel entry in an M3U playlist.
// Entries are values: replacing a channel means replacing its Entry.
type Entry struct {
	Identity    string
	DisplayName string
	Attributes  []Attribute
	// Directives holds the trimmed metadata lines in source order, #EXTINF first.
	Directives []string
	URL        string
}

// Attribute returns the value of the named attribute, or "" if absent.
func (e Entry) Attribute(key string) string {
	for _, attr := range e.Attributes {
		if strings.EqualFold(attr.Key, key) {
			return attr.Value
		}
	}

	return ""
}

// TVGID returns the tvg-id attribute.
func (e Entry) TVGID() string {
	return e.Attribute(attrTVGID)
}

// Logo returns the tvg-logo attribute.
func (e Entry) Logo() string {
	return e.Attribute(attrTVGLogo)
}

// Group returns the group-title attribute.
func (e Entry) Group() string {
	return e.Attribute(attrGroup)
}

// MetadataLine returns the directive lines joined by newlines.
func (e Entry) MetadataLine() string {
	return strings.Join(e.Directives, "\n")
}

// Block returns the serialized form of the entry: its directives followed by the URL.
func (e Entry) Block() string {
	if len(e.Directives) == 0 {
		return e.URL
	}

	return e.MetadataLine() + "\n" + e.URL
}

// Equal reports whether two entries serialize identically.
func (e Entry) Equal(other Entry) bool {
	return e.Block() == other.Block()
}

// Synthesize builds an entry for a stream that has no metadata of its own.
// The generated #EXTINF line carries identity as tvg-id. Identity and name are
// normalized first, so the returned entry parses back from its block unchanged.
func Synthesize(identity, name, url string, attrs ...Attribute) Entry {
	identity = CleanIdentity(identity)

	name = collapseText(name)
	if name == "" {
		name = identity
	}

	all := make([]Attribute, 0, len(attrs)+2)
	all = append(all, Attribute{Key: attrTVGID, Value: identity}, Attribute{Key: attrTVGName, Value: attributeText(name)})

	for _, attr := range attrs {
		if strings.EqualFold(attr.Key, attrTVGID) || strings.EqualFold(attr.Key, attrTVGName) {
			continue
		}

		all = append(all, Attribute{Key: attr.Key, Value: attributeText(attr.Value)})
	}

	var sb strings.Builder

	sb.WriteString(entryTag + ":-1")

	for _, attr := range all {
		sb.WriteString(fmt.Sprintf(` %s="%s"`, attr.Key, attr.Value))
	}

	sb.WriteString("," + name)

	return Entry{
		Identity:    identity,
		DisplayName: name,
		Attributes:  all,
		Directives:  []string{sb.String()},
		URL:         url,
	}
}

// Playlist is an ordered mapping from identity to Entry plus the leading header line.
type Playlist struct {
	Header string
	// Skipped counts metadata blocks the parser could not resolve to an entry.
	Skipped int

	order   []string
	entries map[string]Entry
}

// NewPlaylist creates an empty playlist.
func NewPlaylist(header string) *Playlist {
	return &Playlist{
		Header:  header,
		order:   make([]string, 0, 100),
		entries: make(map[string]Entry, 100),
	}
}

// Add inserts an entry. An existing entry with the same identity is replaced
// in place and keeps its original position.
// Add is meant for building a playlist; parsed and merged playlists are not modified afterwards.
func (p *Playlist) Add(entry Entry) {
	if _, exists := p.entries[entry.Identity]; !exists {
		p.order = append(p.order, entry.Identity)
	}

	p.entries[entry.Identity] = entry
}

// Len returns the number of entries.
func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}

	return len(p.order)
}

// Get returns the entry for identity.
func (p *Playlist) Get(identity string) (Entry, bool) {
	if p == nil {
		return Entry{}, false
	}

	entry, ok := p.entries[identity]

	return entry, ok
}

// Has reports whether identity is present.
func (p *Playlist) Has(identity string) bool {
	_, ok := p.Get(identity)

	return ok
}

// Identities returns the identities in insertion order.
func (p *Playlist) Identities() []string {
	if p == nil {
		return nil
	}

	ids := make([]string, len(p.order))
	copy(ids, p.order)

	return ids
}

// Entries returns the entries in insertion order.
func (p *Playlist) Entries() []Entry {
	if p == nil {
		return nil
	}

	entries := make([]Entry, 0, len(p.order))

	for _, id := range p.order {
		entries = append(entries, p.entries[id])
	}

	return entries
}

// URLs returns the set of stream URLs in the playlist.
func (p *Playlist) URLs() map[string]struct{} {
	urls := make(map[string]struct{}, p.Len())

	for _, entry := range p.Entries() {
		urls[entry.URL] = struct{}{}
	}

	return urls
}

// GroupCounts returns the number of entries per group-title, in first-seen order.
func (p *Playlist) GroupCounts() ([]string, map[string]int) {
	groups := make([]string, 0, 32)
	counts := make(map[string]int, 32)

	for _, entry := range p.Entries() {
		group := entry.Group()
		if group == "" {
			group = noGroupLabel
		}

		if _, seen := counts[group]; !seen {
			groups = append(groups, group)
		}

		counts[group]++
	}

	return groups, counts
}

// CleanIdentity returns identity in the form it takes after a render and parse
// round trip: control characters become spaces, runs of whitespace collapse,
// double quotes become single quotes. An empty result yields UnnamedLabel.
func CleanIdentity(identity string) string {
	if cleaned := attributeText(identity); cleaned != "" {
		return cleaned
	}

	return UnnamedLabel
}

func attributeText(s string) string {
	return strings.ReplaceAll(collapseText(s), `"`, "'")
}

// collapseText keeps s on one line.
func collapseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}), " ")
}
