package m3u

import "strings"

// Render generates playlist text. The header is written exactly once, followed by
// every entry's directives and URL, with a blank line between entries.
func Render(p *Playlist) string {
	var sb strings.Builder

	header := headerTag
	if p != nil && isHeader(p.Header) {
		header = p.Header
	}

	sb.WriteString(header + "\n")

	entries := p.Entries()

	for i, entry := range entries {
		sb.WriteString(entry.Block() + "\n")

		if i < len(entries)-1 {
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
