// Package merge reconciles an upstream playlist with a previously persisted local one.
package merge

import (
	"errors"
	"fmt"

	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/m3u"
)

// ErrBelowThreshold is returned by CheckSanity when upstream has too few entries to be trusted.
var ErrBelowThreshold = errors.New("upstream playlist below minimum entry threshold")

// Result holds the merged playlist and the change summary of one reconciliation.
type Result struct {
	Playlist *m3u.Playlist
	// Added lists identities new to the local playlist, in upstream order.
	Added []string
	// Updated lists identities whose serialized entry changed, in upstream order.
	Updated []string
	// Preserved lists local-only identities kept unchanged, in local order.
	Preserved []string
	// UpstreamCount is the number of entries upstream supplied.
	UpstreamCount int
}

// Merge combines upstream and local. Every local entry survives unless upstream
// supplies the same identity, in which case the upstream entry wins.
// The merged order is upstream's order followed by local-only entries in local order.
func Merge(upstream, local *m3u.Playlist) *Result {
	header := ""
	if upstream != nil {
		header = upstream.Header
	}

	if header == "" && local != nil {
		header = local.Header
	}

	result := &Result{
		Playlist:      m3u.NewPlaylist(header),
		Added:         make([]string, 0),
		Updated:       make([]string, 0),
		Preserved:     make([]string, 0),
		UpstreamCount: upstream.Len(),
	}

	// Upstream owns every identity it supplies.
	for _, entry := range upstream.Entries() {
		existing, known := local.Get(entry.Identity)

		switch {
		case !known:
			result.Added = append(result.Added, entry.Identity)
		case !existing.Equal(entry):
			result.Updated = append(result.Updated, entry.Identity)
		}

		result.Playlist.Add(entry)
	}

	for _, entry := range local.Entries() {
		if upstream.Has(entry.Identity) {
			continue
		}

		result.Preserved = append(result.Preserved, entry.Identity)
		result.Playlist.Add(entry)
	}

	return result
}

// CheckSanity returns ErrBelowThreshold when upstream supplied fewer than minEntries entries.
func (r *Result) CheckSanity(minEntries int) error {
	return CheckSanity(r.UpstreamCount, minEntries)
}

// CheckSanity returns ErrBelowThreshold when count is below minEntries.
func CheckSanity(count, minEntries int) error {
	if count < minEntries {
		return fmt.Errorf("%w: got %d entries, need at least %d", ErrBelowThreshold, count, minEntries)
	}

	return nil
}

// Changed reports whether the merge altered the local playlist's entries.
func (r *Result) Changed() bool {
	return len(r.Added) > 0 || len(r.Updated) > 0
}

// Extend returns a new playlist holding every entry of base followed by the
// entries of extra whose identity base does not already have. base always wins.
func Extend(base, extra *m3u.Playlist) *m3u.Playlist {
	header := ""
	if base != nil {
		header = base.Header
	}

	if header == "" && extra != nil {
		header = extra.Header
	}

	combined := m3u.NewPlaylist(header)

	for _, entry := range base.Entries() {
		combined.Add(entry)
	}

	for _, entry := range extra.Entries() {
		if combined.Has(entry.Identity) {
			continue
		}

		combined.Add(entry)
	}

	return combined
}
