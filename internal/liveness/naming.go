package liveness

import (
	"net/url"
	"path"
	"strings"

	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/m3u"
)

// GenericLabel names a stream whose URL path yields nothing usable.
const GenericLabel = m3u.UnnamedLabel

// ProvisionalIdentity derives an identity from the last path segment of rawURL,
// without its extension, normalized the way it reads back from a playlist.
func ProvisionalIdentity(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}

	p = strings.TrimRight(p, "/")
	if p == "" {
		return GenericLabel
	}

	segment := path.Base(p)
	if unescaped, err := url.PathUnescape(segment); err == nil {
		segment = unescaped
	}

	name := strings.TrimSpace(strings.TrimSuffix(segment, path.Ext(segment)))
	if name == "" || name == "." || name == "/" {
		return GenericLabel
	}

	return m3u.CleanIdentity(name)
}

// Namer hands out identities for candidate streams. Reserved identities always
// win: a candidate whose identity is already taken is rejected.
type Namer struct {
	taken map[string]struct{}
}

// NewNamer creates a namer with the given identities already taken.
func NewNamer(reserved ...string) *Namer {
	n := &Namer{taken: make(map[string]struct{}, len(reserved))}

	for _, id := range reserved {
		n.Reserve(id)
	}

	return n
}

// Reserve claims identity. It returns false if the identity was already taken.
func (n *Namer) Reserve(identity string) bool {
	if _, ok := n.taken[identity]; ok {
		return false
	}

	n.taken[identity] = struct{}{}

	return true
}

// Taken reports whether identity has been claimed.
func (n *Namer) Taken(identity string) bool {
	_, ok := n.taken[identity]

	return ok
}

// Assign claims the provisional identity of rawURL. It returns false when that
// identity belongs to someone else, in which case the URL should be dropped.
func (n *Namer) Assign(rawURL string) (string, bool) {
	identity := ProvisionalIdentity(rawURL)

	return identity, n.Reserve(identity)
}
