package curated

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

const maxPageSize = 8 * 1024 * 1024

var (
	streamExtensions = []string{".m3u8", ".m3u", ".mpd"}

	// Absolute stream URLs embedded in inline scripts.
	scriptURLPattern = regexp.MustCompile(`https?://[^\s"'<>\\,;()]+\.(?:m3u8|m3u|mpd)(?:\?[^\s"'<>\\,;()]*)?`)

	linkSelector = "video[src], source[src], a[href], iframe[src], script"
)

// Scraper extracts stream links from static HTML pages.
type Scraper struct {
	log       logrus.FieldLogger
	client    *http.Client
	userAgent string
}

// NewScraper creates a scraper. A nil client uses a default one.
func NewScraper(log logrus.FieldLogger, client *http.Client, userAgent string) *Scraper {
	if client == nil {
		client = &http.Client{}
	}

	return &Scraper{
		log:       log.WithField("component", "scraper"),
		client:    client,
		userAgent: userAgent,
	}
}

// Links fetches pageURL and returns the stream URLs it references, resolved
// against the page, deduplicated and in document order.
func (s *Scraper) Links(ctx context.Context, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	links := ExtractLinks(doc, base)

	s.log.WithFields(logrus.Fields{
		"page":  pageURL,
		"links": len(links),
	}).Debug("Scraped page")

	return links, nil
}

// ExtractLinks collects stream URLs from a parsed document.
func ExtractLinks(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]struct{})
	links := make([]string, 0)

	add := func(raw string) {
		resolved, ok := resolve(base, raw)
		if !ok || !isStreamURL(resolved) {
			return
		}

		if _, dup := seen[resolved]; dup {
			return
		}

		seen[resolved] = struct{}{}
		links = append(links, resolved)
	}

	doc.Find(linkSelector).Each(func(_ int, sel *goquery.Selection) {
		switch goquery.NodeName(sel) {
		case "a":
			add(sel.AttrOr("href", ""))
		case "script":
			if src, ok := sel.Attr("src"); ok {
				add(src)

				return
			}

			for _, match := range scriptURLPattern.FindAllString(sel.Text(), -1) {
				add(match)
			}
		default:
			add(sel.AttrOr("src", ""))
		}
	})

	return links
}

func resolve(base *url.URL, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}

	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}

	abs.Fragment = ""

	return abs.String(), true
}

func isStreamURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	ext := strings.ToLower(path.Ext(u.Path))

	for _, candidate := range streamExtensions {
		if ext == candidate {
			return true
		}
	}

	return false
}
