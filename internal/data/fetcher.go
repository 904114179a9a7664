// Package data fetches upstream playlists and persists the local playlist file.
package data

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodySize    = 64 * 1024 * 1024 // 64MB is far beyond any real playlist
)

// StatusError reports a non-200 response from an upstream.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

// Fetcher downloads playlist text from remote URLs.
type Fetcher struct {
	log        logrus.FieldLogger
	httpClient *http.Client
	userAgent  string
}

// NewFetcher creates a new fetcher. A non-positive timeout uses the default.
func NewFetcher(log logrus.FieldLogger, userAgent string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Fetcher{
		log: log.WithField("component", "fetcher"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// Client returns the underlying HTTP client so other components can share its settings.
func (f *Fetcher) Client() *http.Client {
	return f.httpClient
}

// FetchAll fetches every URL in order. The first failure aborts.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) ([]string, error) {
	texts := make([]string, 0, len(urls))

	for i, url := range urls {
		f.log.WithFields(logrus.Fields{
			"url":      url,
			"priority": i + 1,
			"total":    len(urls),
		}).Info("Fetching upstream playlist")

		text, err := f.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}

		texts = append(texts, text)
	}

	return texts, nil
}

// Fetch downloads url and returns the body as text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	// Accept gzip encoding
	req.Header.Set("Accept-Encoding", "gzip")

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	var reader io.Reader = resp.Body

	// Handle gzip encoding
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gzReader, gzErr := gzip.NewReader(resp.Body)
		if gzErr != nil {
			return "", fmt.Errorf("failed to create gzip reader: %w", gzErr)
		}
		defer gzReader.Close()

		reader = gzReader
	}

	limitedReader := io.LimitReader(reader, maxBodySize)

	data, err := io.ReadAll(limitedReader)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	f.log.WithFields(logrus.Fields{
		"url":  url,
		"size": len(data),
	}).Debug("Fetched data")

	return string(data), nil
}
