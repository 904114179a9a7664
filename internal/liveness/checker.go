// Package liveness probes candidate stream URLs concurrently and keeps the ones that answer.
package liveness

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency = 10
	defaultTimeout     = 5 * time.Second
)

// Prober performs a single reachability check.
type Prober interface {
	Probe(ctx context.Context, url string) error
}

// Recorder receives probe outcomes, e.g. for metrics.
type Recorder interface {
	ObserveProbe(alive bool)
}

// Set is an unordered set of URLs.
type Set map[string]struct{}

// Has reports whether url is in the set.
func (s Set) Has(url string) bool {
	_, ok := s[url]

	return ok
}

// Sorted returns the URLs in lexical order.
func (s Set) Sorted() []string {
	urls := make([]string, 0, len(s))

	for url := range s {
		urls = append(urls, url)
	}

	sort.Strings(urls)

	return urls
}

// Options configures a Checker.
type Options struct {
	// Concurrency is the maximum number of probes in flight.
	Concurrency int
	// Timeout bounds every single probe.
	Timeout  time.Duration
	Recorder Recorder
}

// Checker probes URLs with bounded parallelism.
type Checker struct {
	log         logrus.FieldLogger
	prober      Prober
	concurrency int
	timeout     time.Duration
	recorder    Recorder
}

// NewChecker creates a new liveness checker.
func NewChecker(log logrus.FieldLogger, prober Prober, opts Options) *Checker {
	if opts.Concurrency < 1 {
		opts.Concurrency = defaultConcurrency
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	return &Checker{
		log:         log.WithField("component", "liveness"),
		prober:      prober,
		concurrency: opts.Concurrency,
		timeout:     opts.Timeout,
		recorder:    opts.Recorder,
	}
}

// CheckAll probes every URL and returns those that responded successfully.
// Failed probes are dropped without retry. When ctx is cancelled no new probes
// start, in-flight results are discarded and the URLs confirmed so far are returned.
func (c *Checker) CheckAll(ctx context.Context, urls []string) Set {
	alive := make(Set, len(urls))

	unique := dedupe(urls)
	if len(unique) == 0 {
		return alive
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)

	g.SetLimit(c.concurrency)

	for _, url := range unique {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			ok := c.probe(ctx, url)

			if c.recorder != nil {
				c.recorder.ObserveProbe(ok)
			}

			if ok && ctx.Err() == nil {
				mu.Lock()
				alive[url] = struct{}{}
				mu.Unlock()
			}

			return nil
		})
	}

	_ = g.Wait()

	c.log.WithFields(logrus.Fields{
		"candidates": len(unique),
		"alive":      len(alive),
		"cancelled":  ctx.Err() != nil,
	}).Info("Liveness check finished")

	return alive
}

// probe runs one check bounded by the per-probe timeout. The slot is held until
// the prober returns; a result arriving after the timeout counts as a failure.
func (c *Checker) probe(ctx context.Context, url string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.prober.Probe(probeCtx, url)

	if probeCtx.Err() != nil {
		c.log.WithError(probeCtx.Err()).WithField("url", url).Debug("Probe timed out")

		return false
	}

	if err != nil {
		c.log.WithError(err).WithField("url", url).Debug("Probe failed")

		return false
	}

	return true
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	unique := make([]string, 0, len(urls))

	for _, url := range urls {
		if url == "" {
			continue
		}

		if _, ok := seen[url]; ok {
			continue
		}

		seen[url] = struct{}{}
		unique = append(unique, url)
	}

	return unique
}

// HTTPProber checks a URL with a HEAD request, following redirects.
type HTTPProber struct {
	client    *http.Client
	userAgent string
}

// NewHTTPProber creates a prober. A nil client uses a default one.
func NewHTTPProber(client *http.Client, userAgent string) *HTTPProber {
	if client == nil {
		client = &http.Client{}
	}

	return &HTTPProber{
		client:    client,
		userAgent: userAgent,
	}
}

// Probe returns nil when url answers with a 2xx status. Servers that refuse HEAD
// are retried once with a single-byte ranged GET.
func (p *HTTPProber) Probe(ctx context.Context, url string) error {
	status, err := p.do(ctx, http.MethodHead, url)
	if err != nil {
		return err
	}

	if status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented {
		status, err = p.do(ctx, http.MethodGet, url)
		if err != nil {
			return err
		}
	}

	if status < 200 || status >= 300 {
		return fmt.Errorf("unexpected status code: %d", status)
	}

	return nil
}

func (p *HTTPProber) do(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}

	// The body is never read; only reachability matters.
	resp.Body.Close()

	return resp.StatusCode, nil
}
