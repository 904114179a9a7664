package reconcile

import (
	"context"

	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/curated"
	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/liveness"
	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/m3u"
	"github.com/sirupsen/logrus"
)

const groupTitleKey = "group-title"

// curatedLinks pairs a curated source with the links found on its page.
type curatedLinks struct {
	source curated.Source
	links  []string
}

// discover turns curated sources and generic candidate URLs into entries.
// Only URLs that pass the liveness check are kept. Identities already supplied
// by upstream are never claimed. Curated identities are assigned before
// provisional ones, and a probed URL whose provisional identity is taken is dropped.
func (r *Reconciler) discover(ctx context.Context, log logrus.FieldLogger, upstream, local *m3u.Playlist) *m3u.Playlist {
	discovered := m3u.NewPlaylist("")

	if r.deps.Checker == nil {
		return discovered
	}

	sources := r.loadSources(log)
	candidates := r.loadCandidates(log)

	if len(sources) == 0 && len(candidates) == 0 {
		return discovered
	}

	if r.opts.DiscoveryTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.opts.DiscoveryTimeout)
		defer cancel()
	}

	known := upstream.URLs()
	for url := range local.URLs() {
		known[url] = struct{}{}
	}

	pages := r.scrape(ctx, log, sources, upstream)

	generic := make([]string, 0, len(candidates))

	for _, url := range candidates {
		if _, ok := known[url]; !ok {
			generic = append(generic, url)
		}
	}

	probe := make([]string, 0, len(generic))
	for _, page := range pages {
		probe = append(probe, page.links...)
	}

	probe = append(probe, generic...)

	alive := r.deps.Checker.CheckAll(ctx, probe)

	namer := liveness.NewNamer(upstream.Identities()...)

	for _, page := range pages {
		identity := page.source.Identity()
		if namer.Taken(identity) {
			continue
		}

		for _, link := range page.links {
			if !alive.Has(link) {
				continue
			}

			namer.Reserve(identity)
			discovered.Add(m3u.Synthesize(identity, page.source.Name, link, r.groupAttribute()...))

			break
		}
	}

	// Local identities are reserved only now so that curated sources may refresh
	// their own entries from earlier runs while generic candidates never replace one.
	for _, identity := range local.Identities() {
		namer.Reserve(identity)
	}

	for _, url := range generic {
		if !alive.Has(url) {
			continue
		}

		identity, ok := namer.Assign(url)
		if !ok {
			log.WithFields(logrus.Fields{
				"url":      url,
				"identity": identity,
			}).Debug("Dropped probed URL with colliding identity")

			continue
		}

		discovered.Add(m3u.Synthesize(identity, identity, url, r.groupAttribute()...))
	}

	log.WithFields(logrus.Fields{
		"curated":    len(sources),
		"candidates": len(generic),
		"probed":     len(probe),
		"alive":      len(alive),
		"discovered": discovered.Len(),
	}).Info("Discovery finished")

	return discovered
}

func (r *Reconciler) scrape(ctx context.Context, log logrus.FieldLogger, sources []curated.Source, upstream *m3u.Playlist) []curatedLinks {
	if r.deps.Scraper == nil || len(sources) == 0 {
		return nil
	}

	pages := make([]curatedLinks, 0, len(sources))

	for _, source := range sources {
		if ctx.Err() != nil {
			break
		}

		if upstream.Has(source.Identity()) {
			continue
		}

		links, err := r.deps.Scraper.Links(ctx, source.PageURL)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"source": source.Name,
				"page":   source.PageURL,
			}).Warn("Failed to scrape curated source")

			continue
		}

		if len(links) > 0 {
			pages = append(pages, curatedLinks{source: source, links: links})
		}
	}

	return pages
}

func (r *Reconciler) loadSources(log logrus.FieldLogger) []curated.Source {
	if r.opts.CuratedPath == "" {
		return nil
	}

	sources, err := curated.Load(r.opts.CuratedPath)
	if err != nil {
		log.WithError(err).WithField("path", r.opts.CuratedPath).Warn("Continuing without curated sources")

		return nil
	}

	return sources
}

func (r *Reconciler) loadCandidates(log logrus.FieldLogger) []string {
	candidates := append([]string{}, r.opts.Candidates...)

	if r.opts.CandidatesPath != "" {
		fromFile, err := curated.LoadCandidates(r.opts.CandidatesPath)
		if err != nil {
			log.WithError(err).WithField("path", r.opts.CandidatesPath).Warn("Continuing without candidates file")
		} else {
			candidates = append(candidates, fromFile...)
		}
	}

	return candidates
}

func (r *Reconciler) groupAttribute() []m3u.Attribute {
	if r.opts.DiscoveredGroup == "" {
		return nil
	}

	return []m3u.Attribute{{Key: groupTitleKey, Value: r.opts.DiscoveredGroup}}
}
