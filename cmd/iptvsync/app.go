package main

import (
	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/curated"
	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/data"
	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/history"
	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/liveness"
	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/m3u"
	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/metrics"
	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/reconcile"
	"github.com/sirupsen/logrus"
)

// app wires the reconciler and its collaborators from the loaded config.
type app struct {
	store      *data.LocalStore
	reconciler *reconcile.Reconciler
	status     *reconcile.Status
	metrics    *metrics.Metrics
	history    *history.Store
}

func newApp() *app {
	a := &app{
		store:   data.NewLocalStore(cfg.LocalPath),
		status:  reconcile.NewStatus(),
		metrics: metrics.New(),
	}

	if cfg.HistoryPath != "" {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			log.WithError(err).WithField("path", cfg.HistoryPath).Warn("Run history disabled")
		} else {
			a.history = store
		}
	}

	fetcher := data.NewFetcher(log, cfg.UserAgent, cfg.FetchTimeout)

	deps := reconcile.Deps{
		Fetcher:   fetcher,
		Store:     a.store,
		Parser:    m3u.NewParser(cfg.Schemes...),
		Observers: []reconcile.Observer{a.status, a.metrics},
	}

	if a.history != nil {
		deps.History = a.history
	}

	if cfg.MetricsPath != "" {
		deps.Observers = append(deps.Observers, &textfileWriter{log: log, metrics: a.metrics, path: cfg.MetricsPath})
	}

	if cfg.DiscoveryEnabled() {
		prober := liveness.NewHTTPProber(nil, cfg.UserAgent)
		deps.Checker = liveness.NewChecker(log, prober, liveness.Options{
			Concurrency: cfg.ProbeConcurrency,
			Timeout:     cfg.ProbeTimeout,
			Recorder:    a.metrics,
		})
		deps.Scraper = curated.NewScraper(log, fetcher.Client(), cfg.UserAgent)
	}

	a.reconciler = reconcile.New(log, reconcile.Options{
		Upstreams:        cfg.Upstreams(),
		MinEntries:       cfg.MinEntries,
		DryRun:           cfg.DryRun,
		CuratedPath:      cfg.CuratedPath,
		CandidatesPath:   cfg.CandidatesPath,
		Candidates:       cfg.CandidateURLs,
		DiscoveryTimeout: cfg.DiscoveryTimeout,
		DiscoveredGroup:  cfg.DiscoveredGroup,
	}, deps)

	return a
}

func (a *app) Close() {
	if err := a.history.Close(); err != nil {
		log.WithError(err).Warn("Failed to close run history")
	}
}

// textfileWriter refreshes the node-exporter textfile after every run.
type textfileWriter struct {
	log     logrus.FieldLogger
	metrics *metrics.Metrics
	path    string
}

func (w *textfileWriter) ObserveRun(*reconcile.Report) {
	if err := w.metrics.WriteTextfile(w.path); err != nil {
		w.log.WithError(err).WithField("path", w.path).Warn("Failed to write metrics textfile")
	}
}
