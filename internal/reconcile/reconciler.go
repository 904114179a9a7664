// Package reconcile runs one reconciliation of the local playlist against its
// upstream sources: fetch, sanity check, discovery, merge and atomic write.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/liveness"
	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/m3u"
	"github.com/N10ne1337/IPTV-SHAREDMOD/internal/merge"
	"github.com/sirupsen/logrus"
)

// Fetcher downloads upstream playlist texts in order.
type Fetcher interface {
	FetchAll(ctx context.Context, urls []string) ([]string, error)
}

// Store persists the local playlist.
type Store interface {
	Read() (string, error)
	Write(text string) error
	Lock() (func() error, error)
}

// LinkScraper extracts stream links from a curated source page.
type LinkScraper interface {
	Links(ctx context.Context, pageURL string) ([]string, error)
}

// LivenessChecker probes candidate URLs and returns the reachable ones.
type LivenessChecker interface {
	CheckAll(ctx context.Context, urls []string) liveness.Set
}

// Recorder stores finished reports.
type Recorder interface {
	Record(ctx context.Context, report *Report) error
}

// Observer is notified of every finished report.
type Observer interface {
	ObserveRun(report *Report)
}

// Options configures a Reconciler.
type Options struct {
	Upstreams  []string
	MinEntries int
	DryRun     bool

	CuratedPath      string
	CandidatesPath   string
	Candidates       []string
	DiscoveryTimeout time.Duration
	DiscoveredGroup  string
}

// Deps are the collaborators of a Reconciler. Checker, Scraper, History and
// Observers are optional.
type Deps struct {
	Fetcher   Fetcher
	Store     Store
	Parser    *m3u.Parser
	Checker   LivenessChecker
	Scraper   LinkScraper
	History   Recorder
	Observers []Observer
}

// Reconciler performs reconciliation runs.
type Reconciler struct {
	log  logrus.FieldLogger
	opts Options
	deps Deps
	now  func() time.Time
}

// New creates a new reconciler.
func New(log logrus.FieldLogger, opts Options, deps Deps) *Reconciler {
	if deps.Parser == nil {
		deps.Parser = m3u.NewParser()
	}

	return &Reconciler{
		log:  log.WithField("component", "reconciler"),
		opts: opts,
		deps: deps,
		now:  time.Now,
	}
}

// Run performs one reconciliation. The returned report is never nil, also when
// the run fails. On any error the local file is left as it was.
func (r *Reconciler) Run(ctx context.Context) (*Report, error) {
	report := newReport(r.opts.DryRun, r.now())
	log := r.log.WithField("run", report.ID)

	log.WithFields(logrus.Fields{
		"upstreams": len(r.opts.Upstreams),
		"dry_run":   r.opts.DryRun,
	}).Info("Reconciliation started")

	err := r.run(ctx, log, report)
	report.finish(err, r.now())

	r.publish(ctx, log, report)

	return report, err
}

func (r *Reconciler) run(ctx context.Context, log logrus.FieldLogger, report *Report) error {
	unlock, err := r.deps.Store.Lock()
	if err != nil {
		return err
	}

	defer func() {
		if unlockErr := unlock(); unlockErr != nil {
			log.WithError(unlockErr).Warn("Failed to release local playlist lock")
		}
	}()

	texts, err := r.deps.Fetcher.FetchAll(ctx, r.opts.Upstreams)
	if err != nil {
		return fmt.Errorf("failed to fetch upstream: %w", err)
	}

	// Earlier upstreams take priority on shared identities.
	var upstream *m3u.Playlist

	for _, text := range texts {
		parsed := r.deps.Parser.Parse(text)
		report.Skipped += parsed.Skipped

		if upstream == nil {
			upstream = parsed
		} else {
			upstream = merge.Extend(upstream, parsed)
		}
	}

	if upstream == nil {
		upstream = m3u.NewPlaylist("")
	}

	report.Upstream = upstream.Len()

	if err := merge.CheckSanity(upstream.Len(), r.opts.MinEntries); err != nil {
		log.WithFields(logrus.Fields{
			"count":     upstream.Len(),
			"threshold": r.opts.MinEntries,
		}).Error("Upstream playlist failed sanity check")

		return err
	}

	localText, err := r.deps.Store.Read()
	if err != nil {
		return err
	}

	local := r.deps.Parser.Parse(localText)
	report.Local = local.Len()
	report.Skipped += local.Skipped

	discovered := r.discover(ctx, log, upstream, local)
	report.Discovered = discovered.Len()

	result := merge.Merge(merge.Extend(upstream, discovered), local)

	report.Merged = result.Playlist.Len()
	report.Added = result.Added
	report.Updated = result.Updated
	report.Preserved = result.Preserved

	rendered := m3u.Render(result.Playlist)

	switch {
	case rendered == localText:
		report.Outcome = OutcomeUnchanged
	case r.opts.DryRun:
		report.Outcome = OutcomeDryRun
		report.Diff = lineDiff(localText, rendered)
	default:
		if err := r.deps.Store.Write(rendered); err != nil {
			return fmt.Errorf("failed to write local playlist: %w", err)
		}

		report.Outcome = OutcomeWritten
	}

	return nil
}

func (r *Reconciler) publish(ctx context.Context, log logrus.FieldLogger, report *Report) {
	fields := logrus.Fields{
		"outcome":    report.Outcome,
		"upstream":   report.Upstream,
		"local":      report.Local,
		"discovered": report.Discovered,
		"merged":     report.Merged,
		"added":      len(report.Added),
		"updated":    len(report.Updated),
		"preserved":  len(report.Preserved),
		"skipped":    report.Skipped,
		"duration":   report.Duration(),
	}

	if report.Succeeded() {
		log.WithFields(fields).Info("Reconciliation finished")
	} else {
		log.WithFields(fields).WithField("error", report.Error).Error("Reconciliation failed")
	}

	if r.deps.History != nil {
		if err := r.deps.History.Record(context.WithoutCancel(ctx), report); err != nil {
			log.WithError(err).Warn("Failed to record run history")
		}
	}

	for _, observer := range r.deps.Observers {
		observer.ObserveRun(report)
	}
}
