package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// failureWarnAfter is the number of consecutive failed scheduled runs after which
// failures are logged as warnings instead of debug messages.
const failureWarnAfter = 3

// Runner performs one reconciliation run.
type Runner interface {
	Run(ctx context.Context) (*Report, error)
}

// Refresher reconciles the local playlist on a fixed interval while the server
// keeps serving the last written file.
type Refresher struct {
	log      logrus.FieldLogger
	runner   Runner
	interval time.Duration

	mu   sync.Mutex
	stop context.CancelFunc
	wg   sync.WaitGroup

	// failures is owned by the loop goroutine.
	failures int
}

// NewRefresher creates a refresher that calls runner every interval.
func NewRefresher(log logrus.FieldLogger, runner Runner, interval time.Duration) *Refresher {
	return &Refresher{
		log:      log.WithField("component", "refresher"),
		runner:   runner,
		interval: interval,
	}
}

// Start schedules reconciliation runs. Calling Start on a running refresher is a no-op.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stop != nil {
		return nil
	}

	loopCtx, stop := context.WithCancel(ctx)
	r.stop = stop

	r.wg.Add(1)

	go r.loop(loopCtx)

	r.log.WithField("interval", r.interval).Info("Scheduled reconciliation enabled")

	return nil
}

// Stop cancels the schedule and waits for a run in progress to return.
func (r *Refresher) Stop() error {
	r.mu.Lock()
	stop := r.stop
	r.stop = nil
	r.mu.Unlock()

	if stop == nil {
		return nil
	}

	stop()
	r.wg.Wait()

	r.log.Info("Scheduled reconciliation disabled")

	return nil
}

func (r *Refresher) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick runs one scheduled reconciliation. The reconciler logs every outcome
// itself; here only the streak of failures is tracked.
func (r *Refresher) tick(ctx context.Context) {
	_, err := r.runner.Run(ctx)

	if ctx.Err() != nil {
		return
	}

	if err == nil {
		if r.failures > 0 {
			r.log.WithField("failed_runs", r.failures).Info("Scheduled reconciliation recovered")
		}

		r.failures = 0

		return
	}

	r.failures++

	entry := r.log.WithError(err).WithFields(logrus.Fields{
		"failed_runs": r.failures,
		"next_run":    time.Now().Add(r.interval).Format(time.RFC3339),
	})

	if r.failures >= failureWarnAfter {
		entry.Warn("Scheduled reconciliation keeps failing, serving the last written playlist")

		return
	}

	entry.Debug("Scheduled reconciliation failed")
}
