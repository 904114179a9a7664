package reconcile

import (
	"sync"
)

// Status provides thread-safe access to the most recent run reports.
type Status struct {
	mu sync.RWMutex

	last        *Report
	lastSuccess *Report
}

// NewStatus creates an empty status.
func NewStatus() *Status {
	return &Status{}
}

// ObserveRun stores report as the latest run.
func (s *Status) ObserveRun(report *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = report

	if report.Succeeded() {
		s.lastSuccess = report
	}
}

// Last returns the latest report.
func (s *Status) Last() (*Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return nil, false
	}

	return s.last, true
}

// LastSuccess returns the latest successful report.
func (s *Status) LastSuccess() (*Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastSuccess == nil {
		return nil, false
	}

	return s.lastSuccess, true
}
