// Package alert implements the best-effort alert sequence fired when the
// watcher detects availability: bell, screenshot, optional desktop and
// Telegram notifications. Each step is isolated; one failing never stops
// the others.
package alert

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// Event carries the detection details into each alert step.
type Event struct {
	// Message is the fixed human-readable alert text.
	Message string
	// When is the detection time.
	When time.Time
}

// Alerter is a single alert step.
type Alerter interface {
	// Name identifies the step in logs and metrics.
	Name() string
	// Alert performs the step. Errors are reported, never fatal.
	Alert(ctx context.Context, ev Event) error
}

// Sequence fans an event out to every alerter in order. Failures are logged
// and reported through OnFailure; the remaining steps still run. This is a
// fan-out with independent error containment, not a transaction.
type Sequence struct {
	alerters []Alerter
	logger   *log.Logger

	// OnFailure, when set, is called with the name of each failing step.
	OnFailure func(name string)
}

// NewSequence builds a Sequence over the given steps. Nil alerters are
// skipped so callers can pass conditionally-constructed steps directly.
func NewSequence(logger *log.Logger, alerters ...Alerter) *Sequence {
	kept := make([]Alerter, 0, len(alerters))
	for _, a := range alerters {
		if a != nil {
			kept = append(kept, a)
		}
	}
	return &Sequence{alerters: kept, logger: logger}
}

// Len returns the number of active alert steps.
func (s *Sequence) Len() int {
	return len(s.alerters)
}

// Fire runs every step for the event.
func (s *Sequence) Fire(ctx context.Context, ev Event) {
	for _, a := range s.alerters {
		if err := a.Alert(ctx, ev); err != nil {
			s.logger.Warn("alert step failed", "step", a.Name(), "err", err)
			if s.OnFailure != nil {
				s.OnFailure(a.Name())
			}
		}
	}
}
