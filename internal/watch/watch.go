// Package watch implements the polling loop at the heart of the tool:
// reload the page, classify it, and fire the alert sequence on availability.
//
// The loop is strictly sequential and single-session. Each iteration derives
// the availability status fresh and discards it; nothing is compared against
// a previous tick. Recoverable failures are logged and retried on the next
// tick, with the fixed interval acting as the retry cadence.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"

	"github.com/benjamincabreram-tech/RDV/internal/alert"
	"github.com/benjamincabreram-tech/RDV/internal/detect"
	"github.com/benjamincabreram-tech/RDV/internal/metrics"
)

// Page is the narrow browser capability the loop depends on.
type Page interface {
	// Reload refreshes the current page and waits for it to settle.
	Reload() error
	// HTML returns the rendered document markup.
	HTML() (string, error)
	// Screenshot captures the full page as PNG bytes.
	Screenshot() ([]byte, error)
}

// Classifier decides whether a page snapshot shows availability.
type Classifier interface {
	Classify(html string) (detect.Status, error)
}

// Options holds the loop settings.
type Options struct {
	// Interval is the fixed sleep between checks. No backoff, no jitter.
	Interval time.Duration

	// Message is the fixed alert text passed to every alert step.
	Message string

	// ShowSpinner renders an idle spinner between checks.
	ShowSpinner bool
}

// Watcher runs the polling loop against a single page.
type Watcher struct {
	page       Page
	classifier Classifier
	alerts     *alert.Sequence
	metrics    *metrics.Metrics
	logger     *log.Logger
	opts       Options
}

// New assembles a Watcher.
func New(page Page, classifier Classifier, alerts *alert.Sequence, m *metrics.Metrics, logger *log.Logger, opts Options) *Watcher {
	return &Watcher{
		page:       page,
		classifier: classifier,
		alerts:     alerts,
		metrics:    m,
		logger:     logger,
		opts:       opts,
	}
}

// Run polls until the context is cancelled or the browser session is lost.
// Cancellation is cooperative: it is honored between iterations and during
// the inter-check sleep, never mid-operation.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watch loop armed", "interval", w.opts.Interval)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch loop stopped")
			return nil
		default:
		}

		if err := w.Check(ctx); err != nil {
			return err
		}

		if !w.wait(ctx) {
			w.logger.Info("watch loop stopped")
			return nil
		}
	}
}

// Check performs a single iteration: reload, read, classify, and on
// availability fire the alert sequence. Recoverable failures return nil so
// the loop retries on the next tick; only browser-session loss is fatal.
func (w *Watcher) Check(ctx context.Context) error {
	start := time.Now()
	w.metrics.IncCheck()

	if err := w.page.Reload(); err != nil {
		if sessionLost(err) {
			return fmt.Errorf("browser session lost: %w", err)
		}
		w.metrics.IncCheckError("reload")
		w.logger.Warn("reload failed, retrying next tick", "err", err)
		return nil
	}

	html, err := w.page.HTML()
	if err != nil {
		if sessionLost(err) {
			return fmt.Errorf("browser session lost: %w", err)
		}
		w.metrics.IncCheckError("read")
		w.logger.Warn("failed to read page, retrying next tick", "err", err)
		return nil
	}

	status, err := w.classifier.Classify(html)
	if err != nil {
		w.metrics.IncCheckError("classify")
		w.logger.Warn("failed to classify page, retrying next tick", "err", err)
		return nil
	}
	w.metrics.ObserveCheck(time.Since(start))

	if !status.Available {
		w.logger.Debug("no availability", "marker", status.Matched)
		return nil
	}

	w.metrics.IncDetection()
	w.logger.Info("availability detected", "matched", status.Matched)
	w.alerts.Fire(ctx, alert.Event{Message: w.opts.Message, When: time.Now()})
	return nil
}

// wait sleeps for the polling interval. It returns false when the context is
// cancelled before the interval elapses.
func (w *Watcher) wait(ctx context.Context) bool {
	var sp *spinner.Spinner
	if w.opts.ShowSpinner {
		sp = spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		sp.Suffix = fmt.Sprintf(" next check in %s", w.opts.Interval)
		sp.Start()
		defer sp.Stop()
	}

	timer := time.NewTimer(w.opts.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// sessionLost reports whether an error means the shared browser context is
// gone for good. Timeouts are transient; cancellation of the session context
// is not.
func sessionLost(err error) bool {
	return errors.Is(err, context.Canceled)
}
