package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamincabreram-tech/RDV/internal/alert"
	"github.com/benjamincabreram-tech/RDV/internal/detect"
	"github.com/benjamincabreram-tech/RDV/internal/metrics"
	"github.com/benjamincabreram-tech/RDV/internal/screenshot"
)

const (
	unavailableHTML = `<html><body><p>No hay citas disponibles</p></body></html>`
	availableHTML   = `<html><body><p>Hay disponibilidad: 3 citas</p></body></html>`
)

type fakePage struct {
	html       string
	reloadErrs []error
	reloads    int
	shots      int
	shotErr    error
	onReload   func(count int)
}

func (p *fakePage) Reload() error {
	p.reloads++
	if p.onReload != nil {
		p.onReload(p.reloads)
	}
	if len(p.reloadErrs) > 0 {
		err := p.reloadErrs[0]
		p.reloadErrs = p.reloadErrs[1:]
		return err
	}
	return nil
}

func (p *fakePage) HTML() (string, error) {
	return p.html, nil
}

func (p *fakePage) Screenshot() ([]byte, error) {
	if p.shotErr != nil {
		return nil, p.shotErr
	}
	p.shots++
	return []byte(fmt.Sprintf("png-%d", p.shots)), nil
}

type countingAlerter struct {
	name  string
	calls int
}

func (c *countingAlerter) Name() string { return c.name }

func (c *countingAlerter) Alert(_ context.Context, _ alert.Event) error {
	c.calls++
	return nil
}

func testDetector(t *testing.T) *detect.Detector {
	t.Helper()
	d, err := detect.New(detect.Options{Markers: []string{`No hay citas disponibles`}})
	require.NoError(t, err)
	return d
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newWatcher(t *testing.T, page Page, alerters ...alert.Alerter) *Watcher {
	t.Helper()
	logger := testLogger()
	return New(page, testDetector(t), alert.NewSequence(logger, alerters...), metrics.New(), logger, Options{
		Interval: time.Millisecond,
		Message:  "créneaux disponibles",
	})
}

func TestCheckNoSideEffectsWhenMarkerPresent(t *testing.T) {
	page := &fakePage{html: unavailableHTML}
	bell := &countingAlerter{name: "bell"}

	shots, err := screenshot.NewWriter(t.TempDir())
	require.NoError(t, err)

	w := newWatcher(t, page, bell, NewScreenshotStep(page, shots, testLogger()))
	require.NoError(t, w.Check(context.Background()))

	assert.Zero(t, bell.calls)
	assert.Zero(t, page.shots)
	entries, err := os.ReadDir(shots.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCheckFiresAlertSequenceOnAvailability(t *testing.T) {
	page := &fakePage{html: availableHTML}
	bell := &countingAlerter{name: "bell"}
	notifier := &countingAlerter{name: "telegram"}

	shots, err := screenshot.NewWriter(t.TempDir())
	require.NoError(t, err)

	w := newWatcher(t, page, bell, NewScreenshotStep(page, shots, testLogger()), notifier)
	require.NoError(t, w.Check(context.Background()))

	assert.Equal(t, 1, bell.calls)
	assert.Equal(t, 1, notifier.calls)
	entries, err := os.ReadDir(shots.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCheckWithoutNotifierStillBeepsAndCaptures(t *testing.T) {
	page := &fakePage{html: availableHTML}
	bell := &countingAlerter{name: "bell"}

	shots, err := screenshot.NewWriter(t.TempDir())
	require.NoError(t, err)

	// No remote notifier configured; the sequence simply has fewer steps.
	w := newWatcher(t, page, bell, NewScreenshotStep(page, shots, testLogger()))
	require.NoError(t, w.Check(context.Background()))

	assert.Equal(t, 1, bell.calls)
	entries, err := os.ReadDir(shots.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestConsecutiveDetectionsProduceDistinctScreenshots(t *testing.T) {
	page := &fakePage{html: availableHTML}

	shots, err := screenshot.NewWriter(t.TempDir())
	require.NoError(t, err)

	w := newWatcher(t, page, NewScreenshotStep(page, shots, testLogger()))
	require.NoError(t, w.Check(context.Background()))
	require.NoError(t, w.Check(context.Background()))

	entries, err := os.ReadDir(shots.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestScreenshotFailureDoesNotBlockSiblingSteps(t *testing.T) {
	page := &fakePage{html: availableHTML, shotErr: errors.New("capture failed")}
	bell := &countingAlerter{name: "bell"}
	notifier := &countingAlerter{name: "telegram"}

	shots, err := screenshot.NewWriter(t.TempDir())
	require.NoError(t, err)

	w := newWatcher(t, page, bell, NewScreenshotStep(page, shots, testLogger()), notifier)
	require.NoError(t, w.Check(context.Background()))

	assert.Equal(t, 1, bell.calls)
	assert.Equal(t, 1, notifier.calls)
}

func TestRunSurvivesFailedReload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	page := &fakePage{
		html:       unavailableHTML,
		reloadErrs: []error{errors.New("net::ERR_CONNECTION_RESET")},
	}
	page.onReload = func(count int) {
		if count >= 2 {
			cancel()
		}
	}

	w := newWatcher(t, page)
	err := w.Run(ctx)

	require.NoError(t, err, "a single failed reload must not terminate the loop")
	assert.GreaterOrEqual(t, page.reloads, 2)
}

func TestRunStopsWhenSessionIsLost(t *testing.T) {
	page := &fakePage{
		html:       unavailableHTML,
		reloadErrs: []error{fmt.Errorf("reload failed: %w", context.Canceled)},
	}

	w := newWatcher(t, page)
	err := w.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser session lost")
}

func TestRunHonorsCancellationBetweenChecks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page := &fakePage{html: unavailableHTML}
	w := newWatcher(t, page)

	require.NoError(t, w.Run(ctx))
	assert.Zero(t, page.reloads)
}
