// Package browser owns the Chrome session the watcher polls through.
//
// The session is a scoped resource: acquired once at startup, shared by every
// check, and released on any exit path via Close. Chrome runs headed by
// default because a human has to solve the CAPTCHA and navigate to the
// créneau page before the loop is armed.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Options configures the browser session.
type Options struct {
	// Headless hides the browser window. Leave false for the human-in-the-loop
	// CAPTCHA step.
	Headless bool

	// SettleWait is slept after each reload before the page is read.
	SettleWait time.Duration

	// Timeout bounds every individual browser operation.
	Timeout time.Duration
}

// Session wraps a shared chromedp browser context.
type Session struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	settleWait    time.Duration
	timeout       time.Duration
}

// NewSession launches Chrome and returns a live session. The caller must
// Close it on every exit path.
func NewSession(opts Options) (*Session, error) {
	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if !opts.Headless {
		execOpts = append(execOpts, chromedp.Flag("headless", false))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), execOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	s := &Session{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		settleWait:    opts.SettleWait,
		timeout:       timeout,
	}

	// Force the browser process to start now so launch failures surface here
	// instead of on the first check.
	if err := chromedp.Run(browserCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return s, nil
}

// Close releases the browser and its allocator.
func (s *Session) Close() {
	s.browserCancel()
	s.allocCancel()
}

func (s *Session) run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.browserCtx, s.timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Navigate opens the URL and waits for the body to be ready.
func (s *Session) Navigate(url string) error {
	if err := s.run(
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// Reload refreshes the current page, waits for the body, and lets the page
// settle before the caller reads it.
func (s *Session) Reload() error {
	tasks := []chromedp.Action{
		chromedp.Reload(),
		chromedp.WaitReady("body"),
	}
	if s.settleWait > 0 {
		tasks = append(tasks, chromedp.Sleep(s.settleWait))
	}
	if err := s.run(tasks...); err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}
	return nil
}

// HTML returns the rendered document markup.
func (s *Session) HTML() (string, error) {
	var html string
	if err := s.run(chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return html, nil
}

// Screenshot captures the full page as PNG bytes.
func (s *Session) Screenshot() ([]byte, error) {
	var buf []byte
	if err := s.run(chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}
