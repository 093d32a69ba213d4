// Command rdvwatch polls a préfecture appointment page and alerts when
// créneaux open up. The operator solves the CAPTCHA and navigates to the
// slot page by hand; rdvwatch takes over from there.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/benjamincabreram-tech/RDV/internal/alert"
	"github.com/benjamincabreram-tech/RDV/internal/browser"
	"github.com/benjamincabreram-tech/RDV/internal/config"
	"github.com/benjamincabreram-tech/RDV/internal/detect"
	"github.com/benjamincabreram-tech/RDV/internal/metrics"
	"github.com/benjamincabreram-tech/RDV/internal/screenshot"
	"github.com/benjamincabreram-tech/RDV/internal/watch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile      string
		url          string
		intervalSecs int
		shotDir      string
		metricsAddr  string
		headless     bool
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "rdvwatch",
		Short: "Watch a préfecture booking page and alert when créneaux open up",
		Long: `rdvwatch drives a headed Chrome session to the booking page. You solve the
CAPTCHA and navigate to the créneau selection page, then press ENTER to arm
the watcher. It reloads the page on a fixed interval and, when the
"no availability" message disappears, rings the bell, saves a screenshot and
optionally sends a Telegram message.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("url") {
				cfg.URL = url
			}
			if flags.Changed("interval") {
				cfg.RefreshSeconds = intervalSecs
			}
			if flags.Changed("screenshot-dir") {
				cfg.ScreenshotDir = shotDir
			}
			if flags.Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}
			if flags.Changed("headless") {
				cfg.Headless = headless
			}
			if flags.Changed("verbose") {
				cfg.Verbose = verbose
			}

			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "Path to a JSON config file")
	cmd.Flags().StringVarP(&url, "url", "u", "", "Booking page URL")
	cmd.Flags().IntVarP(&intervalSecs, "interval", "i", 0, "Seconds between page checks")
	cmd.Flags().StringVar(&shotDir, "screenshot-dir", "", "Directory for detection screenshots")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Prometheus listen address (e.g. :9090)")
	cmd.Flags().BoolVar(&headless, "headless", false, "Run Chrome without a window")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func run(ctx context.Context, cfg *config.Configuration) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	detector, err := detect.New(detect.Options{
		Selector:            cfg.WatchSelector,
		Markers:             cfg.Markers,
		SlotPatterns:        cfg.SlotPatterns,
		RequireSlotEvidence: cfg.RequireSlotEvidence,
	})
	if err != nil {
		return err
	}

	shots, err := screenshot.NewWriter(cfg.ScreenshotDir)
	if err != nil {
		return err
	}

	logger.Info("launching browser", "headless", cfg.Headless)
	sess, err := browser.NewSession(browser.Options{
		Headless:   cfg.Headless,
		SettleWait: cfg.SettleWait(),
		Timeout:    cfg.CheckTimeout(),
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	logger.Info("opening booking page", "url", cfg.URL)
	if err := sess.Navigate(cfg.URL); err != nil {
		return fmt.Errorf("failed to open booking page: %w", err)
	}

	logger.Info("navigate to the créneau selection page and solve any CAPTCHA")
	if err := waitForEnter(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	m := metrics.New()
	seq := buildAlertSequence(cfg, sess, shots, logger)
	seq.OnFailure = m.IncAlertFailure

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: m.Handler()}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "err", err)
			}
		}()
		logger.Info("metrics server enabled", "addr", cfg.MetricsAddr)
	}

	w := watch.New(sess, detector, seq, m, logger, watch.Options{
		Interval:    cfg.Interval(),
		Message:     cfg.AlertMessage,
		ShowSpinner: isTerminal(os.Stderr),
	})

	runErr := w.Run(ctx)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown failed", "err", err)
		}
		cancel()
	}

	if runErr != nil {
		logger.Error("watcher stopped", "err", runErr)
		return runErr
	}
	return nil
}

// buildAlertSequence assembles the alert steps in their firing order:
// bell, screenshot, desktop notification, Telegram.
func buildAlertSequence(cfg *config.Configuration, sess *browser.Session, shots *screenshot.Writer, logger *log.Logger) *alert.Sequence {
	var alerters []alert.Alerter

	if cfg.Bell {
		alerters = append(alerters, alert.NewBell(os.Stdout))
	}
	alerters = append(alerters, watch.NewScreenshotStep(sess, shots, logger))
	if cfg.DesktopNotify {
		alerters = append(alerters, alert.NewDesktop("rdvwatch"))
	}
	if cfg.TelegramEnabled() {
		alerters = append(alerters, alert.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, nil))
	} else {
		logger.Debug("telegram notifier disabled, credentials not set")
	}

	return alert.NewSequence(logger, alerters...)
}

// waitForEnter blocks until the operator presses ENTER or the context is
// cancelled.
func waitForEnter(ctx context.Context) error {
	fmt.Fprint(os.Stderr, ">> press ENTER once you are on the créneau page... ")

	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(os.Stdin).ReadString('\n')
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
