package watch

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/benjamincabreram-tech/RDV/internal/alert"
)

// ShotWriter persists a captured screenshot and returns its path.
type ShotWriter interface {
	Write(label string, png []byte) (string, error)
}

// ScreenshotStep is the alert step that captures the current page and writes
// it to disk. It lives here rather than in package alert because it needs
// the Page capability.
type ScreenshotStep struct {
	page   Page
	shots  ShotWriter
	logger *log.Logger
	label  string
}

// NewScreenshotStep builds the screenshot alert step.
func NewScreenshotStep(page Page, shots ShotWriter, logger *log.Logger) *ScreenshotStep {
	return &ScreenshotStep{
		page:   page,
		shots:  shots,
		logger: logger,
		label:  "slots_detected",
	}
}

// Name implements alert.Alerter.
func (s *ScreenshotStep) Name() string { return "screenshot" }

// Alert implements alert.Alerter.
func (s *ScreenshotStep) Alert(_ context.Context, _ alert.Event) error {
	png, err := s.page.Screenshot()
	if err != nil {
		return err
	}

	path, err := s.shots.Write(s.label, png)
	if err != nil {
		return err
	}

	s.logger.Info("screenshot saved", "path", path)
	return nil
}
