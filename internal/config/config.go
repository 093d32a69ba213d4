package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Configuration holds all settings for the watcher. Everything is read once
// at startup; nothing is re-read during the run.
type Configuration struct {
	// URL is the booking page the operator starts on.
	URL string `koanf:"url" validate:"required,url"`

	// RefreshSeconds is the fixed interval between page checks.
	RefreshSeconds int `koanf:"refresh_seconds" validate:"min=1"`

	// ScreenshotDir receives one PNG per detected availability.
	ScreenshotDir string `koanf:"screenshot_dir" validate:"required"`

	// WatchSelector is the CSS selector whose text content is classified.
	WatchSelector string `koanf:"watch_selector" validate:"required"`

	// Markers are case-insensitive regular expressions whose presence in the
	// watched text means "no slots open". Plain strings work too.
	Markers []string `koanf:"markers" validate:"min=1,dive,required"`

	// SlotPatterns are regular expressions that look like actual timeslots
	// (e.g. "09:15", "14h30"). Only consulted when RequireSlotEvidence is set.
	SlotPatterns []string `koanf:"slot_patterns"`

	// RequireSlotEvidence demands a SlotPatterns match on top of marker
	// absence before the page counts as available.
	RequireSlotEvidence bool `koanf:"require_slot_evidence"`

	// SettleMillis is how long to wait after a reload before reading the page.
	SettleMillis int `koanf:"settle_millis" validate:"min=0"`

	// CheckTimeoutSeconds bounds a single browser operation.
	CheckTimeoutSeconds int `koanf:"check_timeout_seconds" validate:"min=1"`

	// TelegramBotToken and TelegramChatID enable the Telegram notifier when
	// both are set. Leaving them empty disables it without error.
	TelegramBotToken string `koanf:"telegram_bot_token"`
	TelegramChatID   string `koanf:"telegram_chat_id"`

	// AlertMessage is the fixed text sent with remote notifications.
	AlertMessage string `koanf:"alert_message" validate:"required"`

	// MetricsAddr enables the Prometheus listener when non-empty (e.g. ":9090").
	MetricsAddr string `koanf:"metrics_addr"`

	// Headless runs Chrome without a window. The default is headed because a
	// human has to solve the CAPTCHA.
	Headless bool `koanf:"headless"`

	// Bell and DesktopNotify toggle the local alert steps.
	Bell          bool `koanf:"bell"`
	DesktopNotify bool `koanf:"desktop_notify"`

	Verbose bool `koanf:"verbose"`
}

// Interval returns the polling interval as a duration.
func (c *Configuration) Interval() time.Duration {
	return time.Duration(c.RefreshSeconds) * time.Second
}

// SettleWait returns the post-reload settle delay as a duration.
func (c *Configuration) SettleWait() time.Duration {
	return time.Duration(c.SettleMillis) * time.Millisecond
}

// CheckTimeout returns the per-operation browser timeout as a duration.
func (c *Configuration) CheckTimeout() time.Duration {
	return time.Duration(c.CheckTimeoutSeconds) * time.Second
}

// TelegramEnabled reports whether both Telegram credentials are present.
func (c *Configuration) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != ""
}

// Load builds the configuration from defaults, an optional JSON config file,
// and RDV_-prefixed environment variables, in increasing priority.
func Load(configPath string) (*Configuration, error) {
	k := koanf.New(".")

	for key, value := range Defaults() {
		k.Set(key, value)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), json.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	k.Load(env.Provider("RDV_", ".", envTransform), nil)

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envTransform converts environment variable names to config keys.
// Example: RDV_REFRESH_SECONDS -> refresh_seconds
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "RDV_"))
}
