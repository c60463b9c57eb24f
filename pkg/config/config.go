// Package config loads suite settings from ini files and client data from yaml.
// Settings merge embedded defaults, the global config in the user config directory and a
// project-local config, with later sources overriding earlier ones.
package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cityledger/ticketsuite/pkg/browser"
	"github.com/cityledger/ticketsuite/pkg/notify"
	"github.com/cityledger/ticketsuite/pkg/pages"
)

//go:embed defaults/config defaults/clients.yml
var defaultsFS embed.FS

// LocalConfigPath is the project-local config, relative to the working directory.
var LocalConfigPath = filepath.Join(".ticketsuite", "config")

// Config is the merged configuration of a run.
type Config struct {
	Values
	configDir string
}

// Load installs defaults into configDir if missing and merges embedded, global and local settings.
// Empty configDir uses DefaultConfigDir; empty localPath uses LocalConfigPath.
func Load(configDir, localPath string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	if localPath == "" {
		localPath = LocalConfigPath
	}

	if err := newDefaultsInstaller(defaultsFS).Install(configDir); err != nil {
		return nil, fmt.Errorf("install defaults: %w", err)
	}

	values, err := loadValues(defaultsFS, filepath.Join(configDir, "config"), localPath)
	if err != nil {
		return nil, fmt.Errorf("load values: %w", err)
	}
	return &Config{Values: values, configDir: configDir}, nil
}

// DefaultConfigDir returns ~/.config/ticketsuite, or a relative fallback when home is unknown.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "ticketsuite")
	}
	return filepath.Join(home, ".config", "ticketsuite")
}

// ConfigDir returns the directory holding the global config.
func (c *Config) ConfigDir() string { return c.configDir }

// DefaultWait is the per-locator timeout used by page objects.
func (c *Config) DefaultWait() time.Duration { return ms(c.DefaultWaitMs) }

// Waits returns page object timeouts, with the default element wait taken from settings when set.
func (c *Config) Waits() pages.Waits {
	w := pages.DefaultWaits()
	if c.DefaultWaitMsSet && c.DefaultWaitMs > 0 {
		w.Default = ms(c.DefaultWaitMs)
	}
	return w
}

// PollInterval is the fixed resolver polling interval.
func (c *Config) PollInterval() time.Duration { return ms(c.PollIntervalMs) }

// Timing maps the wait settings to action timing, keeping defaults for unset values.
func (c *Config) Timing() browser.Timing {
	t := browser.DefaultTiming()
	if c.NativeClickTimeoutMsSet {
		t.NativeClick = ms(c.NativeClickTimeoutMs)
	}
	if c.PointerPauseMsSet {
		t.PointerPause = ms(c.PointerPauseMs)
	}
	if c.FrameProbeTimeoutMsSet {
		t.FrameProbe = ms(c.FrameProbeTimeoutMs)
	}
	if c.PerFrameTimeoutMsSet {
		t.PerFrame = ms(c.PerFrameTimeoutMs)
	}
	if c.ReadySettleMsSet {
		t.ReadySettle = ms(c.ReadySettleMs)
	}
	return t
}

// LaunchOptions maps browser settings to launcher options.
func (c *Config) LaunchOptions() browser.LaunchOptions {
	return browser.LaunchOptions{
		Headless:       c.Headless,
		SlowMo:         ms(c.SlowMoMs),
		ViewportWidth:  c.ViewportWidth,
		ViewportHeight: c.ViewportHeight,
		NavTimeout:     ms(c.PageLoadTimeoutMs),
		ActionTimeout:  ms(c.DefaultWaitMs),
	}
}

// NotifyParams maps notify_* settings to notification parameters.
func (c *Config) NotifyParams() notify.Params {
	return notify.Params{
		Channels:      c.NotifyChannels,
		OnError:       c.NotifyOnError,
		OnComplete:    c.NotifyOnComplete,
		TimeoutMs:     c.NotifyTimeoutMs,
		TelegramToken: c.NotifyTelegramToken,
		TelegramChat:  c.NotifyTelegramChat,
		SlackToken:    c.NotifySlackToken,
		SlackChannel:  c.NotifySlackChannel,
		SMTPHost:      c.NotifySMTPHost,
		SMTPPort:      c.NotifySMTPPort,
		SMTPUsername:  c.NotifySMTPUsername,
		SMTPPassword:  c.NotifySMTPPassword,
		SMTPStartTLS:  c.NotifySMTPStartTLS,
		EmailFrom:     c.NotifyEmailFrom,
		EmailTo:       c.NotifyEmailTo,
		WebhookURLs:   c.NotifyWebhookURLs,
		CustomScript:  c.NotifyCustomScript,
	}
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }
