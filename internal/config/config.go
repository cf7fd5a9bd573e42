// Copyright (c) 2026, torrent-cleaner contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package config loads the daemon's JSON configuration file, creating it
// with defaults on first run, and resolves the environment variables that
// sit alongside it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// NotificationConfig controls outbound webhook delivery.
type NotificationConfig struct {
	DiscordWebhookURL string `mapstructure:"discord_webhook_url"`
	OnJobAction       bool   `mapstructure:"on_job_action"`
	OnJobError        bool   `mapstructure:"on_job_error"`
}

// TorrentClientConfig describes how to reach the torrent client.
type TorrentClientConfig struct {
	Client   string `mapstructure:"client"`
	BaseURL  string `mapstructure:"base_url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// HandleUnlinkedConfig configures the Unlinked job.
type HandleUnlinkedConfig struct {
	IntervalHours   int    `mapstructure:"interval_hours"`
	MinSeedingDays  int    `mapstructure:"min_seeding_days"`
	MinStrikeDays   int    `mapstructure:"min_strike_days"`
	RequiredStrikes int    `mapstructure:"required_strikes"`
	ProtectionTag   string `mapstructure:"protection_tag"`
	Action          string `mapstructure:"action"`
}

// HandleUnregisteredConfig configures the Unregistered job.
type HandleUnregisteredConfig struct {
	IntervalHours   int    `mapstructure:"interval_hours"`
	MinStrikeDays   int    `mapstructure:"min_strike_days"`
	RequiredStrikes int    `mapstructure:"required_strikes"`
	IgnoreDHT       bool   `mapstructure:"ignore_dht"`
	IgnorePeX       bool   `mapstructure:"ignore_pex"`
	IgnoreLSD       bool   `mapstructure:"ignore_lsd"`
	ProtectionTag   string `mapstructure:"protection_tag"`
	Action          string `mapstructure:"action"`
}

// HandleOrphanedConfig configures the Orphaned job.
type HandleOrphanedConfig struct {
	IntervalHours            int    `mapstructure:"interval_hours"`
	MinStrikeDays            int    `mapstructure:"min_strike_days"`
	RequiredStrikes          int    `mapstructure:"required_strikes"`
	ProtectExternalHardlinks bool   `mapstructure:"protect_external_hardlinks"`
	Action                   string `mapstructure:"action"`
}

// HealthCheckFilesConfig configures the stateless health-check job.
type HealthCheckFilesConfig struct {
	IntervalHours int    `mapstructure:"interval_hours"`
	Action        string `mapstructure:"action"`
}

// JobsConfig groups all four job configurations.
type JobsConfig struct {
	HandleUnlinked     HandleUnlinkedConfig     `mapstructure:"handle_unlinked"`
	HandleUnregistered HandleUnregisteredConfig `mapstructure:"handle_unregistered"`
	HandleOrphaned     HandleOrphanedConfig     `mapstructure:"handle_orphaned"`
	HealthCheckFiles   HealthCheckFilesConfig   `mapstructure:"health_check_files"`
}

// Config is the fully resolved daemon configuration.
type Config struct {
	Notification  NotificationConfig  `mapstructure:"notification"`
	TorrentClient TorrentClientConfig `mapstructure:"torrent_client"`
	Jobs          JobsConfig          `mapstructure:"jobs"`

	// TorrentsPath, LogLevel, and LogPath come from the environment, not
	// the JSON file, per spec.md §6.
	TorrentsPath string
	LogLevel     string
	LogPath      string
}

const defaultConfigPath = "/config/config.json"

// Action literals accepted by every job's `action` key.
const (
	ActionTest   = "test"
	ActionStop   = "stop"
	ActionDelete = "delete"
)

// Load reads the JSON config file at path (or the default location when
// path is empty), creating it with defaults if it does not yet exist, then
// layers in the required environment variables.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultConfigPath
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	setDefaults(v)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
			return nil, fmt.Errorf("create config directory: %w", err)
		}
		if err := v.SafeWriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.TorrentsPath = strings.TrimSpace(os.Getenv("TORRENTS_PATH"))
	cfg.LogLevel = strings.ToUpper(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}
	cfg.LogPath = strings.TrimSpace(os.Getenv("LOG_PATH"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the invariants this daemon depends on beyond JSON shape.
func (c *Config) Validate() error {
	if c.TorrentsPath == "" {
		return errors.New("TORRENTS_PATH environment variable is required")
	}
	if !strings.HasPrefix(c.TorrentsPath, "/") {
		return fmt.Errorf("TORRENTS_PATH must be an absolute path, got %q", c.TorrentsPath)
	}
	if c.TorrentClient.Client == "" {
		return errors.New("torrent_client.client is required")
	}
	for name, action := range map[string]string{
		"handle_unlinked":     c.Jobs.HandleUnlinked.Action,
		"handle_unregistered": c.Jobs.HandleUnregistered.Action,
		"handle_orphaned":     c.Jobs.HandleOrphaned.Action,
		"health_check_files":  c.Jobs.HealthCheckFiles.Action,
	} {
		switch action {
		case ActionTest, ActionStop, ActionDelete:
		default:
			return fmt.Errorf("jobs.%s.action: invalid action %q", name, action)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("notification.discord_webhook_url", "")
	v.SetDefault("notification.on_job_action", true)
	v.SetDefault("notification.on_job_error", true)

	v.SetDefault("torrent_client.client", "")
	v.SetDefault("torrent_client.base_url", "")
	v.SetDefault("torrent_client.username", "")
	v.SetDefault("torrent_client.password", "")

	v.SetDefault("jobs.handle_unlinked.interval_hours", 12)
	v.SetDefault("jobs.handle_unlinked.min_seeding_days", 20)
	v.SetDefault("jobs.handle_unlinked.min_strike_days", 3)
	v.SetDefault("jobs.handle_unlinked.required_strikes", 3)
	v.SetDefault("jobs.handle_unlinked.protection_tag", "protected-unlinked")
	v.SetDefault("jobs.handle_unlinked.action", ActionTest)

	v.SetDefault("jobs.handle_unregistered.interval_hours", 3)
	v.SetDefault("jobs.handle_unregistered.min_strike_days", 1)
	v.SetDefault("jobs.handle_unregistered.required_strikes", 2)
	v.SetDefault("jobs.handle_unregistered.ignore_dht", true)
	v.SetDefault("jobs.handle_unregistered.ignore_pex", true)
	v.SetDefault("jobs.handle_unregistered.ignore_lsd", true)
	v.SetDefault("jobs.handle_unregistered.protection_tag", "protected-unregistered")
	v.SetDefault("jobs.handle_unregistered.action", ActionTest)

	v.SetDefault("jobs.handle_orphaned.interval_hours", 13)
	v.SetDefault("jobs.handle_orphaned.min_strike_days", 3)
	v.SetDefault("jobs.handle_orphaned.required_strikes", 3)
	v.SetDefault("jobs.handle_orphaned.protect_external_hardlinks", true)
	v.SetDefault("jobs.handle_orphaned.action", ActionTest)

	v.SetDefault("jobs.health_check_files.interval_hours", 24)
	v.SetDefault("jobs.health_check_files.action", ActionTest)
}

func dirOf(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}
