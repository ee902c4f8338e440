package config

import (
	"errors"
	"strings"
)

// Config is the on-disk configuration.
//
// The top-level keys mirror the historical config.json layout: one Restreamer
// server, one ingest process, two optional daily switch times. The nested
// blocks (logging/storage/telegram) are optional operational extras.
type Config struct {
	ServerAddress  string `json:"server_address"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	ProcessID      string `json:"process_id"`
	ConnectTime    string `json:"connect_time,omitempty"`    // "HH:MM"; empty => not scheduled
	DisconnectTime string `json:"disconnect_time,omitempty"` // "HH:MM"; empty => not scheduled

	// Timezone is the IANA zone daily times are evaluated in. Empty => local.
	Timezone string `json:"timezone,omitempty"`

	// RefreshInterval is a Go duration string (e.g. "10m"). Empty => 10m.
	RefreshInterval string `json:"refresh_interval,omitempty"`

	// WatchConfig enables fsnotify hot-reload of this file.
	WatchConfig bool `json:"watch_config,omitempty"`

	Logging  LoggingConfig   `json:"logging,omitempty"`
	Storage  *StorageConfig  `json:"storage,omitempty"`
	Telegram *TelegramConfig `json:"telegram,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level,omitempty"`
	Console bool        `json:"console,omitempty"`
	File    LoggingFile `json:"file,omitempty"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// StorageConfig controls the optional command audit log.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./restreamctl_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// TelegramConfig controls the optional send-only notifier.
type TelegramConfig struct {
	Enabled    bool   `json:"enabled"`
	Token      string `json:"token,omitempty"`
	ChatID     int64  `json:"chat_id,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

// Validate checks the fields the daemon cannot start without.
// Time fields are deliberately not checked here: a missing connect/disconnect
// time degrades to "not scheduled" at job registration.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	var missing []string
	if strings.TrimSpace(c.ServerAddress) == "" {
		missing = append(missing, "server_address")
	}
	if strings.TrimSpace(c.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(c.Password) == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(c.ProcessID) == "" {
		missing = append(missing, "process_id")
	}
	if len(missing) > 0 {
		return errors.New("missing required config fields: " + strings.Join(missing, ", "))
	}
	if c.Telegram != nil && c.Telegram.Enabled {
		if strings.TrimSpace(c.Telegram.Token) == "" {
			return errors.New("telegram.enabled is set but telegram.token is empty")
		}
		if c.Telegram.ChatID == 0 {
			return errors.New("telegram.enabled is set but telegram.chat_id is empty")
		}
	}
	return nil
}
