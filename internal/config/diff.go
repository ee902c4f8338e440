package config

import (
	"strings"

	logx "restreamctl/pkg/logx"
)

// SummarizeChange returns a compact list of changed sections plus safe
// structured attrs for logging. Secrets (password, telegram token) are never
// included; credential changes are reported as a boolean only.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 12)

	if strings.TrimSpace(oldCfg.ServerAddress) != strings.TrimSpace(newCfg.ServerAddress) ||
		strings.TrimSpace(oldCfg.ProcessID) != strings.TrimSpace(newCfg.ProcessID) {
		changed = append(changed, "server")
		attrs = append(attrs,
			logx.String("server_address", strings.TrimSpace(newCfg.ServerAddress)),
			logx.String("process_id", strings.TrimSpace(newCfg.ProcessID)),
		)
	}

	if oldCfg.Username != newCfg.Username || oldCfg.Password != newCfg.Password {
		changed = append(changed, "credentials")
		attrs = append(attrs, logx.Bool("credentials_changed", true))
	}

	if strings.TrimSpace(oldCfg.ConnectTime) != strings.TrimSpace(newCfg.ConnectTime) ||
		strings.TrimSpace(oldCfg.DisconnectTime) != strings.TrimSpace(newCfg.DisconnectTime) ||
		strings.TrimSpace(oldCfg.Timezone) != strings.TrimSpace(newCfg.Timezone) ||
		strings.TrimSpace(oldCfg.RefreshInterval) != strings.TrimSpace(newCfg.RefreshInterval) {
		changed = append(changed, "schedule")
		attrs = append(attrs,
			logx.String("connect_time", strings.TrimSpace(newCfg.ConnectTime)),
			logx.String("disconnect_time", strings.TrimSpace(newCfg.DisconnectTime)),
			logx.String("timezone", strings.TrimSpace(newCfg.Timezone)),
			logx.String("refresh_interval", strings.TrimSpace(newCfg.RefreshInterval)),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file", newCfg.Logging.File.Enabled),
		)
	}

	if !storageEqual(oldCfg.Storage, newCfg.Storage) {
		changed = append(changed, "storage")
	}
	if !telegramEqual(oldCfg.Telegram, newCfg.Telegram) {
		changed = append(changed, "telegram")
	}

	return changed, attrs
}

func storageEqual(a, b *StorageConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func telegramEqual(a, b *TelegramConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
