package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. OPSDASH_ANALYTICS_HOURLY_RATE.
const EnvPrefix = "OPSDASH"

// envKeys lists the dotted keys that may be overridden from the environment.
var envKeys = []string{
	"general.data_dir",
	"analytics.hourly_rate",
	"analytics.window_months",
	"appearance.theme",
	"tui.auto_refresh",
	"tui.refresh_interval_sec",
	"daemon.addr",
	"daemon.interval",
	"daemon.allowed_origins",
	"log.level",
	"log.format",
	"advisor.base_url",
	"advisor.api_key",
	"advisor.model",
}

// ApplyEnv overlays OPSDASH_* environment variables onto cfg.
func ApplyEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}

	if v.IsSet("general.data_dir") {
		cfg.General.DataDir = v.GetString("general.data_dir")
	}
	if v.IsSet("analytics.hourly_rate") {
		cfg.Analytics.HourlyRate = v.GetFloat64("analytics.hourly_rate")
	}
	if v.IsSet("analytics.window_months") {
		cfg.Analytics.WindowMonths = v.GetInt("analytics.window_months")
	}
	if v.IsSet("appearance.theme") {
		cfg.Appearance.Theme = v.GetString("appearance.theme")
	}
	if v.IsSet("tui.auto_refresh") {
		cfg.TUI.AutoRefresh = v.GetBool("tui.auto_refresh")
	}
	if v.IsSet("tui.refresh_interval_sec") {
		cfg.TUI.RefreshIntervalSec = v.GetInt("tui.refresh_interval_sec")
	}
	if v.IsSet("daemon.addr") {
		cfg.Daemon.Addr = v.GetString("daemon.addr")
	}
	if v.IsSet("daemon.interval") {
		cfg.Daemon.IntervalSec = v.GetInt("daemon.interval")
	}
	if v.IsSet("daemon.allowed_origins") {
		cfg.Daemon.AllowedOrigins = strings.Fields(strings.ReplaceAll(v.GetString("daemon.allowed_origins"), ",", " "))
	}
	if v.IsSet("log.level") {
		cfg.Log.Level = v.GetString("log.level")
	}
	if v.IsSet("log.format") {
		cfg.Log.Format = v.GetString("log.format")
	}
	if v.IsSet("advisor.base_url") {
		cfg.Advisor.BaseURL = v.GetString("advisor.base_url")
	}
	if v.IsSet("advisor.api_key") {
		cfg.Advisor.APIKey = v.GetString("advisor.api_key")
	}
	if v.IsSet("advisor.model") {
		cfg.Advisor.Model = v.GetString("advisor.model")
	}
}
