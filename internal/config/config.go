// Package config resolves runtime settings from command-line flags,
// LEKARNA_* environment variables and an optional .env file, in that
// order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/erazemk/lekarna/internal/db"
)

// EnvPrefix is prepended to every environment variable, e.g. LEKARNA_DB.
const EnvPrefix = "LEKARNA"

// Setting keys. They double as flag names.
const (
	KeyDB             = "db"
	KeyDriver         = "driver"
	KeyAddr           = "addr"
	KeyUser           = "user"
	KeyLog            = "log"
	KeyLogLevel       = "log-level"
	KeyTimezone       = "tz"
	KeyNotifySchedule = "notify-schedule"
)

// Defaults.
const (
	DefaultDB             = "lekarna.sqlite3"
	DefaultAddr           = ":8080"
	DefaultUser           = "Admin"
	DefaultNotifySchedule = "@hourly"
)

// Config holds resolved settings.
type Config struct {
	Driver         string
	DSN            string
	Addr           string
	AdminUser      string
	LogPath        string
	LogLevel       slog.Level
	Location       *time.Location
	NotifySchedule string
}

// Load resolves the configuration. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	v.SetDefault(KeyDB, DefaultDB)
	v.SetDefault(KeyDriver, db.DriverSQLite)
	v.SetDefault(KeyAddr, DefaultAddr)
	v.SetDefault(KeyUser, DefaultUser)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyTimezone, "Local")
	v.SetDefault(KeyNotifySchedule, DefaultNotifySchedule)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	cfg := &Config{
		Driver:         db.NormalizeDriver(v.GetString(KeyDriver)),
		DSN:            v.GetString(KeyDB),
		Addr:           v.GetString(KeyAddr),
		AdminUser:      v.GetString(KeyUser),
		LogPath:        v.GetString(KeyLog),
		NotifySchedule: strings.TrimSpace(v.GetString(KeyNotifySchedule)),
	}

	if cfg.Driver != db.DriverSQLite && cfg.Driver != db.DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", v.GetString(KeyDriver))
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database location is required")
	}
	if cfg.AdminUser == "" {
		return nil, fmt.Errorf("admin username must not be empty")
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", v.GetString(KeyLogLevel), err)
	}

	loc, err := time.LoadLocation(v.GetString(KeyTimezone))
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", v.GetString(KeyTimezone), err)
	}
	cfg.Location = loc

	return cfg, nil
}
