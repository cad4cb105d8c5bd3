package config

import (
	"context"
	"strconv"
	"time"
)

// SettingsGetter is an interface for retrieving settings from storage
type SettingsGetter interface {
	GetSetting(ctx context.Context, key string) (string, error)
}

// Loader provides typed access to settings with default values. Settings
// are stored as JSON, so string values arrive quoted.
type Loader struct {
	db SettingsGetter
}

// NewLoader creates a new settings loader
func NewLoader(db SettingsGetter) *Loader {
	return &Loader{db: db}
}

// Int retrieves an integer setting, returning defaultVal if not found or invalid
func (l *Loader) Int(ctx context.Context, key string, defaultVal int) int {
	if val, _ := l.db.GetSetting(ctx, key); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			return v
		}
	}
	return defaultVal
}

// Int64 retrieves an int64 setting, returning defaultVal if not found or invalid
func (l *Loader) Int64(ctx context.Context, key string, defaultVal int64) int64 {
	if val, _ := l.db.GetSetting(ctx, key); val != "" {
		if v, err := strconv.ParseInt(val, 10, 64); err == nil {
			return v
		}
	}
	return defaultVal
}

// Bool retrieves a boolean setting, returning defaultVal if not found
func (l *Loader) Bool(ctx context.Context, key string, defaultVal bool) bool {
	if val, _ := l.db.GetSetting(ctx, key); val != "" {
		return val == "true"
	}
	return defaultVal
}

// String retrieves a string setting, returning defaultVal if not found or empty
func (l *Loader) String(ctx context.Context, key, defaultVal string) string {
	if val, _ := l.db.GetSetting(ctx, key); val != "" {
		return unquote(val)
	}
	return defaultVal
}

// Duration retrieves a duration setting in Go duration format (e.g., "1h30m", "5s")
func (l *Loader) Duration(ctx context.Context, key string, defaultVal time.Duration) time.Duration {
	if val, _ := l.db.GetSetting(ctx, key); val != "" {
		if d, err := time.ParseDuration(unquote(val)); err == nil {
			return d
		}
	}
	return defaultVal
}

// DurationDays retrieves a duration setting stored as a day count
func (l *Loader) DurationDays(ctx context.Context, key string, defaultDays int) time.Duration {
	days := l.Int(ctx, key, defaultDays)
	return time.Duration(days) * 24 * time.Hour
}

func unquote(val string) string {
	if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
		return val[1 : len(val)-1]
	}
	return val
}
