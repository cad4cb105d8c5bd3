package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// GetSetting retrieves a setting value by key. Missing keys return "".
func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	row, err := db.store.FetchOne(ctx, "SELECT value FROM settings WHERE key = ?", key)
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	if row == nil {
		return "", nil
	}
	return rowString(row, "value"), nil
}

// GetSettingJSON retrieves a setting and unmarshals it from JSON.
func (db *DB) GetSettingJSON(ctx context.Context, key string, v any) error {
	value, err := db.GetSetting(ctx, key)
	if err != nil {
		return err
	}
	if value == "" {
		return nil
	}
	return json.Unmarshal([]byte(value), v)
}

// SetSetting stores a setting value.
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	_, err := db.store.Execute(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// SetSettingJSON stores a setting as JSON.
func (db *DB) SetSettingJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal setting %s: %w", key, err)
	}
	return db.SetSetting(ctx, key, string(data))
}

// DefaultSettings are applied on startup for keys that do not exist yet.
var DefaultSettings = map[string]any{
	"school.name":                "Schoolhouse",
	"school.term":                "2026-T3",
	"attendance.lock_after_days": 7,
	"fees.reminder_days":         []int{14, 7, 1},
	"messages.daily_limit":       200,
	"maintenance.optimize_cron":  "0 3 * * *",
	"maintenance.vacuum_cron":    "30 3 * * 0",
}

// InitializeDefaults sets default values for settings that don't exist.
func (db *DB) InitializeDefaults(ctx context.Context) error {
	for key, value := range DefaultSettings {
		existing, err := db.GetSetting(ctx, key)
		if err != nil {
			return err
		}
		if existing == "" {
			if err := db.SetSettingJSON(ctx, key, value); err != nil {
				return err
			}
		}
	}
	return nil
}
