package database

import (
	"time"

	"github.com/schoolhouse-dev/schoolhouse/internal/store"
)

// Row accessors. The store surfaces SQLite values as int64, float64,
// string, time.Time or nil; these helpers normalize them for struct
// mapping.

func rowString(row store.Row, col string) string {
	if v, ok := row[col].(string); ok {
		return v
	}
	return ""
}

func rowInt64(row store.Row, col string) int64 {
	switch v := row[col].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func rowFloat64(row store.Row, col string) float64 {
	switch v := row[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

// rowBool handles both SQLite's integer booleans and textual true/false.
func rowBool(row store.Row, col string) bool {
	switch v := row[col].(type) {
	case int64:
		return v != 0
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	}
	return false
}

func rowInt64Ptr(row store.Row, col string) *int64 {
	if v, ok := row[col].(int64); ok {
		return &v
	}
	return nil
}

// rowTime parses TIMESTAMP columns, which arrive either typed or as the
// SQLite default text format.
func rowTime(row store.Row, col string) time.Time {
	switch v := row[col].(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
