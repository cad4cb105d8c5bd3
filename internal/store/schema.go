package store

import _ "embed"

// DefaultSchema is the school administration schema executed at bootstrap.
// Statements are idempotent so a bootstrap over an existing file converges
// instead of failing.
//
//go:embed schema.sql
var DefaultSchema string
