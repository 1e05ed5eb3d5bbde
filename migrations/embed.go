// Package migrations embeds the goose SQL migrations for the carpool schema so
// the API can apply them at startup and integration tests can run them from
// TestMain without a filesystem path.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
