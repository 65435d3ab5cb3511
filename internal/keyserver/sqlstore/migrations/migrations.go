// Package migrations embeds the keyserver's PostgreSQL schema
// migrations for golang-migrate.
package migrations

import "embed"

// FS holds the migration SQL files.
//
//go:embed *.sql
var FS embed.FS
