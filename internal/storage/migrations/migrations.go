// Package migrations embeds the SQL schema. The files are portable between PostgreSQL and
// SQLite: JSON lives in TEXT columns and timestamps are unix seconds.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
