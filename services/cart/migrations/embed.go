// Package migrations embeds the SQL schema of the postgres snapshot store.
package migrations

import "embed"

// FS holds the *.sql migration files.
//
//go:embed *.sql
var FS embed.FS
