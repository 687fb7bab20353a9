package migrations

import "embed"

// FS contains embedded SQLite migrations for the conference store.
//
//go:embed *.sql
var FS embed.FS
