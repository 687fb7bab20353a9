package migrations

import "embed"

// FS contains the golang-migrate migrations for the postgres store.
//
//go:embed *.sql
var FS embed.FS
