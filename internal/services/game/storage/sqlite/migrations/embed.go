// Package migrations contains embedded SQL migrations for the SQLite store.
package migrations

import "embed"

//go:embed game/*.sql
var GameFS embed.FS
