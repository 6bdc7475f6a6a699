// Package migrations holds the sqlite schema, embedded so the server and the
// catalog importer carry it without a migrations directory on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
