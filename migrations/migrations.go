// Package migrations embeds the SQL migrations for the Postgres definition
// source.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
