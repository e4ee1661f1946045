// Package migrations holds the Postgres schema as numbered up/down pairs.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
